package improvement

import (
	"math"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

const numGenes = 5

// genome is the real-valued encoding of models.Params used by the variation operators
type genome [numGenes]float64

func encode(p models.Params) genome {
	return genome{p.R0, p.Effectiveness, float64(p.InterventionDay), p.MeanIncubationTime, p.MeanRemoveTime}
}

func decode(g genome) models.Params {
	return models.Params{
		R0:                 g[0],
		Effectiveness:      g[1],
		InterventionDay:    int(math.Round(g[2])),
		MeanIncubationTime: g[3],
		MeanRemoveTime:     g[4],
	}
}

func boundsOf(b config.Bounds) [numGenes]config.Range {
	return [numGenes]config.Range{b.R0, b.Effectiveness, b.InterventionDay, b.MeanIncubationTime, b.MeanRemoveTime}
}

// clampToBounds pulls every gene back into its range; the intervention day is rounded first
func clampToBounds(p models.Params, b config.Bounds) models.Params {
	g := encode(p)
	g[2] = math.Round(g[2])
	ranges := boundsOf(b)
	for i := range g {
		g[i] = utils.ClampFloat64(g[i], ranges[i].Min, ranges[i].Max)
	}
	out := decode(g)
	// rounding may step just outside a fractional day range
	lo, hi := int(math.Ceil(b.InterventionDay.Min)), int(math.Floor(b.InterventionDay.Max))
	if lo <= hi {
		out.InterventionDay = utils.Clamp(out.InterventionDay, lo, hi)
	}
	return out
}

// sampleParams draws parameters uniformly from the bounds
func sampleParams(b config.Bounds, rng *utils.RandSource) models.Params {
	ranges := boundsOf(b)
	var g genome
	for i, r := range ranges {
		g[i] = rng.UniformFloat64(r.Min, r.Max)
	}
	p := decode(g)
	p.InterventionDay = rng.UniformInt(int(math.Ceil(b.InterventionDay.Min)), int(math.Floor(b.InterventionDay.Max)))
	return clampToBounds(p, b)
}

// blendCrossover mixes two parents gene by gene with a fresh weight per gene
func blendCrossover(a, b models.Params, rng *utils.RandSource) models.Params {
	ga, gb := encode(a), encode(b)
	var child genome
	for i := range child {
		w := rng.Float64()
		child[i] = w*ga[i] + (1-w)*gb[i]
	}
	return decode(child)
}

// gaussianMutation perturbs each gene with probability rate by N(0, scale·width)
func gaussianMutation(p models.Params, rate, scale float64, b config.Bounds, rng *utils.RandSource) models.Params {
	g := encode(p)
	ranges := boundsOf(b)
	for i := range g {
		if !rng.BernoulliBool(rate) {
			continue
		}
		g[i] = rng.NormFloat64(g[i], scale*ranges[i].Width())
	}
	return clampToBounds(decode(g), b)
}
