package seir

import (
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

// Places of the compartment network, in state-vector order
const (
	placeS = iota
	placeE
	placeI
	placeR
	numPlaces
)

// Transitions of the compartment network
const (
	exposure = iota
	incubation
	recovery
)

type arc struct {
	place  int
	weight float64
}

// transition fires with mass-action kinetics: flux = rate · Π inputs
type transition struct {
	name    string
	rate    float64
	inputs  []arc
	outputs []arc
}

// network is the SEIR model written as a reaction network:
//
//	exposure:   S + I → E + I   rate β/N
//	incubation: E → I           rate σ
//	recovery:   I → R           rate γ
//
// Transitions only move mass between places, so S+E+I+R is invariant.
type network struct {
	population  float64
	transitions []transition
}

func newSEIRNetwork(p models.Params, population float64) *network {
	return &network{
		population: population,
		transitions: []transition{
			exposure: {
				name:    "exposure",
				inputs:  []arc{{placeS, 1}, {placeI, 1}},
				outputs: []arc{{placeE, 1}, {placeI, 1}},
			},
			incubation: {
				name:    "incubation",
				rate:    p.Sigma(),
				inputs:  []arc{{placeE, 1}},
				outputs: []arc{{placeI, 1}},
			},
			recovery: {
				name:    "recovery",
				rate:    p.Gamma(),
				inputs:  []arc{{placeI, 1}},
				outputs: []arc{{placeR, 1}},
			},
		},
	}
}

// setTransmission sets the exposure rate for transmission rate beta
func (n *network) setTransmission(beta float64) {
	n.transitions[exposure].rate = beta / n.population
}

// derivative writes dy/dt at y into dst
func (n *network) derivative(dst, y []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for _, tr := range n.transitions {
		flux := tr.rate
		for _, in := range tr.inputs {
			flux *= y[in.place]
		}
		for _, in := range tr.inputs {
			dst[in.place] -= in.weight * flux
		}
		for _, out := range tr.outputs {
			dst[out.place] += out.weight * flux
		}
	}
}
