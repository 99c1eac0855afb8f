package improvement

import (
	"fmt"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// SelectionStrategy chooses parents for reproduction
type SelectionStrategy interface {
	// Select picks one parent from ranked, which is sorted best first and fully scored
	Select(ranked []*Candidate, rng *utils.RandSource) *Candidate
	// Name returns the name of the selection strategy
	Name() string
}

// NewSelectionStrategy creates the strategy named in a calibration configuration
func NewSelectionStrategy(name string, tournamentSize int) (SelectionStrategy, error) {
	switch name {
	case config.SelectionTournament:
		if tournamentSize < 1 {
			return nil, &models.ConfigError{Field: "tournament_size", Reason: fmt.Sprintf("must be at least 1, got %d", tournamentSize)}
		}
		return &TournamentStrategy{Size: tournamentSize}, nil
	case config.SelectionRoulette:
		return &RouletteStrategy{}, nil
	case config.SelectionRank:
		return &RankStrategy{}, nil
	default:
		return nil, &models.ConfigError{Field: "selection_strategy", Reason: fmt.Sprintf("unknown strategy %q", name)}
	}
}

// TournamentStrategy samples Size candidates with replacement and keeps the fittest
type TournamentStrategy struct {
	Size int
}

func (s *TournamentStrategy) Name() string {
	return config.SelectionTournament
}

func (s *TournamentStrategy) Select(ranked []*Candidate, rng *utils.RandSource) *Candidate {
	// ranked is sorted, so the lowest index drawn wins and ties go to the earlier slot
	best := rng.Intn(len(ranked))
	for i := 1; i < s.Size; i++ {
		if idx := rng.Intn(len(ranked)); idx < best {
			best = idx
		}
	}
	return ranked[best]
}

// RouletteStrategy is fitness-proportional selection on the inverted score 1/(1+f).
// Failed candidates get no share of the wheel; if every candidate failed the pick is uniform.
type RouletteStrategy struct{}

func (s *RouletteStrategy) Name() string {
	return config.SelectionRoulette
}

func (s *RouletteStrategy) Select(ranked []*Candidate, rng *utils.RandSource) *Candidate {
	weights := make([]float64, len(ranked))
	total := 0.0
	for i, c := range ranked {
		if f, ok := c.Fitness(); ok && f < WorstFitness {
			weights[i] = 1 / (1 + f)
			total += weights[i]
		}
	}
	if total <= 0 {
		return ranked[rng.Intn(len(ranked))]
	}

	spin := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if spin < acc {
			return ranked[i]
		}
	}
	// rounding can leave spin a hair above the final sum
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return ranked[i]
		}
	}
	return ranked[0]
}

// RankStrategy is linear ranking selection: the i-th best of n has weight n-i
type RankStrategy struct{}

func (s *RankStrategy) Name() string {
	return config.SelectionRank
}

func (s *RankStrategy) Select(ranked []*Candidate, rng *utils.RandSource) *Candidate {
	n := len(ranked)
	total := n * (n + 1) / 2
	spin := rng.Intn(total)
	for i := 0; i < n; i++ {
		spin -= n - i
		if spin < 0 {
			return ranked[i]
		}
	}
	return ranked[n-1]
}
