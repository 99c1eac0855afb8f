package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
)

// ConvergenceStrategy decides whether calibration can stop before the last generation
type ConvergenceStrategy interface {
	// CheckConvergence inspects the per-generation history, oldest first
	CheckConvergence(history []GenerationStats) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection
type ConvergenceConfig struct {
	// NoImprovementGenerations is the number of generations without a new best before stopping
	NoImprovementGenerations int
	// ScoreTolerance is the relative spread of recent best scores that counts as a plateau
	ScoreTolerance float64
	// MinGenerations is the minimum number of generations before convergence can be detected
	MinGenerations int
	// PlateauGenerations is the window inspected by the plateau strategy
	PlateauGenerations int
}

// DefaultConvergenceConfig returns a default convergence configuration
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementGenerations: 20,
		ScoreTolerance:           1e-6,
		MinGenerations:           5,
		PlateauGenerations:       10,
	}
}

// NoImprovementStrategy detects convergence when the best fitness has not dropped for N generations
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	if len(history) < s.config.MinGenerations || s.config.NoImprovementGenerations <= 0 {
		return false, ""
	}

	bestScore := math.Inf(1)
	bestGeneration := -1
	for i, g := range history {
		if g.BestFitness < bestScore {
			bestScore = g.BestFitness
			bestGeneration = i
		}
	}
	if bestGeneration < 0 {
		return false, ""
	}

	since := len(history) - 1 - bestGeneration
	if since >= s.config.NoImprovementGenerations {
		return true, fmt.Sprintf("no improvement for %d generations (best at generation %d)", since, history[bestGeneration].Generation)
	}
	return false, ""
}

// PlateauStrategy detects convergence when the recent best scores are within a relative tolerance
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	if len(history) < s.config.MinGenerations || s.config.PlateauGenerations < 2 || len(history) < s.config.PlateauGenerations {
		return false, ""
	}

	recent := history[len(history)-s.config.PlateauGenerations:]
	minScore, maxScore := recent[0].BestFitness, recent[0].BestFitness
	for _, g := range recent {
		minScore = math.Min(minScore, g.BestFitness)
		maxScore = math.Max(maxScore, g.BestFitness)
	}
	if maxScore >= WorstFitness {
		return false, ""
	}

	spread := maxScore - minScore
	if spread <= s.config.ScoreTolerance*math.Max(math.Abs(maxScore), 1) {
		return true, fmt.Sprintf("best fitness plateaued for %d generations (spread: %.6g)", s.config.PlateauGenerations, spread)
	}
	return false, ""
}

// CombinedStrategy converges as soon as any of its strategies does
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates a strategy from the given parts
func NewCombinedStrategy(strategies ...ConvergenceStrategy) *CombinedStrategy {
	return &CombinedStrategy{strategies: strategies}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(history); converged {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), reason)
		}
	}
	return false, ""
}

// NewConvergenceStrategy builds the early-stopping strategy a calibration asks for.
// It returns nil when neither stagnation_limit nor plateau_generations is set.
func NewConvergenceStrategy(cfg *config.Calibration) ConvergenceStrategy {
	cc := &ConvergenceConfig{
		NoImprovementGenerations: cfg.StagnationLimit,
		ScoreTolerance:           cfg.Convergence.PlateauTolerance,
		MinGenerations:           cfg.Convergence.MinGenerations,
		PlateauGenerations:       cfg.Convergence.PlateauGenerations,
	}
	var parts []ConvergenceStrategy
	if cc.NoImprovementGenerations > 0 {
		parts = append(parts, NewNoImprovementStrategy(cc))
	}
	if cc.PlateauGenerations > 0 {
		parts = append(parts, NewPlateauStrategy(cc))
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return NewCombinedStrategy(parts...)
}
