package config

import (
	"fmt"
	"math"
	"os"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// LoadCalibration loads and parses a calibration file
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}
	cfg, err := ParseCalibrationYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	return cfg, nil
}

func configErr(field, format string, args ...any) error {
	return &models.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate performs validation on a calibration configuration
func Validate(cfg *Calibration) error {
	if cfg == nil {
		return configErr("", "calibration configuration is required")
	}

	if cfg.PopulationSize < 1 {
		return configErr("population_size", "must be at least 1, got %d", cfg.PopulationSize)
	}
	if cfg.GenerationCount < 1 {
		return configErr("generation_count", "must be at least 1, got %d", cfg.GenerationCount)
	}
	if cfg.ElitismCount < 0 {
		return configErr("elitism_count", "cannot be negative, got %d", cfg.ElitismCount)
	}
	if cfg.ElitismCount > cfg.PopulationSize {
		return configErr("elitism_count", "%d exceeds population_size %d", cfg.ElitismCount, cfg.PopulationSize)
	}
	if !utils.IsFinite(cfg.MutationRate) || cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return configErr("mutation_rate", "must be between 0 and 1, got %f", cfg.MutationRate)
	}
	if !utils.IsFinite(cfg.MutationScale) || cfg.MutationScale < 0 {
		return configErr("mutation_scale", "cannot be negative, got %f", cfg.MutationScale)
	}
	if !utils.IsFinite(cfg.CrossoverRate) || cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return configErr("crossover_rate", "must be between 0 and 1, got %f", cfg.CrossoverRate)
	}

	validStrategies := map[string]bool{
		SelectionTournament: true,
		SelectionRoulette:   true,
		SelectionRank:       true,
	}
	if !validStrategies[cfg.SelectionStrategy] {
		return configErr("selection_strategy", "invalid strategy %q (must be tournament, roulette, or rank)", cfg.SelectionStrategy)
	}
	if cfg.SelectionStrategy == SelectionTournament && cfg.TournamentSize < 1 {
		return configErr("tournament_size", "must be at least 1, got %d", cfg.TournamentSize)
	}
	if cfg.Workers < 0 {
		return configErr("workers", "cannot be negative, got %d", cfg.Workers)
	}
	if cfg.StagnationLimit < 0 {
		return configErr("stagnation_limit", "cannot be negative, got %d", cfg.StagnationLimit)
	}
	if err := validateConvergence(cfg.Convergence); err != nil {
		return err
	}

	if err := validateFitness(cfg.Fitness); err != nil {
		return err
	}
	if err := cfg.InitialState.Validate(); err != nil {
		return &models.ConfigError{Field: "initial_state", Err: err}
	}
	if err := validateBounds(cfg.Bounds); err != nil {
		return err
	}
	if !(cfg.Solver.RelTol > 0) || !(cfg.Solver.AbsTol > 0) {
		return configErr("solver", "tolerances must be positive, got rel_tol=%g abs_tol=%g", cfg.Solver.RelTol, cfg.Solver.AbsTol)
	}

	return nil
}

func validateConvergence(c Convergence) error {
	if c.PlateauGenerations < 0 || c.PlateauGenerations == 1 {
		return configErr("convergence.plateau_generations", "must be 0 or at least 2, got %d", c.PlateauGenerations)
	}
	if !utils.IsFinite(c.PlateauTolerance) || c.PlateauTolerance < 0 {
		return configErr("convergence.plateau_tolerance", "cannot be negative, got %g", c.PlateauTolerance)
	}
	if c.MinGenerations < 0 {
		return configErr("convergence.min_generations", "cannot be negative, got %d", c.MinGenerations)
	}
	return nil
}

// validateFitness validates the fitness section
func validateFitness(f Fitness) error {
	validMetrics := map[string]bool{
		MetricSSE:      true,
		MetricRelative: true,
		MetricLog:      true,
	}
	if !validMetrics[f.Metric] {
		return configErr("fitness.metric", "invalid metric %q (must be sse, relative, or log)", f.Metric)
	}
	switch f.Observable {
	case models.ObservableRemoved, models.ObservableInfectiousRemoved:
	default:
		return configErr("fitness.observable", "invalid observable %q (must be removed or infectious_removed)", f.Observable)
	}
	return nil
}

// validateBounds validates the searched parameter space
func validateBounds(b Bounds) error {
	ranges := []struct {
		field    string
		r        Range
		positive bool
	}{
		{"bounds.r0", b.R0, true},
		{"bounds.effectiveness", b.Effectiveness, false},
		{"bounds.intervention_day", b.InterventionDay, false},
		{"bounds.mean_incubation_time", b.MeanIncubationTime, true},
		{"bounds.mean_remove_time", b.MeanRemoveTime, true},
	}
	for _, rr := range ranges {
		if !utils.IsFinite(rr.r.Min) || !utils.IsFinite(rr.r.Max) {
			return configErr(rr.field, "bounds must be finite")
		}
		if rr.r.Min > rr.r.Max {
			return configErr(rr.field, "min %g exceeds max %g", rr.r.Min, rr.r.Max)
		}
		if rr.positive && rr.r.Min <= 0 {
			return configErr(rr.field, "min must be positive, got %g", rr.r.Min)
		}
		if rr.r.Min < 0 {
			return configErr(rr.field, "min cannot be negative, got %g", rr.r.Min)
		}
	}
	if math.Ceil(b.InterventionDay.Min) > math.Floor(b.InterventionDay.Max) {
		return configErr("bounds.intervention_day", "[%g, %g] contains no whole day", b.InterventionDay.Min, b.InterventionDay.Max)
	}
	if b.Effectiveness.Max > 1 {
		return configErr("bounds.effectiveness", "max cannot exceed 1, got %g", b.Effectiveness.Max)
	}
	return nil
}
