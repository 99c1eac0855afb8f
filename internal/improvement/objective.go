package improvement

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/GoSim-25-26J-441/epicast/internal/seir"
	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// ObjectiveFunction measures the discrepancy between a simulated and an observed series.
// Both slices have the same length. Lower scores are better.
type ObjectiveFunction interface {
	// Evaluate computes the discrepancy. It must not modify its arguments.
	Evaluate(simulated, observed []float64) (float64, error)

	// Name returns the name of the objective function.
	Name() string
}

// NewObjectiveFunction creates an objective function from a metric name
func NewObjectiveFunction(metric string) (ObjectiveFunction, error) {
	switch metric {
	case config.MetricSSE:
		return &SSEObjective{}, nil
	case config.MetricRelative:
		return &RelativeObjective{}, nil
	case config.MetricLog:
		return &LogObjective{}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: metric}
	}
}

// SSEObjective is the sum of squared differences
type SSEObjective struct{}

func (o *SSEObjective) Name() string {
	return config.MetricSSE
}

func (o *SSEObjective) Evaluate(simulated, observed []float64) (float64, error) {
	if err := checkShapes(simulated, observed); err != nil {
		return 0, err
	}
	diff := make([]float64, len(observed))
	floats.SubTo(diff, simulated, observed)
	return floats.Dot(diff, diff), nil
}

// RelativeObjective is the sum of squared differences scaled by the observed value.
// Days with fewer than one observed case are scaled by one.
type RelativeObjective struct{}

func (o *RelativeObjective) Name() string {
	return config.MetricRelative
}

func (o *RelativeObjective) Evaluate(simulated, observed []float64) (float64, error) {
	if err := checkShapes(simulated, observed); err != nil {
		return 0, err
	}
	diff := make([]float64, len(observed))
	scale := make([]float64, len(observed))
	floats.SubTo(diff, simulated, observed)
	for i, v := range observed {
		scale[i] = math.Max(v, 1)
	}
	floats.Div(diff, scale)
	return floats.Dot(diff, diff), nil
}

// LogObjective compares log(1+x) of both series, weighting early and late days alike
type LogObjective struct{}

func (o *LogObjective) Name() string {
	return config.MetricLog
}

func (o *LogObjective) Evaluate(simulated, observed []float64) (float64, error) {
	if err := checkShapes(simulated, observed); err != nil {
		return 0, err
	}
	diff := make([]float64, len(observed))
	for i := range observed {
		diff[i] = math.Log1p(simulated[i]) - math.Log1p(observed[i])
	}
	return floats.Dot(diff, diff), nil
}

func checkShapes(simulated, observed []float64) error {
	if len(simulated) != len(observed) {
		return &models.ShapeMismatchError{Observed: len(observed), Simulated: len(simulated), Reason: "series must be aligned before comparison"}
	}
	return nil
}

// Evaluator scores a parameter set against observed case counts
type Evaluator interface {
	Score(params models.Params, observed []float64) (float64, error)
}

// FitnessEvaluator simulates a parameter set and compares the chosen observable with the data.
//
// Alignment policy: observed[k] is matched with simulated day k. The model is integrated
// for exactly len(observed) days and the comparison covers the shorter of the two series,
// which for this evaluator is always the full observed series.
type FitnessEvaluator struct {
	objective  ObjectiveFunction
	observable models.Observable
	initial    models.State
	solver     config.Solver
}

// NewFitnessEvaluator builds an evaluator from the fitness, initial state and solver sections
func NewFitnessEvaluator(cfg *config.Calibration) (*FitnessEvaluator, error) {
	if cfg == nil {
		return nil, &models.ConfigError{Reason: "calibration configuration is required"}
	}
	objective, err := NewObjectiveFunction(cfg.Fitness.Metric)
	if err != nil {
		return nil, &models.ConfigError{Field: "fitness.metric", Err: err}
	}
	observable := cfg.Fitness.Observable
	if observable == "" {
		observable = models.ObservableInfectiousRemoved
	}
	return &FitnessEvaluator{
		objective:  objective,
		observable: observable,
		initial:    cfg.InitialState,
		solver:     cfg.Solver,
	}, nil
}

// Objective returns the objective function in use
func (f *FitnessEvaluator) Objective() ObjectiveFunction {
	return f.objective
}

// Observable returns the compartments compared with observations
func (f *FitnessEvaluator) Observable() models.Observable {
	return f.observable
}

// Score returns the discrepancy between params and observed; lower is better
func (f *FitnessEvaluator) Score(params models.Params, observed []float64) (float64, error) {
	if err := ValidateObserved(observed); err != nil {
		return 0, err
	}

	model := seir.NewModel(params, seir.WithInitialState(f.initial), seir.WithSolver(f.solver))
	traj, err := model.Simulate(seir.Days(len(observed)))
	if err != nil {
		return 0, err
	}
	simulated, err := traj.Observed(f.observable)
	if err != nil {
		return 0, err
	}

	n := min(len(simulated), len(observed))
	score, err := f.objective.Evaluate(simulated[:n], observed[:n])
	if err != nil {
		return 0, fmt.Errorf("%s objective: %w", f.objective.Name(), err)
	}
	return score, nil
}

// ValidateObserved checks that observed is a non-empty series of finite non-negative counts
func ValidateObserved(observed []float64) error {
	if len(observed) == 0 {
		return &models.ShapeMismatchError{Observed: 0, Reason: "observed series is empty"}
	}
	for i, v := range observed {
		if !utils.IsFinite(v) || v < 0 {
			return &models.InvalidInputError{Reason: fmt.Sprintf("observed[%d]=%g is not a non-negative count", i, v)}
		}
	}
	return nil
}

// UnknownObjectiveError indicates an unknown objective type
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}
