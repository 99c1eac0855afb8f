package improvement

import (
	"errors"
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/epicast/internal/seir"
	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

func TestNewObjectiveFunction(t *testing.T) {
	tests := []struct {
		metric  string
		wantErr bool
	}{
		{metric: config.MetricSSE},
		{metric: config.MetricRelative},
		{metric: config.MetricLog},
		{metric: "mae", wantErr: true},
		{metric: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			obj, err := NewObjectiveFunction(tt.metric)
			if tt.wantErr {
				var unknown *UnknownObjectiveError
				if !errors.As(err, &unknown) {
					t.Fatalf("expected UnknownObjectiveError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if obj.Name() != tt.metric {
				t.Fatalf("expected name %q, got %q", tt.metric, obj.Name())
			}
		})
	}
}

func TestObjectiveValues(t *testing.T) {
	sim := []float64{1, 2, 3, 10}
	obs := []float64{1, 4, 0, 5}

	tests := []struct {
		name string
		obj  ObjectiveFunction
		want float64
	}{
		{name: "sse", obj: &SSEObjective{}, want: 0 + 4 + 9 + 25},
		// observed 0 is scaled by 1
		{name: "relative", obj: &RelativeObjective{}, want: 0 + 0.25 + 9 + 1},
		{name: "log", obj: &LogObjective{}, want: sq(math.Log1p(2)-math.Log1p(4)) + sq(math.Log1p(3)) + sq(math.Log1p(10)-math.Log1p(5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.obj.Evaluate(sim, obs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("expected %g, got %g", tt.want, got)
			}
			if sim[1] != 2 || obs[1] != 4 {
				t.Fatalf("inputs were modified: %v %v", sim, obs)
			}
		})
	}
}

func sq(x float64) float64 { return x * x }

func TestObjectiveShapeMismatch(t *testing.T) {
	for _, obj := range []ObjectiveFunction{&SSEObjective{}, &RelativeObjective{}, &LogObjective{}} {
		_, err := obj.Evaluate([]float64{1, 2}, []float64{1})
		var shape *models.ShapeMismatchError
		if !errors.As(err, &shape) {
			t.Fatalf("%s: expected ShapeMismatchError, got %v", obj.Name(), err)
		}
	}
}

func TestValidateObserved(t *testing.T) {
	if err := ValidateObserved([]float64{0, 1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var shape *models.ShapeMismatchError
	if err := ValidateObserved(nil); !errors.As(err, &shape) {
		t.Fatalf("expected ShapeMismatchError for empty series, got %v", err)
	}

	for _, bad := range [][]float64{{1, -1}, {math.NaN()}, {math.Inf(1)}} {
		var input *models.InvalidInputError
		if err := ValidateObserved(bad); !errors.As(err, &input) {
			t.Fatalf("expected InvalidInputError for %v, got %v", bad, err)
		}
	}
}

func TestNewFitnessEvaluator(t *testing.T) {
	if _, err := NewFitnessEvaluator(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := config.DefaultCalibration()
	cfg.Fitness.Metric = "bogus"
	_, err := NewFitnessEvaluator(cfg)
	var cfgErr *models.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "fitness.metric" {
		t.Fatalf("expected ConfigError on fitness.metric, got %v", err)
	}

	cfg = config.DefaultCalibration()
	cfg.Fitness.Observable = ""
	ev, err := NewFitnessEvaluator(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Observable() != models.ObservableInfectiousRemoved {
		t.Fatalf("expected default observable, got %q", ev.Observable())
	}
	if ev.Objective().Name() != config.MetricSSE {
		t.Fatalf("expected sse objective, got %q", ev.Objective().Name())
	}
}

func TestFitnessEvaluatorScoresOwnTrajectoryAsZero(t *testing.T) {
	cfg := config.DefaultCalibration()
	params := models.LiteratureParams()

	traj, err := seir.NewModel(params).Simulate(seir.Days(40))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	observed, err := traj.Observed(models.ObservableInfectiousRemoved)
	if err != nil {
		t.Fatalf("observed: %v", err)
	}

	ev, err := NewFitnessEvaluator(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score, err := ev.Score(params, observed)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score > 1e-9 {
		t.Fatalf("expected zero discrepancy for the generating parameters, got %g", score)
	}

	other := params
	other.R0 = 4
	worse, err := ev.Score(other, observed)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if worse <= score {
		t.Fatalf("expected different parameters to score worse: %g <= %g", worse, score)
	}
}

func TestFitnessEvaluatorErrors(t *testing.T) {
	ev, err := NewFitnessEvaluator(config.DefaultCalibration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ev.Score(models.LiteratureParams(), nil); err == nil {
		t.Fatalf("expected error for empty observations")
	}

	bad := models.LiteratureParams()
	bad.MeanRemoveTime = 0
	_, err = ev.Score(bad, []float64{1, 2, 3})
	var param *models.InvalidParameterError
	if !errors.As(err, &param) {
		t.Fatalf("expected InvalidParameterError, got %v", err)
	}
}
