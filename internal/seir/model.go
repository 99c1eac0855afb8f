package seir

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

// Model is an SEIR model with fixed parameters, ready to be integrated
type Model struct {
	params  models.Params
	initial models.State
	rtol    float64
	atol    float64
}

// Option configures a Model
type Option func(*Model)

// WithInitialState sets the state used by Simulate
func WithInitialState(s models.State) Option {
	return func(m *Model) {
		m.initial = s
	}
}

// WithSolver sets the integrator tolerances
func WithSolver(s config.Solver) Option {
	return func(m *Model) {
		m.rtol = s.RelTol
		m.atol = s.AbsTol
	}
}

// NewModel creates a model. Parameters are validated when the model is integrated.
func NewModel(params models.Params, opts ...Option) *Model {
	solver := config.DefaultSolver()
	m := &Model{
		params:  params,
		initial: models.DefaultInitialState(),
		rtol:    solver.RelTol,
		atol:    solver.AbsTol,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Params returns the model parameters
func (m *Model) Params() models.Params {
	return m.params
}

// InitialState returns the state used by Simulate
func (m *Model) InitialState() models.State {
	return m.initial
}

// Days returns the time points 0, 1, ..., n-1
func Days(n int) []float64 {
	if n < 0 {
		n = 0
	}
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	return t
}

// Simulate integrates the model from its configured initial state
func (m *Model) Simulate(timePoints []float64) (*models.Trajectory, error) {
	return m.Integrate(timePoints, m.initial)
}

// Integrate returns the state at every time point, starting from initial at timePoints[0].
// Time points must be finite and non-decreasing; repeated points repeat the same state.
func (m *Model) Integrate(timePoints []float64, initial models.State) (*models.Trajectory, error) {
	if err := m.params.Validate(); err != nil {
		return nil, err
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	if len(timePoints) == 0 {
		return nil, &models.InvalidInputError{Reason: "time points cannot be empty"}
	}
	for i, t := range timePoints {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("time point %d is not finite", i)}
		}
		if i > 0 && t < timePoints[i-1] {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("time points must be non-decreasing (index %d: %g < %g)", i, t, timePoints[i-1])}
		}
	}

	day := float64(m.params.InterventionDay)
	switching := m.params.Effectiveness > 0

	net := newSEIRNetwork(m.params, initial.Total())
	st := newStepper(numPlaces, m.rtol, m.atol)
	y := []float64{initial.S, initial.E, initial.I, initial.R}

	traj := &models.Trajectory{
		Time:   make([]float64, len(timePoints)),
		States: make([]models.State, len(timePoints)),
	}
	copy(traj.Time, timePoints)
	traj.States[0] = initial

	for k := 1; k < len(timePoints); k++ {
		t0, t1 := timePoints[k-1], timePoints[k]
		var err error
		if switching && t0 < day && day < t1 {
			net.setTransmission(m.params.Beta(t0))
			if err = st.advance(net.derivative, y, t0, day); err == nil {
				net.setTransmission(m.params.Beta(day))
				err = st.advance(net.derivative, y, day, t1)
			}
		} else {
			// β is constant on [t0, t1); sample it at t0 so that a segment ending
			// exactly on the intervention day still uses the pre-intervention rate
			net.setTransmission(m.params.Beta(t0))
			err = st.advance(net.derivative, y, t0, t1)
		}
		if err != nil {
			return nil, fmt.Errorf("integrating [%g, %g] with %s: %w", t0, t1, m.params, err)
		}
		traj.States[k] = models.State{
			S: math.Max(y[placeS], 0),
			E: math.Max(y[placeE], 0),
			I: math.Max(y[placeI], 0),
			R: math.Max(y[placeR], 0),
		}
	}

	return traj, nil
}
