package models

import (
	"fmt"
	"math"
)

// Observable selects which compartments are compared against observed case counts
type Observable string

const (
	// ObservableRemoved compares the Removed compartment only
	ObservableRemoved Observable = "removed"
	// ObservableInfectiousRemoved compares I+R, i.e. everyone who has become infectious so far
	ObservableInfectiousRemoved Observable = "infectious_removed"
)

// State is a point in SEIR compartment space
type State struct {
	S float64 `yaml:"s"`
	E float64 `yaml:"e"`
	I float64 `yaml:"i"`
	R float64 `yaml:"r"`
}

// DefaultInitialState is a single infectious case in a population of sixty million
func DefaultInitialState() State {
	return State{S: 60000000, E: 0, I: 1, R: 0}
}

// Total returns S+E+I+R
func (s State) Total() float64 {
	return s.S + s.E + s.I + s.R
}

// Validate checks that every compartment is a finite non-negative count
func (s State) Validate() error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"S", s.S}, {"E", s.E}, {"I", s.I}, {"R", s.R},
	} {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 {
			return &InvalidParameterError{Param: "initial_state." + c.name, Value: c.value, Reason: "must be a finite non-negative count"}
		}
	}
	if s.Total() <= 0 {
		return &InvalidParameterError{Param: "initial_state", Value: s.Total(), Reason: "total population must be positive"}
	}
	return nil
}

// Params are the tunable parameters of the SEIR model
type Params struct {
	R0                 float64 `yaml:"r0"`
	Effectiveness      float64 `yaml:"effectiveness"`
	InterventionDay    int     `yaml:"intervention_day"`
	MeanIncubationTime float64 `yaml:"mean_incubation_time"`
	MeanRemoveTime     float64 `yaml:"mean_remove_time"`
}

// LiteratureParams returns the published estimates for the early Italian outbreak
func LiteratureParams() Params {
	return Params{
		R0:                 2.2,
		Effectiveness:      0.3,
		InterventionDay:    60,
		MeanIncubationTime: 5.2,
		MeanRemoveTime:     2.1,
	}
}

// Validate rejects parameters that are biologically or numerically meaningless
func (p Params) Validate() error {
	if !(p.R0 > 0) || math.IsInf(p.R0, 0) {
		return &InvalidParameterError{Param: "r0", Value: p.R0, Reason: "must be positive"}
	}
	if !(p.MeanIncubationTime > 0) || math.IsInf(p.MeanIncubationTime, 0) {
		return &InvalidParameterError{Param: "mean_incubation_time", Value: p.MeanIncubationTime, Reason: "must be positive"}
	}
	if !(p.MeanRemoveTime > 0) || math.IsInf(p.MeanRemoveTime, 0) {
		return &InvalidParameterError{Param: "mean_remove_time", Value: p.MeanRemoveTime, Reason: "must be positive"}
	}
	if !(p.Effectiveness >= 0 && p.Effectiveness <= 1) {
		return &InvalidParameterError{Param: "effectiveness", Value: p.Effectiveness, Reason: "must be between 0 and 1"}
	}
	if p.InterventionDay < 0 {
		return &InvalidParameterError{Param: "intervention_day", Value: float64(p.InterventionDay), Reason: "cannot be negative"}
	}
	return nil
}

// Beta returns the transmission rate in effect at time t.
// The rate switches from R0/mean_remove_time to the reduced value at InterventionDay inclusive.
func (p Params) Beta(t float64) float64 {
	beta := p.R0 / p.MeanRemoveTime
	if t >= float64(p.InterventionDay) {
		return beta * (1 - p.Effectiveness)
	}
	return beta
}

// Sigma returns the incubation rate
func (p Params) Sigma() float64 {
	return 1 / p.MeanIncubationTime
}

// Gamma returns the removal rate
func (p Params) Gamma() float64 {
	return 1 / p.MeanRemoveTime
}

func (p Params) String() string {
	return fmt.Sprintf("R0=%.4g effectiveness=%.4g intervention_day=%d incubation=%.4g remove=%.4g",
		p.R0, p.Effectiveness, p.InterventionDay, p.MeanIncubationTime, p.MeanRemoveTime)
}

// Trajectory is the integrated state of every compartment at each requested time point
type Trajectory struct {
	Time   []float64
	States []State
}

// Len returns the number of time points
func (t *Trajectory) Len() int {
	return len(t.States)
}

// Compartments splits the trajectory into one series per compartment
func (t *Trajectory) Compartments() (s, e, i, r []float64) {
	n := len(t.States)
	s, e, i, r = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for k, st := range t.States {
		s[k], e[k], i[k], r[k] = st.S, st.E, st.I, st.R
	}
	return s, e, i, r
}

// Observed projects the trajectory onto the series that is compared with case counts
func (t *Trajectory) Observed(obs Observable) ([]float64, error) {
	out := make([]float64, len(t.States))
	switch obs {
	case ObservableRemoved:
		for k, st := range t.States {
			out[k] = st.R
		}
	case ObservableInfectiousRemoved, "":
		for k, st := range t.States {
			out[k] = st.I + st.R
		}
	default:
		return nil, &ConfigError{Field: "fitness.observable", Reason: fmt.Sprintf("unknown observable %q", obs)}
	}
	return out, nil
}
