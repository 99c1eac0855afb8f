package seir

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// derivFunc writes dy/dt at y into dst
type derivFunc func(dst, y []float64)

// Dormand-Prince 5(4) tableau. Row i holds the stage weights for k_{i+1}; the last
// row is the fifth-order solution. The system is autonomous on each segment, so the
// node coefficients are not needed.
var dpA = [7][]float64{
	{},
	{1.0 / 5},
	{3.0 / 40, 9.0 / 40},
	{44.0 / 45, -56.0 / 15, 32.0 / 9},
	{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
	{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
	{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
}

// difference between the fifth- and fourth-order weights
var dpE = [7]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}

const (
	safety    = 0.9
	minFactor = 0.2
	maxFactor = 5.0
	maxSteps  = 1_000_000
)

var errStepUnderflow = errors.New("step size underflow")

// stepper carries the adaptive step size between consecutive segments so that
// the step sequence depends only on the inputs
type stepper struct {
	rtol, atol float64
	h          float64
	steps      int

	k     [7][]float64
	stage []float64
	yNew  []float64
	errv  []float64
	scale []float64
}

func newStepper(dim int, rtol, atol float64) *stepper {
	s := &stepper{
		rtol:  rtol,
		atol:  atol,
		h:     0.1,
		stage: make([]float64, dim),
		yNew:  make([]float64, dim),
		errv:  make([]float64, dim),
		scale: make([]float64, dim),
	}
	for i := range s.k {
		s.k[i] = make([]float64, dim)
	}
	return s
}

// combine writes y + h·Σ dpA[row][j]·k_j into dst
func (s *stepper) combine(dst, y []float64, h float64, row int) {
	copy(dst, y)
	for j, a := range dpA[row] {
		if a != 0 {
			floats.AddScaled(dst, h*a, s.k[j])
		}
	}
}

// advance integrates y in place from t0 to t1 with f
func (s *stepper) advance(f derivFunc, y []float64, t0, t1 float64) error {
	if t1 <= t0 {
		return nil
	}

	t := t0
	f(s.k[0], y)
	for t < t1 {
		s.steps++
		if s.steps > maxSteps {
			return errStepUnderflow
		}

		h := s.h
		last := false
		if t+h >= t1 {
			h = t1 - t
			last = true
		}

		for i := 1; i < 6; i++ {
			s.combine(s.stage, y, h, i)
			f(s.k[i], s.stage)
		}
		s.combine(s.yNew, y, h, 6)
		f(s.k[6], s.yNew)

		for i := range s.errv {
			s.errv[i] = 0
			s.scale[i] = s.atol + s.rtol*math.Max(math.Abs(y[i]), math.Abs(s.yNew[i]))
		}
		for j, e := range dpE {
			if e != 0 {
				floats.AddScaled(s.errv, h*e, s.k[j])
			}
		}
		floats.Div(s.errv, s.scale)
		errNorm := floats.Norm(s.errv, 2) / math.Sqrt(float64(len(y)))

		if math.IsNaN(errNorm) {
			return errStepUnderflow
		}

		factor := maxFactor
		if errNorm > 0 {
			factor = math.Min(maxFactor, math.Max(minFactor, safety*math.Pow(errNorm, -0.2)))
		}

		if errNorm <= 1 {
			if last {
				t = t1
			} else {
				t += h
			}
			copy(y, s.yNew)
			// first same as last: the final stage is the next step's first
			s.k[0], s.k[6] = s.k[6], s.k[0]
			// a truncated final step says nothing about the natural step size
			if !last || factor < 1 {
				s.h = h * factor
			}
			continue
		}

		s.h = h * math.Max(minFactor, factor)
		if s.h < 1e-12*math.Max(1, math.Abs(t)) {
			return errStepUnderflow
		}
	}
	return nil
}
