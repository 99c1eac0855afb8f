package improvement

import (
	"math"

	"github.com/GoSim-25-26J-441/epicast/internal/modelio"
	"github.com/GoSim-25-26J-441/epicast/internal/seir"
	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// WorstFitness is the score given to a candidate whose evaluation failed
const WorstFitness = math.MaxFloat64

// Candidate is one parameter set under calibration together with its cached fitness
type Candidate struct {
	params  models.Params
	initial models.State
	solver  config.Solver
	fitness float64
	scored  bool
	err     error
}

// NewCandidate creates an unscored candidate simulated from the default initial state
func NewCandidate(params models.Params) *Candidate {
	return &Candidate{
		params:  params,
		initial: models.DefaultInitialState(),
		solver:  config.DefaultSolver(),
	}
}

func newCandidateFor(params models.Params, cfg *config.Calibration) *Candidate {
	return &Candidate{
		params:  params,
		initial: cfg.InitialState,
		solver:  cfg.Solver,
	}
}

// Params returns the candidate's model parameters
func (c *Candidate) Params() models.Params {
	return c.params
}

// setParams replaces the parameters, dropping the cached fitness when they change
func (c *Candidate) setParams(p models.Params) {
	if p == c.params {
		return
	}
	c.params = p
	c.scored = false
	c.fitness = 0
	c.err = nil
}

// Fitness returns the cached fitness and whether the candidate has been scored
func (c *Candidate) Fitness() (float64, bool) {
	return c.fitness, c.scored
}

// Err returns the error from the last evaluation, if it failed
func (c *Candidate) Err() error {
	return c.err
}

// Evaluate scores the candidate unless a cached score exists.
// A failed or non-finite evaluation yields WorstFitness and is recorded in Err.
func (c *Candidate) Evaluate(ev Evaluator, observed []float64) float64 {
	if c.scored {
		return c.fitness
	}
	score, err := ev.Score(c.params, observed)
	switch {
	case err != nil:
		c.fitness, c.err = WorstFitness, err
	case !utils.IsFinite(score) || score < 0:
		c.fitness, c.err = WorstFitness, &models.InvalidParameterError{Param: "fitness", Value: score, Reason: "evaluation produced a non-finite score"}
	default:
		c.fitness, c.err = score, nil
	}
	c.scored = true
	return c.fitness
}

// Clone returns an independent copy, including the cached score
func (c *Candidate) Clone() *Candidate {
	cp := *c
	return &cp
}

// Model returns an integrable model for the candidate's parameters
func (c *Candidate) Model() *seir.Model {
	return seir.NewModel(c.params, seir.WithInitialState(c.initial), seir.WithSolver(c.solver))
}

// Simulate integrates the candidate's model over timePoints
func (c *Candidate) Simulate(timePoints []float64) (*models.Trajectory, error) {
	return c.Model().Simulate(timePoints)
}

// Dump writes the candidate to path. cfg is optional and records how it was obtained.
func (c *Candidate) Dump(path string, cfg *config.Calibration) error {
	doc := &modelio.Document{Model: c.params, Calibration: cfg}
	if c.scored {
		fitness := c.fitness
		doc.Fitness = &fitness
	}
	return modelio.Dump(doc, path)
}

// LoadCandidate reads a candidate written by Dump. A recorded fitness is restored as
// the cached score, and a recorded calibration restores the initial state and solver.
func LoadCandidate(path string) (*Candidate, error) {
	doc, err := modelio.Load(path)
	if err != nil {
		return nil, err
	}
	c := NewCandidate(doc.Model)
	if doc.Calibration != nil {
		c.initial = doc.Calibration.InitialState
		c.solver = doc.Calibration.Solver
	}
	if doc.Fitness != nil {
		c.fitness = *doc.Fitness
		c.scored = true
	}
	return c, nil
}
