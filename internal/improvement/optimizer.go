package improvement

import (
	"context"
	"iter"
	"log/slog"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/logger"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// Phase is the lifecycle state of an Optimizer
type Phase int

const (
	// PhaseUninitialized means no population exists yet
	PhaseUninitialized Phase = iota
	// PhaseInitialized means the first population has been drawn but not scored
	PhaseInitialized
	// PhaseEvaluating means the current population is being scored
	PhaseEvaluating
	// PhaseSelecting means a generation has been reported and the next call will reproduce
	PhaseSelecting
	// PhaseConverged is terminal; the ranking no longer changes
	PhaseConverged
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseSelecting:
		return "selecting"
	case PhaseConverged:
		return "converged"
	}
	return "unknown"
}

// GenerationStats summarises one evaluated generation
type GenerationStats struct {
	Generation int
	// BestFitness is the best score seen in any generation so far; it never increases
	BestFitness float64
	// GenerationBest is the best score in this generation's population
	GenerationBest float64
	// WorstFitness is the worst score in this generation's population
	WorstFitness float64
	// MeanFitness and StdDevFitness cover candidates that evaluated successfully (0 if none did)
	MeanFitness   float64
	StdDevFitness float64
	Evaluations   int
	Failures      int
}

// Optimizer calibrates SEIR parameters against observed cases with a generational
// genetic search. It is driven one generation at a time through Next or Train.
type Optimizer struct {
	mu          sync.Mutex
	cfg         config.Calibration
	observed    []float64
	evaluator   Evaluator
	selector    SelectionStrategy
	convergence ConvergenceStrategy
	rng         *utils.RandSource
	logger      *slog.Logger
	progress    func(GenerationStats)

	phase             Phase
	generation        int
	population        []*Candidate
	best              *Candidate
	history           []GenerationStats
	convergenceReason string
}

// NewOptimizer validates cfg and observed and returns an optimizer in PhaseUninitialized
func NewOptimizer(observed []float64, cfg *config.Calibration) (*Optimizer, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := ValidateObserved(observed); err != nil {
		return nil, err
	}
	evaluator, err := NewFitnessEvaluator(cfg)
	if err != nil {
		return nil, err
	}
	selector, err := NewSelectionStrategy(cfg.SelectionStrategy, cfg.TournamentSize)
	if err != nil {
		return nil, err
	}

	o := &Optimizer{
		cfg:       *cfg,
		observed:  append([]float64(nil), observed...),
		evaluator: evaluator,
		selector:  selector,
		rng:       utils.NewRandSource(cfg.RandomSeed),
		logger:    logger.Default,
		history:   make([]GenerationStats, 0, cfg.GenerationCount),
	}
	if strategy := NewConvergenceStrategy(cfg); strategy != nil {
		o.convergence = strategy
	}
	return o, nil
}

// WithEvaluator replaces the fitness evaluator; it must be safe for concurrent use when workers > 1
func (o *Optimizer) WithEvaluator(ev Evaluator) *Optimizer {
	o.evaluator = ev
	return o
}

// WithLogger sets the logger used for progress and evaluation failures
func (o *Optimizer) WithLogger(l *slog.Logger) *Optimizer {
	o.logger = l
	return o
}

// WithConvergence sets an early-stopping strategy, replacing the one derived from the configuration
func (o *Optimizer) WithConvergence(strategy ConvergenceStrategy) *Optimizer {
	o.convergence = strategy
	return o
}

// WithProgressReporter registers a callback invoked after every generation
func (o *Optimizer) WithProgressReporter(fn func(GenerationStats)) *Optimizer {
	o.progress = fn
	return o
}

// Config returns the configuration the optimizer was built with
func (o *Optimizer) Config() config.Calibration {
	return o.cfg
}

// Seed returns the random seed in use, which differs from the configured one when that was 0
func (o *Optimizer) Seed() int64 {
	return o.rng.Seed()
}

// Next runs one generation and reports it. It returns false once calibration has
// converged; generations already produced cannot be replayed.
func (o *Optimizer) Next() (GenerationStats, bool) {
	stats, ok := o.step()
	if ok && o.progress != nil {
		o.progress(stats)
	}
	return stats, ok
}

func (o *Optimizer) step() (GenerationStats, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.phase {
	case PhaseConverged:
		return GenerationStats{}, false
	case PhaseUninitialized:
		o.initialize()
	default:
		o.reproduce()
	}

	o.phase = PhaseEvaluating
	stats := o.evaluate()
	o.history = append(o.history, stats)
	o.generation++

	o.logger.Debug("generation evaluated",
		"generation", stats.Generation,
		"best_fitness", stats.BestFitness,
		"generation_best", stats.GenerationBest,
		"mean_fitness", stats.MeanFitness,
		"failures", stats.Failures)

	switch {
	case o.generation >= o.cfg.GenerationCount:
		o.finish("generation count reached")
	case o.convergence != nil:
		if converged, reason := o.convergence.CheckConvergence(o.history); converged {
			o.finish(reason)
		} else {
			o.phase = PhaseSelecting
		}
	default:
		o.phase = PhaseSelecting
	}

	return stats, true
}

// Train returns a single-use sequence of (generation index, best fitness so far).
// Each generation is computed only when the consumer asks for it. Breaking out of
// the loop leaves the optimizer where it stopped; a later Train call continues from there.
func (o *Optimizer) Train() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for {
			stats, ok := o.Next()
			if !ok || !yield(stats.Generation, stats.BestFitness) {
				return
			}
		}
	}
}

// Run drives calibration to convergence, checking ctx between generations
func (o *Optimizer) Run(ctx context.Context) ([]GenerationStats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return o.History(), err
		}
		if _, ok := o.Next(); !ok {
			return o.History(), nil
		}
	}
}

func (o *Optimizer) initialize() {
	size := o.cfg.PopulationSize
	o.population = make([]*Candidate, 0, size)
	if o.cfg.SeedLiterature {
		o.population = append(o.population, newCandidateFor(clampToBounds(models.LiteratureParams(), o.cfg.Bounds), &o.cfg))
	}
	for len(o.population) < size {
		o.population = append(o.population, newCandidateFor(sampleParams(o.cfg.Bounds, o.rng), &o.cfg))
	}
	o.phase = PhaseInitialized
}

// reproduce replaces the ranked population with elites followed by offspring
func (o *Optimizer) reproduce() {
	size := o.cfg.PopulationSize
	next := make([]*Candidate, 0, size)
	next = append(next, o.population[:o.cfg.ElitismCount]...)

	for len(next) < size {
		parent := o.selector.Select(o.population, o.rng)
		child := parent.Params()
		if o.rng.BernoulliBool(o.cfg.CrossoverRate) {
			other := o.selector.Select(o.population, o.rng)
			child = blendCrossover(child, other.Params(), o.rng)
		}
		child = gaussianMutation(child, o.cfg.MutationRate, o.cfg.MutationScale, o.cfg.Bounds, o.rng)

		// an unchanged copy keeps its parent's score
		offspring := parent.Clone()
		offspring.setParams(child)
		next = append(next, offspring)
	}

	o.population = next
}

// evaluate scores the population, ranks it and returns the generation summary
func (o *Optimizer) evaluate() GenerationStats {
	evaluated := evaluateAll(o.population, o.evaluator, o.observed, o.cfg.Workers)

	stats := GenerationStats{Generation: o.generation, Evaluations: len(evaluated)}
	for _, c := range evaluated {
		if err := c.Err(); err != nil {
			stats.Failures++
			o.logger.Warn("candidate evaluation failed",
				"generation", o.generation,
				"params", c.Params().String(),
				"error", err)
		}
	}

	o.rank()

	finite := make([]float64, 0, len(o.population))
	for _, c := range o.population {
		if f, _ := c.Fitness(); f < WorstFitness {
			finite = append(finite, f)
		}
	}
	switch len(finite) {
	case 0:
	case 1:
		stats.MeanFitness = finite[0]
	default:
		stats.MeanFitness, stats.StdDevFitness = stat.MeanStdDev(finite, nil)
	}

	stats.GenerationBest, _ = o.population[0].Fitness()
	stats.WorstFitness, _ = o.population[len(o.population)-1].Fitness()

	if o.best == nil {
		o.best = o.population[0].Clone()
	} else if bestFitness, _ := o.best.Fitness(); stats.GenerationBest < bestFitness {
		o.best = o.population[0].Clone()
	}
	stats.BestFitness, _ = o.best.Fitness()

	return stats
}

// rank sorts the population by ascending fitness; ties keep insertion order
func (o *Optimizer) rank() {
	sort.SliceStable(o.population, func(i, j int) bool {
		fi, _ := o.population[i].Fitness()
		fj, _ := o.population[j].Fitness()
		return fi < fj
	})
}

func (o *Optimizer) finish(reason string) {
	o.phase = PhaseConverged
	o.convergenceReason = reason
	best, _ := o.best.Fitness()
	o.logger.Info("calibration finished",
		"generations", o.generation,
		"best_fitness", best,
		"best_params", o.best.Params().String(),
		"reason", reason)
}

// BestModels returns the current population ranked best first. The candidates are
// copies; changing them does not affect the optimizer. Nil before the first generation.
func (o *Optimizer) BestModels() []*Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase == PhaseUninitialized {
		return nil
	}
	out := make([]*Candidate, len(o.population))
	for i, c := range o.population {
		out[i] = c.Clone()
	}
	return out
}

// Best returns a copy of the best candidate seen so far
func (o *Optimizer) Best() (*Candidate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.best == nil {
		return nil, false
	}
	return o.best.Clone(), true
}

// History returns the per-generation summaries produced so far
func (o *Optimizer) History() []GenerationStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]GenerationStats(nil), o.history...)
}

// Phase returns the current lifecycle state
func (o *Optimizer) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Generation returns how many generations have been evaluated
func (o *Optimizer) Generation() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// ConvergenceReason explains why calibration stopped; empty until it has
func (o *Optimizer) ConvergenceReason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.convergenceReason
}

// Compile-time check that the default evaluator satisfies Evaluator
var _ Evaluator = (*FitnessEvaluator)(nil)
