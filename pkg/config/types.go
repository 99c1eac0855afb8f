package config

import "github.com/GoSim-25-26J-441/epicast/pkg/models"

// Calibration configures a calibration run of the SEIR model against observed cases
type Calibration struct {
	PopulationSize    int          `yaml:"population_size"`
	GenerationCount   int          `yaml:"generation_count"`
	MutationRate      float64      `yaml:"mutation_rate"`  // per-gene probability of perturbation
	MutationScale     float64      `yaml:"mutation_scale"` // sigma as a fraction of the bound width
	CrossoverRate     float64      `yaml:"crossover_rate"`
	SelectionStrategy string       `yaml:"selection_strategy"` // tournament, roulette, rank
	TournamentSize    int          `yaml:"tournament_size"`
	ElitismCount      int          `yaml:"elitism_count"`
	RandomSeed        int64        `yaml:"random_seed"` // 0 = seed from clock
	Workers           int          `yaml:"workers"`
	StagnationLimit   int          `yaml:"stagnation_limit"` // 0 = run every generation
	Convergence       Convergence  `yaml:"convergence"`
	SeedLiterature    bool         `yaml:"seed_literature"`
	Fitness           Fitness      `yaml:"fitness"`
	InitialState      models.State `yaml:"initial_state"`
	Bounds            Bounds       `yaml:"bounds"`
	Solver            Solver       `yaml:"solver"`
}

// Fitness selects how simulated and observed series are compared
type Fitness struct {
	Metric     string            `yaml:"metric"` // sse, relative, log
	Observable models.Observable `yaml:"observable"`
}

// Convergence tunes early stopping. stagnation_limit and plateau_generations
// may both be set, in which case the first to fire stops the run.
type Convergence struct {
	PlateauGenerations int     `yaml:"plateau_generations"` // 0 = off, otherwise at least 2
	PlateauTolerance   float64 `yaml:"plateau_tolerance"`   // relative spread of best fitness
	MinGenerations     int     `yaml:"min_generations"`
}

// Range is a closed interval [Min, Max]
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Width returns Max-Min
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Contains reports whether v lies in the interval
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Bounds is the parameter space searched during calibration
type Bounds struct {
	R0                 Range `yaml:"r0"`
	Effectiveness      Range `yaml:"effectiveness"`
	InterventionDay    Range `yaml:"intervention_day"`
	MeanIncubationTime Range `yaml:"mean_incubation_time"`
	MeanRemoveTime     Range `yaml:"mean_remove_time"`
}

// Solver holds the error tolerances of the adaptive integrator
type Solver struct {
	RelTol float64 `yaml:"rel_tol"`
	AbsTol float64 `yaml:"abs_tol"`
}

// Selection strategy names
const (
	SelectionTournament = "tournament"
	SelectionRoulette   = "roulette"
	SelectionRank       = "rank"
)

// Fitness metric names
const (
	MetricSSE      = "sse"
	MetricRelative = "relative"
	MetricLog      = "log"
)

// DefaultSolver returns tolerances tight enough to keep population totals within 1e-9 relative error
func DefaultSolver() Solver {
	return Solver{RelTol: 1e-8, AbsTol: 1e-6}
}

// DefaultBounds returns a prior wide enough to contain published COVID-19 estimates
func DefaultBounds() Bounds {
	return Bounds{
		R0:                 Range{Min: 1.0, Max: 6.0},
		Effectiveness:      Range{Min: 0, Max: 1},
		InterventionDay:    Range{Min: 0, Max: 120},
		MeanIncubationTime: Range{Min: 2, Max: 14},
		MeanRemoveTime:     Range{Min: 1, Max: 10},
	}
}

// DefaultCalibration returns the configuration used when no file is supplied
func DefaultCalibration() *Calibration {
	return &Calibration{
		PopulationSize:    20,
		GenerationCount:   100,
		MutationRate:      0.2,
		MutationScale:     0.1,
		CrossoverRate:     0.7,
		SelectionStrategy: SelectionTournament,
		TournamentSize:    3,
		ElitismCount:      2,
		RandomSeed:        42,
		Workers:           1,
		SeedLiterature:    true,
		Fitness: Fitness{
			Metric:     MetricSSE,
			Observable: models.ObservableInfectiousRemoved,
		},
		InitialState: models.DefaultInitialState(),
		Bounds:       DefaultBounds(),
		Solver:       DefaultSolver(),
		Convergence: Convergence{
			PlateauTolerance: 1e-6,
			MinGenerations:   1,
		},
	}
}
