package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/GoSim-25-26J-441/epicast/internal/casedata"
	"github.com/GoSim-25-26J-441/epicast/internal/improvement"
	"github.com/GoSim-25-26J-441/epicast/internal/plot"
	"github.com/GoSim-25-26J-441/epicast/internal/seir"
	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/logger"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

type options struct {
	days          int
	r0            float64
	lockdown      int
	effectiveness float64
	verbose       bool
	logFormat     string
	dbPath        string
	importCSV     string
	country       string
	kind          string
	configPath    string
	outDir        string
	modelFile     string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	literature := models.LiteratureParams()
	o := &options{}

	fs := flag.NewFlagSet("epicast", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&o.days, "days", 0, "number of days to forecast (required)")
	fs.Float64Var(&o.r0, "R0", literature.R0, "basic reproduction number of the literature model")
	fs.IntVar(&o.lockdown, "lockdown", literature.InterventionDay, "day the lockdown starts")
	fs.Float64Var(&o.effectiveness, "effectiveness", literature.Effectiveness, "fractional reduction of transmission under lockdown")
	fs.BoolVar(&o.verbose, "v", false, "log per-generation details")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format (text, json)")
	fs.StringVar(&o.dbPath, "db", "cases.sqlite3", "case-count database")
	fs.StringVar(&o.importCSV, "import", "", "CSV file (country,day,count) to load into the database first")
	fs.StringVar(&o.country, "country", "Italy", "country whose cases are fitted")
	fs.StringVar(&o.kind, "kind", casedata.KindConfirmed, "case kind to fit")
	fs.StringVar(&o.configPath, "config", "", "calibration configuration (YAML); defaults are used when empty")
	fs.StringVar(&o.outDir, "out", ".", "directory for charts and the model file")
	fs.StringVar(&o.modelFile, "model-file", "best_model.yaml", "file the calibrated model is written to, relative to -out")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &models.InvalidInputError{Reason: err.Error()}
	}

	if o.days <= 0 {
		return nil, &models.InvalidInputError{Reason: fmt.Sprintf("-days must be positive, got %d", o.days)}
	}
	if o.logFormat != "text" && o.logFormat != "json" {
		return nil, &models.InvalidInputError{Reason: fmt.Sprintf("unknown -log-format %q", o.logFormat)}
	}
	return o, nil
}

func (o *options) outPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.outDir, name)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", models.Kind(err), err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.logFormat == "json" {
		logger.SetDefault(logger.New(logger.Verbosity(opts.verbose), stderr))
	} else {
		logger.SetDefault(logger.NewText(logger.Verbosity(opts.verbose), stderr))
	}

	cfg := config.DefaultCalibration()
	if opts.configPath != "" {
		if cfg, err = config.LoadCalibration(opts.configPath); err != nil {
			return err
		}
	}
	if data, err := config.MarshalCalibration(cfg); err == nil {
		logger.Debug("effective calibration", "config", string(data))
	}

	observed, err := loadCases(ctx, opts)
	if err != nil {
		return err
	}
	if opts.days < len(observed) {
		logger.Warn("forecast horizon is shorter than the observed series", "days", opts.days, "observed", len(observed))
	}
	casesFile := opts.outPath(fmt.Sprintf("%s_%s.png", strings.ToLower(opts.country), opts.kind))
	if err := plot.Lines(plot.Range(len(observed)), [][]float64{observed},
		[]plot.Style{{Color: "red", Label: fmt.Sprintf("total_%s_in_%s", opts.kind, strings.ToLower(opts.country))}},
		casesFile, plot.WithTitle(fmt.Sprintf("%s %s cases", opts.country, opts.kind))); err != nil {
		return err
	}
	logger.Info("observed cases plotted", "country", opts.country, "kind", opts.kind, "days", len(observed), "file", casesFile)

	t := seir.Days(opts.days)
	literature := models.Params{
		R0:                 opts.r0,
		Effectiveness:      opts.effectiveness,
		InterventionDay:    opts.lockdown,
		MeanIncubationTime: models.LiteratureParams().MeanIncubationTime,
		MeanRemoveTime:     models.LiteratureParams().MeanRemoveTime,
	}
	literatureModel := seir.NewModel(literature, seir.WithInitialState(cfg.InitialState), seir.WithSolver(cfg.Solver))
	if err := forecast(literatureModel, t, cfg.Fitness.Observable, opts.outPath("literature_model.png"), "Literature model"); err != nil {
		return err
	}
	logger.Info("literature forecast written", "params", literature.String())

	return calibrate(ctx, opts, cfg, observed, t)
}

func loadCases(ctx context.Context, opts *options) ([]float64, error) {
	store, err := casedata.Open(opts.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if opts.importCSV != "" {
		f, err := os.Open(opts.importCSV)
		if err != nil {
			return nil, &models.IOError{Op: "read", Path: opts.importCSV, Err: err}
		}
		defer f.Close()
		n, err := store.ImportCSV(ctx, f, opts.kind)
		if err != nil {
			return nil, err
		}
		logger.Info("cases imported", "file", opts.importCSV, "records", n)
	}

	observed, err := store.CasesByCountry(ctx, opts.kind, opts.country)
	var input *models.InvalidInputError
	if errors.As(err, &input) {
		if countries, cerr := store.Countries(ctx, opts.kind); cerr == nil && len(countries) > 0 && !slices.Contains(countries, opts.country) {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("%s (recorded: %s)", input.Reason, strings.Join(countries, ", "))}
		}
	}
	return observed, err
}

func calibrate(ctx context.Context, opts *options, cfg *config.Calibration, observed []float64, t []float64) error {
	optimizer, err := improvement.NewOptimizer(observed, cfg)
	if err != nil {
		return err
	}
	log := logger.With("country", opts.country, "kind", opts.kind)
	log.Info("start fitting",
		"population", cfg.PopulationSize,
		"generations", cfg.GenerationCount,
		"selection", cfg.SelectionStrategy,
		"seed", optimizer.Seed(),
		"workers", cfg.Workers)

	for idx, best := range optimizer.Train() {
		log.Info("generation complete", "generation", idx, "best_fitness", utils.Round(best, 2))
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	best := optimizer.BestModels()[0]
	fitness, _ := best.Fitness()
	if fitness >= improvement.WorstFitness {
		return &models.InvalidInputError{Reason: "every candidate failed to evaluate; no model to write"}
	}
	if history := optimizer.History(); len(history) > 0 && history[len(history)-1].Failures > 0 {
		log.Warn("some candidates failed to evaluate", "failures", history[len(history)-1].Failures)
	}

	modelFile := opts.outPath(opts.modelFile)
	if err := best.Dump(modelFile, cfg); err != nil {
		return err
	}
	log.Info("best model written", "file", modelFile, "fitness", fitness, "params", best.Params().String())

	return forecast(best.Model(), t, cfg.Fitness.Observable, opts.outPath("best_model.png"), "Best model")
}

// forecast simulates model over t and charts the fitted observable
func forecast(model *seir.Model, t []float64, observable models.Observable, file, title string) error {
	traj, err := model.Simulate(t)
	if err != nil {
		return err
	}
	series, err := traj.Observed(observable)
	if err != nil {
		return err
	}
	return plot.Lines(t, [][]float64{series}, []plot.Style{{Color: "red", Label: "total_infected"}}, file, plot.WithTitle(title))
}
