package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/AssemSadek/habitat-sim2real/internal/logging"
	"github.com/AssemSadek/habitat-sim2real/internal/server"
	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/dataset"
	"github.com/AssemSadek/habitat-sim2real/pkg/episode"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
	"github.com/AssemSadek/habitat-sim2real/pkg/validation"
	"github.com/AssemSadek/habitat-sim2real/pkg/viewer"
)

var errInvalid = errors.New("configuration has validation errors")

type runOptions struct {
	configPath string
	episodes   int
	ratios     string
	overrides  []string
}

type generateOptions struct {
	runOptions
	goals   int
	seed    int64
	seedSet bool
}

type verifyOptions struct {
	datasetPath string
	configPath  string
	overrides   []string
	goals       int
	workers     int
}

// loadConfig loads the configuration, applies overrides and validates it.
func loadConfig(path string, overrides []string) (*config.Config, *validation.Report, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyOverrides(cfg, overrides); err != nil {
		return nil, nil, err
	}
	return cfg, validation.ValidateConfig(cfg), nil
}

// resolve loads the configuration and resolves the difficulty buckets. It
// fails before any scene is loaded.
func resolve(opts runOptions) (*config.Config, *validation.Report, []episode.Difficulty, error) {
	cfg, report, err := loadConfig(opts.configPath, opts.overrides)
	if err != nil {
		return nil, nil, nil, err
	}
	if !report.Valid {
		return cfg, report, nil, errInvalid
	}
	g := cfg.Generation
	ds, err := episode.ResolveDifficulties(opts.ratios, opts.episodes, g.DifficultyNames, g.DifficultyBounds)
	if err != nil {
		return cfg, report, nil, err
	}
	return cfg, report, ds, nil
}

func runValidate(opts runOptions) error {
	_, report, ds, err := resolve(opts)
	if report != nil {
		printValidationReport(report)
	}
	if err != nil {
		return err
	}
	fmt.Println()
	printDifficulties(ds)
	return nil
}

func runGenerate(opts generateOptions) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	if opts.goals <= 0 {
		return fmt.Errorf("%w: goals per episode must be > 0, got %d", episode.ErrInvalidConfiguration, opts.goals)
	}
	cfg, report, ds, err := resolve(opts.runOptions)
	if err != nil {
		if errors.Is(err, errInvalid) {
			printValidationReport(report)
		}
		return err
	}

	s, err := sim.Make(cfg.Simulator, cfg.ScenePath())
	if err != nil {
		return fmt.Errorf("initializing simulator: %w", err)
	}

	seed := opts.seed
	if !opts.seedSet {
		seed = 10000 + rand.New(rand.NewSource(time.Now().UnixNano())).Int63n(90000)
	}
	log.Info("starting generation",
		zap.Int64("seed", seed),
		zap.String("scene", cfg.ScenePath()),
		zap.Int("episodes", episode.Total(ds)),
		zap.Int("goals_per_episode", opts.goals))
	s.Seed(seed)
	rng := rand.New(rand.NewSource(seed))

	g := cfg.Generation
	height := s.AgentState().Position.Y
	nPoints := max((opts.goals+1)*opts.episodes, g.MinPoints)
	points, err := episode.SamplePoints(s, nPoints, episode.PointOptions{
		Height:          &height,
		Epsilon:         g.HeightEpsilon,
		MinIslandRadius: g.MinIslandRadius,
		MaxAttempts:     g.MaxPointAttempts,
	})
	if err != nil {
		return fmt.Errorf("sampling points: %w", err)
	}
	pairs := episode.BuildCandidatePairs(points)
	log.Info("candidate pairs ready", zap.Int("points", len(points)), zap.Int("pairs", len(pairs)))

	sampler := episode.NewSampler(s, rng, episode.Options{
		SceneID:         cfg.Simulator.Scene,
		GoalsPerEpisode: opts.goals,
		SuccessDistance: cfg.Task.Success.SuccessDistance,
		MinDistRatio:    g.MinDistRatio,
		MaxAttempts:     g.MaxAttempts,
		EpisodeRestarts: g.EpisodeRestarts,
		Logger:          log,
		Progress:        progressLogger(log),
	})
	episodes, err := sampler.Generate(points, pairs, ds)
	if err != nil {
		return fmt.Errorf("sampling episodes: %w", err)
	}

	path := dataset.OutputPath(cfg.Dataset.DataPath, cfg.Dataset.Split)
	if err := dataset.Write(path, &dataset.Dataset{Episodes: episodes}); err != nil {
		return err
	}
	log.Info("dataset written", zap.String("path", path), zap.Int("episodes", len(episodes)))

	printSummary(ds, episodes, path)
	return nil
}

// progressLogger logs once per completed tenth of the run.
func progressLogger(log *zap.Logger) func(done, total int) {
	last := 0
	return func(done, total int) {
		decile := done * 10 / total
		if decile == last {
			return
		}
		last = decile
		log.Info("progress", zap.Int("done", done), zap.Int("total", total))
	}
}

func runVerify(opts verifyOptions) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	raw, err := dataset.ReadRaw(opts.datasetPath)
	if err != nil {
		return err
	}
	report := validation.NewReport()
	if err := dataset.ValidateBytes(raw); err != nil {
		report.AddError(validation.Result{
			Level:   validation.LevelDataset,
			Message: err.Error(),
			Path:    opts.datasetPath,
		})
		printValidationReport(report)
		return fmt.Errorf("dataset %s failed schema validation", opts.datasetPath)
	}
	d, err := dataset.Read(opts.datasetPath)
	if err != nil {
		return err
	}

	cfg, cfgReport, err := loadConfig(opts.configPath, opts.overrides)
	if err != nil {
		return err
	}
	if !cfgReport.Valid {
		printValidationReport(cfgReport)
		return errInvalid
	}
	ds, err := episode.Buckets(cfg.Generation.DifficultyNames, cfg.Generation.DifficultyBounds)
	if err != nil {
		return err
	}
	s, err := sim.Make(cfg.Simulator, cfg.ScenePath())
	if err != nil {
		return fmt.Errorf("initializing simulator: %w", err)
	}

	log.Info("verifying dataset", zap.String("path", opts.datasetPath), zap.Int("episodes", len(d.Episodes)))
	dsReport, err := episode.Verify(context.Background(), s, d.Episodes, ds, episode.VerifyOptions{
		GoalsPerEpisode: opts.goals,
		MinDistRatio:    cfg.Generation.MinDistRatio,
		Workers:         opts.workers,
	})
	if err != nil {
		return err
	}
	report.Merge(dsReport)
	printValidationReport(report)
	if !report.Valid {
		return fmt.Errorf("dataset %s has %d errors", opts.datasetPath, len(report.Errors))
	}
	return nil
}

func runPublish(ctx context.Context, path, key, envFile string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	if _, err := dataset.ReadRaw(path); err != nil {
		return err
	}
	store, err := dataset.LoadStoreConfig(envFile)
	if err != nil {
		return fmt.Errorf("object store settings: %w", err)
	}
	pub, err := dataset.NewPublisher(store)
	if err != nil {
		return err
	}
	if key == "" {
		key = dataset.ObjectKey(path)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log.Info("publishing dataset", zap.String("path", path), zap.String("bucket", store.Bucket), zap.String("key", key))
	up, err := pub.Publish(ctx, path, key)
	if err != nil {
		return err
	}
	printUpload(up)
	return nil
}

func runServe(configPath string, overrides []string, port int) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, report, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return errInvalid
	}
	s, err := sim.Make(cfg.Simulator, cfg.ScenePath())
	if err != nil {
		return fmt.Errorf("initializing simulator: %w", err)
	}

	v := viewer.New(s, cfg.Simulator, log)
	return server.New(v, port, log).Start()
}
