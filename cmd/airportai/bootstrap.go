package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/airportai/internal/adapters/driven/ai"
	"github.com/custodia-labs/airportai/internal/adapters/driven/config/file"
	"github.com/custodia-labs/airportai/internal/adapters/driven/index/inverted"
	"github.com/custodia-labs/airportai/internal/adapters/driven/logging/zaplog"
	"github.com/custodia-labs/airportai/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/airportai/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/airportai/internal/adapters/driving/cli"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/core/services"
	"github.com/custodia-labs/airportai/internal/logger"
)

// bootstrap wires the adapters and services for one CLI invocation.
func bootstrap(ctx context.Context, flags cli.GlobalFlags) (_ *cli.Services, err error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll()
		}
	}()

	// Settings: config.toml with this run's flag overrides layered on top.
	base, err := file.NewConfigStore(flags.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	config := memory.NewOverlay(base)
	applyOverrides(config, flags)

	settingsService := services.NewSettingsService(config, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	logger.SetVerbose(settings.Log.Verbose)
	var log driven.Logger = logger.Std()
	if settings.Log.JSON {
		zl, err := zaplog.New(settings.Log.Verbose)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() error { _ = zl.Sync(); return nil })
		log = zl
	}

	// Prompts: user overrides next to config.toml, embedded defaults otherwise.
	promptDir := ""
	if flags.ConfigDir != "" {
		promptDir = filepath.Join(flags.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}
	watcher, err := file.NewWatcher(log)
	if err != nil {
		return nil, fmt.Errorf("starting file watcher: %w", err)
	}
	closers = append(closers, watcher.Stop)
	if err := watcher.WatchPrompts(prompts); err != nil {
		log.Debug("prompt directory not watched", "error", err)
	}

	llm := ai.Init(ctx, &settings.LLM, ai.Options{
		RecordFile:  flags.RecordFile,
		PromptStore: prompts,
		Logger:      log,
	})
	closers = append(closers, llm.Close)
	for _, w := range llm.Warnings {
		log.Warn("LLM unavailable, running degraded", "reason", w)
	}

	// Airport data: a YAML seed served from memory, else the SQLite database.
	var data driven.AirportData
	var seedStore *memory.AirportStore
	if settings.Data.SeedFile != "" {
		snap, err := memory.LoadSeedFile(settings.Data.SeedFile)
		if err != nil {
			return nil, err
		}
		seedStore = memory.NewAirportStore(snap)
		data = seedStore
	} else {
		store, err := sqlite.NewStore(settings.Data.DataDir)
		if err != nil {
			return nil, err
		}
		closers = append(closers, store.Close)
		data = store
	}

	clock := driven.ClockFunc(time.Now)
	index := inverted.New(inverted.ConfigFromSettings(settings.Index))
	vocab := services.NewVocabularyCache(data, settings.Pipeline.EntityCacheTTL, clock, log)
	knowledge := services.NewKnowledgeIndexer(data, index, vocab, log)

	times := services.NewTimeResolver(services.TimeResolverConfig{
		Location:   airportLocation(ctx, data, log),
		LLMTimeout: settings.LLM.Timeout,
	}, llm.Capabilities, clock)

	agent := services.NewAgentService(services.AgentConfigFromSettings(*settings), services.AgentDeps{
		Normalizer: services.NewNormalizer(clock),
		Extractor: services.NewExtractor(services.ExtractorConfig{
			IntentConfidenceThreshold: settings.Pipeline.IntentConfidenceThreshold,
			EntityConfidenceThreshold: settings.Pipeline.EntityConfidenceThreshold,
			IntentTimeout:             settings.LLM.IntentTimeout,
		}, services.NewPatternMatcher(nil), times, vocab, llm.Capabilities, clock, log),
		Retriever: services.NewRetriever(services.RetrieverConfig{
			ContextualLimit:     settings.Pipeline.ContextualLimit,
			ContextualThreshold: settings.Pipeline.ContextualThreshold,
		}, data, index, log),
		Verifier:   services.NewVerifier(services.VerifierConfig{
			Strict:      settings.Verification.Strict,
			CallTimeout: settings.LLM.Timeout,
		}, llm.Capabilities, log),
		Actions:    services.NewActionMapper(),
		Times:      times,
		Vocabulary: vocab,
		Metrics:    services.NewMetrics(),
		LLM:        llm.Capabilities,
		Clock:      clock,
		Logger:     log,
	})

	// Loading the vocabulary also fills the knowledge index.
	if err := vocab.Refresh(ctx); err != nil {
		log.Warn("initial vocabulary load failed", "error", err)
	}

	if seedStore != nil {
		seedPath := settings.Data.SeedFile
		if err := watcher.WatchFile(seedPath, func() { reloadSeed(ctx, seedStore, vocab, seedPath, log) }); err != nil {
			log.Debug("seed file not watched", "error", err)
		}
	}
	watcher.Start(ctx)

	return &cli.Services{
		Agent:      agent,
		Knowledge:  knowledge,
		Settings:   settingsService,
		ImportSeed: importer(settings.Data.DataDir),
		Close:      closeAll,
	}, nil
}

// applyOverrides shadows stored settings with this run's flags.
func applyOverrides(config *memory.ConfigStore, flags cli.GlobalFlags) {
	if flags.Provider != "" {
		config.Override("llm.provider", flags.Provider)
	}
	if flags.Model != "" {
		config.Override("llm.default_model", flags.Model)
	}
	if flags.ReplayFile != "" {
		config.Override("llm.provider", string(domain.AIProviderReplay))
		config.Override("llm.replay_file", flags.ReplayFile)
	}
	if flags.SeedFile != "" {
		config.Override("data.seed_file", flags.SeedFile)
	}
	if flags.DataDir != "" {
		config.Override("data.dir", flags.DataDir)
	}
	if flags.Verbose {
		config.Override("log.verbose", true)
	}
	if flags.LogJSON {
		config.Override("log.json", true)
	}
}

// airportLocation is the airport's configured zone, or the local zone.
func airportLocation(ctx context.Context, data driven.AirportData, log driven.Logger) *time.Location {
	ops, err := data.GetOperationalSettings(ctx)
	if err != nil || ops.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(ops.TimeZone)
	if err != nil {
		log.Warn("unknown airport time zone, using local", "zone", ops.TimeZone, "error", err)
		return time.Local
	}
	return loc
}

// reloadSeed swaps the in-memory data for the edited seed file.
func reloadSeed(ctx context.Context, store *memory.AirportStore, vocab *services.VocabularyCache, path string, log driven.Logger) {
	snap, err := memory.LoadSeedFile(path)
	if err != nil {
		log.Warn("seed reload failed, keeping previous data", "path", path, "error", err)
		return
	}
	store.Replace(snap)
	if err := vocab.Refresh(ctx); err != nil {
		log.Warn("vocabulary refresh after seed reload failed", "error", err)
		return
	}
	log.Info("seed reloaded", "path", path)
}

// importer loads a seed file into the SQLite database in dataDir.
func importer(dataDir string) func(ctx context.Context, path string) error {
	return func(ctx context.Context, path string) error {
		snap, err := memory.LoadSeedFile(path)
		if err != nil {
			return err
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Import(ctx, snap)
	}
}
