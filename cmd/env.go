package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizforge/internal/config"
	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/logging"
	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/store"
)

// env is the per-command runtime: configuration, logger and database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// loadEnv reads configuration and opens the database.
func loadEnv(cmd *cobra.Command) (*env, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		settings.SetConfigFile(p)
	}
	cfg, err := config.Load(settings)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if src := cfg.Source(); src != "" {
		logger.Debug("loaded config", zap.String("path", src))
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &env{cfg: cfg, logger: logger, store: s}, nil
}

func (e *env) Close() {
	_ = e.logger.Sync()
	_ = e.store.Close()
}

// newService wires provider middleware, the LLM client and the pipeline.
func (e *env) newService(ctx context.Context, captureBodies bool) (*quizgen.Service, error) {
	if err := e.cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, llm.Options{
		EventRepo: e.store.EventRepo(),
		Logger:    e.logger.Named("llm"),
		Logging:   llm.LoggingOptions{CaptureBodies: captureBodies},
	})
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	client := quizgen.NewLLMClient(provider, quizgen.LLMClientOptions{
		CallTimeout: e.cfg.Generation.CallTimeout,
		MaxTokens:   e.cfg.LLM.MaxTokens,
		Temperature: e.cfg.LLM.Temperature,
	})
	e.logger.Debug("generation client ready",
		zap.String("provider", e.cfg.LLM.Provider),
		zap.String("model", client.ModelID()),
	)
	return quizgen.New(client, e.cfg.Generation, quizgen.WithLogger(e.logger.Named("quizgen")))
}

// resolveDBPath returns the database path using --db / db config first,
// then QUIZFORGE_DB, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}
