// noesis server: hosts the knowledge-session REST/SSE API, drives agent
// turns against the Messages API, and persists sessions in PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/noesis-forge/noesis/pkg/agent/research"
	"github.com/noesis-forge/noesis/pkg/agent/runner"
	"github.com/noesis-forge/noesis/pkg/api"
	"github.com/noesis-forge/noesis/pkg/cleanup"
	"github.com/noesis-forge/noesis/pkg/config"
	"github.com/noesis-forge/noesis/pkg/database"
	"github.com/noesis-forge/noesis/pkg/llm"
	"github.com/noesis-forge/noesis/pkg/services"
	"github.com/noesis-forge/noesis/pkg/store"
	"github.com/noesis-forge/noesis/pkg/translate"
	"github.com/noesis-forge/noesis/pkg/version"
)

const shutdownTimeout = 10 * time.Second

// setupLogging installs the process-wide slog handler per LOG_LEVEL and
// LOG_FORMAT.
func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	// Load .env when present; deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log)

	slog.Info("Starting noesis",
		"version", version.Full(),
		"listen_addr", cfg.Server.ListenAddr,
		"primary_model", cfg.LLM.PrimaryModel,
		"research_model", cfg.LLM.ResearchModel,
		"max_rounds", cfg.Session.MaxRounds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Connect to PostgreSQL and apply embedded migrations.
	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	slog.Info("Connected to PostgreSQL")

	st := store.New(dbClient.Pool())

	llmClient, err := llm.NewAnthropicClient(cfg.LLM)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	detector := translate.NewDetector()
	translator := translate.NewTranslator(llmClient, cfg.LLM.ResearchModel)
	researcher := research.NewSubAgent(llmClient, cfg.LLM.ResearchModel)

	turnRunner := runner.New(runner.Config{
		Store:         st,
		Client:        llmClient,
		Translator:    translator,
		Detector:      detector,
		Model:         cfg.LLM.PrimaryModel,
		ContextWindow: cfg.LLM.ContextWindow(),
	})

	sessionService := services.NewSessionService(services.Config{
		Store:     st,
		Runner:    turnRunner,
		Research:  researcher,
		Detector:  detector,
		MaxRounds: cfg.Session.MaxRounds,
	})

	sweeper := cleanup.NewService(cfg.Cleanup, st)
	if cfg.Cleanup.Enabled {
		sweeper.Start(ctx)
	}

	server := api.NewServer(cfg.Server, sessionService, dbClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", cfg.Server.ListenAddr)
		return server.Start(gctx)
	})
	g.Go(func() error {
		// Wait for a shutdown signal or a listener failure, then drain
		// in-flight requests. Active SSE streams end when their turn
		// finishes or the client disconnects.
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
	}

	sweeper.Stop()
	slog.Info("Shutdown complete")
}
