package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sqlchat/sqlchat/internal/config"
	"github.com/sqlchat/sqlchat/internal/dataset"
	"github.com/sqlchat/sqlchat/internal/handler"
	"github.com/sqlchat/sqlchat/internal/llm"
	"github.com/sqlchat/sqlchat/internal/observability"
	"github.com/sqlchat/sqlchat/internal/service/chatbot"
	"github.com/sqlchat/sqlchat/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, continuing with system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.Observability.LogLevel, cfg.Observability.LogJSON)
	slog.SetDefault(logger)

	data, err := dataset.Open(ctx, cfg.Dataset.Name, cfg.Dataset.Driver, cfg.Dataset.DSN)
	if err != nil {
		logger.Error("failed to open dataset", "error", err)
		os.Exit(1)
	}
	defer data.Close()

	registry := dataset.NewRegistry()
	if err := registry.Register(data); err != nil {
		logger.Error("failed to register dataset", "error", err)
		os.Exit(1)
	}

	sessions, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open conversation store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	var bot *chatbot.Service
	if client, err := newLLMClient(ctx, cfg.LLM); err != nil {
		logger.Warn("chat provider unavailable, /api/chat will return 503", "error", err)
	} else {
		delay := time.Duration(cfg.LLM.DelayMS) * time.Millisecond
		bot, err = chatbot.New(ctx, client, data, sessions, delay, logger)
		if err != nil {
			logger.Error("failed to initialize chatbot", "error", err)
			os.Exit(1)
		}
		logger.Info("chatbot initialized",
			"provider", client.Provider(),
			"model", client.Model(),
			"session_id", bot.SessionID(),
		)
	}

	router := handler.NewRouter(bot, registry, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return llm.NewArkClient(ctx, llm.ArkConfig{
			APIKey:      cfg.ArkAPIKey,
			AccessKey:   cfg.ArkAccessKey,
			SecretKey:   cfg.ArkSecretKey,
			Model:       cfg.Model,
			BaseURL:     cfg.ArkBaseURL,
			Region:      cfg.ArkRegion,
			Temperature: cfg.ArkTemperature,
			MaxTokens:   cfg.ArkMaxTokens,
		})
	default:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("sqlchat backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
