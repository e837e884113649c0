package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"padel-assistant/internal/app"
	"padel-assistant/internal/config"
	"padel-assistant/internal/playtomic"
	"padel-assistant/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock, err := app.NewClubTime(cfg.ClubTimezone)
	if err != nil {
		logger.Error("invalid club timezone", "error", err)
		os.Exit(1)
	}

	gateway := playtomic.New(playtomic.Config{
		APIURL:          cfg.APIURL,
		PublicAPIURL:    cfg.PublicAPIURL,
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		Timeout:         cfg.Timeout,
		TokenMargin:     cfg.TokenMargin,
		PageSize:        cfg.PageSize,
		PlayersPageSize: cfg.PlayersPageSize,
	})

	toolbox := app.NewToolbox(gateway, clock, app.ToolboxConfig{
		TenantID: cfg.TenantID,
		VenueID:  cfg.VenueID,
		SportID:  cfg.SportID,
		Currency: cfg.Currency,
	}, logger.With("component", "tools"))

	application := &app.App{
		Gateway:  gateway,
		TenantID: cfg.TenantID,
		Log:      logger,
	}

	opts := app.AgentOptions{
		Prompt: func(now time.Time) string {
			return app.SystemPrompt(app.PromptInfo{
				ClubName: cfg.ClubName,
				TenantID: cfg.TenantID,
				Currency: cfg.Currency,
				Clock:    clock,
				Now:      now,
			})
		},
		MaxIterations:   cfg.MaxIterations,
		ToolConcurrency: cfg.ToolConcurrency,
		Logger:          logger.With("component", "agent"),
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to db", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := &app.AuditStore{DB: pool}
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare audit table", "error", err)
			os.Exit(1)
		}
		opts.Recorder = store
		application.Turns = store
		logger.Info("turn audit log enabled")
	}

	model := app.NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAITimeout)
	application.Agent = app.NewAgent(model, toolbox, opts)

	router := server.NewRouter(logger, cfg.CORSOrigins)
	var auth gin.HandlerFunc
	if cfg.AuthEnabled() {
		auth = app.AuthMiddleware(cfg.StaticTokens, cfg.JWTSecret)
	} else {
		logger.Warn("chat API has no authentication; set STATIC_TOKENS or JWT_HMAC_SECRET")
	}
	application.Routes(router, auth)

	logger.Info("padel assistant ready",
		"club", cfg.ClubName,
		"tenant_id", cfg.TenantID,
		"timezone", clock.Zone(),
		"model", cfg.OpenAIModel,
	)

	// A turn may take MaxIterations model calls plus the tool fetches between them.
	writeTimeout := time.Duration(cfg.MaxIterations)*(cfg.OpenAITimeout+cfg.Timeout) + 15*time.Second
	if err := server.Run(ctx, router, ":"+cfg.Port, writeTimeout, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

func setupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
