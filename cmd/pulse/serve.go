package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/covergrid/pulse/internal/api"
	"github.com/covergrid/pulse/internal/app"
	"github.com/covergrid/pulse/internal/archive"
	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/assistant/factory"
	"github.com/covergrid/pulse/internal/auth"
	"github.com/covergrid/pulse/internal/config"
	"github.com/covergrid/pulse/internal/logger"
	"github.com/covergrid/pulse/internal/metrics"
	"github.com/covergrid/pulse/internal/notify"
	"github.com/covergrid/pulse/internal/sheets"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pulse server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting Pulse server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("poll_interval", cfg.Sheets.PollInterval),
	)

	sheetsClient := sheets.NewClient(sheets.Config{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		APIKey:        cfg.Sheets.APIKey,
		BaseURL:       cfg.Sheets.BaseURL,
		Timeout:       cfg.Sheets.Timeout,
	})

	application := app.New(cfg, sheetsClient, logger.Named(log, "app"))

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		application.SetMetrics(reg)
	}

	if cfg.Archive.Enabled {
		store, err := newArchiveStore(cfg)
		if err != nil {
			return fmt.Errorf("creating archive store: %w", err)
		}
		application.SetArchive(store)
	}

	if cfg.Alerts.Enabled {
		webhook, err := notify.NewWebhook(cfg.Alerts.WebhookURL, cfg.Alerts.Headers)
		if err != nil {
			return fmt.Errorf("creating alert webhook: %w", err)
		}
		application.SetAlerter(webhook)
	}

	chatService, err := newChatService(cfg, log)
	if err != nil {
		return err
	}

	authService, err := newAuthService(cfg, sheetsClient, log)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		APIKey: cfg.Server.APIKey,
	}, api.Deps{
		Content:   application,
		Assistant: chatService,
		Auth:      authService,
		Metrics:   reg,
	}, logger.Named(log, "api"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Refresh loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := application.Start(ctx); err != nil && err != context.Canceled {
			log.Error("refresh loop error", zap.Error(err))
		}
	}()

	// HTTP server
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down Pulse server")
	application.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newArchiveStore(cfg *config.Config) (archive.Store, error) {
	switch cfg.Archive.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Archive.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Archive.Type)
	}
}

// newChatService returns nil when no provider is configured; the chat
// route then answers 503.
func newChatService(cfg *config.Config, log *zap.Logger) (*assistant.Service, error) {
	if cfg.Assistant.Provider == "" {
		log.Warn("no assistant provider configured, chat endpoint disabled")
		return nil, nil
	}

	provider, err := factory.New(cfg.Assistant)
	if err != nil {
		return nil, fmt.Errorf("creating assistant provider: %w", err)
	}

	fallback := ""
	if cfg.Assistant.Provider == "openai" {
		fallback = cfg.Assistant.OpenAI.FallbackModel
	}
	return assistant.NewService(provider, fallback, logger.Named(log, "assistant")), nil
}

func newAuthService(cfg *config.Config, fetcher auth.RangeFetcher, log *zap.Logger) (*auth.Service, error) {
	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token issuer: %w", err)
	}

	// Sheet lookups only work in API mode.
	var sheetFetcher auth.RangeFetcher
	if cfg.Sheets.SpreadsheetID != "" {
		sheetFetcher = fetcher
	}

	return auth.NewService(sheetFetcher, cfg.Sheets.UsersRange, cfg.Auth.DemoAccounts,
		issuer, logger.Named(log, "auth")), nil
}
