package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-campus/activitymap"
	"github.com/goliatone/go-campus/api"
	"github.com/goliatone/go-campus/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			if err := serveRun(cmd.Context(), cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	logger := commonRun(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sink := campus.MultiActivitySink{
		campus.NewMetrics(reg),
		activitymap.Sink(logger),
	}

	svc, err := api.NewServices(cfg, repo, logger, sink)
	if err != nil {
		return err
	}

	if cfg.BootstrapAdminUsername != "" {
		if err := seedBootstrapAdmin(ctx, repo, svc.Hasher, cfg, logger); err != nil {
			return err
		}
	}

	app := api.NewApp(svc, api.Options{
		Prefix:          cfg.APIPrefix,
		ProjectName:     cfg.ProjectName,
		Version:         Version,
		AllowedOrigins:  strings.Join(cfg.AllowedOriginList(), ","),
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		AccessLog:       true,
		Registerer:      reg,
		Gatherer:        reg,
		Logger:          logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "prefix", cfg.APIPrefix)
		errCh <- app.Listen(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func seedBootstrapAdmin(ctx context.Context, repo campus.RepositoryManager, hasher *campus.Hasher, cfg *config.Config, logger *slog.Logger) error {
	user, created, err := campus.SeedAdmin(ctx, repo, hasher, campus.SeedAdminMessage{
		Username: cfg.BootstrapAdminUsername,
		Password: cfg.BootstrapAdminPassword,
	})
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", "username", user.Username, "user_id", user.ID.String())
	}
	return nil
}
