package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/elocute/internal/app"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/observe"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the practice page and API",
		Long: `Serve the practice page, the capture websocket and the analysis API.

Without a config file the built-in defaults are used: the mock analyzer,
recordings and history under ./recordings, visemes under ./visemes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, watch && cmd.Flags().Changed("config"))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().BoolVar(&watch, "watch", true, "apply edits of the config file without a restart")
	return cmd
}

func serve(parent context.Context, configPath string, watch bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found", configPath)
		}
		if err != nil {
			return err
		}
	}

	var level slog.LevelVar
	level.Set(app.LevelFor(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: Version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	slog.Info("elocute starting",
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"analyzer", cfg.Analyzer.Name,
		"coach", cfg.Coach.Name,
		"history", cfg.History.Backend,
	)

	opts := []app.Option{app.WithLevelVar(&level)}
	var application *app.App
	if watch {
		w, err := config.NewWatcher(configPath, func(old, next *config.Config, d config.ConfigDiff) {
			application.ApplyConfig(old, next, d)
		})
		if err != nil {
			return err
		}
		opts = append(opts, app.WithWatcher(w))
	}

	application, err = app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	runErr := application.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}
