package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fileuploader/uploadwatch/internal/devserver"
	"github.com/fileuploader/uploadwatch/internal/version"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "UPLOADWATCH"

// viper key -> flag name
var configFlags = map[string]string{
	"addr":           "bind",
	"db_path":        "db",
	"staging_dir":    "staging-dir",
	"batch_size":     "batch-size",
	"max_workers":    "max-workers",
	"retain_uploads": "retain-uploads",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "uploadserver",
		Short:        "Local batch upload server for uploadwatch",
		Version:      version.Detailed(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			srv, err := devserver.New(cfg)
			if err != nil {
				return err
			}

			slog.Info("uploadserver", "version", version.Short(), "addr", cfg.Addr, "db", cfg.DBPath)
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("bind", "b", devserver.DefaultAddr, "Address to bind the server")
	flags.String("db", devserver.DefaultDBPath, "SQLite database path, :memory: for a throwaway store")
	flags.String("staging-dir", "", "Directory for uploaded files awaiting processing (default: system temp)")
	flags.Int("batch-size", devserver.DefaultBatchSize, "Rows per insert batch")
	flags.Int("max-workers", devserver.DefaultMaxWorkers, "Files processed concurrently")
	flags.Int("retain-uploads", devserver.DefaultRetainUploads, "Finished uploads kept for late status subscribers")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*devserver.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for key, name := range configFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	cfg := devserver.DefaultConfig()
	cfg.Addr = v.GetString("addr")
	cfg.DBPath = v.GetString("db_path")
	cfg.StagingDir = v.GetString("staging_dir")
	cfg.BatchSize = v.GetInt("batch_size")
	cfg.MaxWorkers = v.GetInt("max_workers")
	cfg.RetainUploads = v.GetInt("retain_uploads")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
