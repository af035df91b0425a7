package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>...",
		Short: "Upload CSV files and watch them being processed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := uploadsdk.ValidateFiles(args); err != nil {
				return err
			}

			r, err := newBatchRunner(cfg)
			if err != nil {
				return err
			}
			r.paths = args
			return runSession(cmd, cfg, r)
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <upload_id>",
		Short: "Watch the processing of an upload that was already submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			r, err := newBatchRunner(cfg)
			if err != nil {
				return err
			}
			r.uploadID = args[0]
			return runSession(cmd, cfg, r)
		},
	}
}

// runSession runs one tracked session in the interactive view or as plain lines
func runSession(cmd *cobra.Command, cfg *cliConfig, r *batchRunner) error {
	interactive := !cfg.Plain && isTerminal(os.Stdout)

	var console io.Writer = cmd.ErrOrStderr()
	if interactive {
		console = nil
	}
	logs, err := setupLogger(cfg, console)
	if err != nil {
		return err
	}
	defer logs.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	go r.run(ctx)
	defer func() {
		cancel()
		r.close()
	}()

	var snap *progress.Snapshot
	if interactive {
		snap, err = runTUI(ctx, r, cfg.ServerURL)
	} else {
		r.onSend = func(p uploadsdk.UploadProgress) {
			slog.Debug("upload send", "file", p.FileName, "sent", p.Sent, "total", p.Total)
		}
		snap, err = watchPlain(ctx, cmd.OutOrStdout(), r.store(), func() { r.start(ctx) })
	}
	if errors.Is(err, context.Canceled) {
		return ErrInterrupted
	}
	if err != nil {
		return err
	}
	return outcome(snap)
}
