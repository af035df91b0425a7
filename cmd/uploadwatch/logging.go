package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fileuploader/uploadwatch/internal/utils"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogger installs the default logger. console may be nil when the
// interactive view owns the terminal, in which case only the log file is written.
func setupLogger(cfg *cliConfig, console io.Writer) (io.Closer, error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, tint.NewHandler(console, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(console),
		}))
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		path, err := utils.ResolvePath(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		if err := utils.EnsureParent(path); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file
	}

	slog.SetDefault(slog.New(utils.NewFanoutHandler(handlers...)))
	return closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
