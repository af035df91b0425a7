package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/session"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
)

var ErrInterrupted = errors.New("interrupted before processing finished")

// batchRunner starts a session either by submitting files or by watching an existing upload id
type batchRunner struct {
	sdk      *uploadsdk.UploadSDK
	tracker  *session.Tracker
	paths    []string
	uploadID string
	onSend   func(uploadsdk.UploadProgress)
}

func newBatchRunner(cfg *cliConfig) (*batchRunner, error) {
	sdk, err := uploadsdk.New(cfg.sdkConfig())
	if err != nil {
		return nil, err
	}

	store := progress.NewStore(progress.WithMaxItems(cfg.MaxItems))
	return &batchRunner{
		sdk:     sdk,
		tracker: session.NewTracker(store, &session.EventsDialer{Events: sdk.Events}),
	}, nil
}

func (r *batchRunner) store() *progress.Store {
	return r.tracker.Store()
}

// run drives the tracker until ctx is done
func (r *batchRunner) run(ctx context.Context) {
	if err := r.tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("tracker stopped", "error", err)
	}
}

func (r *batchRunner) close() {
	<-r.tracker.Done()
	r.sdk.Close()
}

// start begins a new session. Called again to retry.
func (r *batchRunner) start(ctx context.Context) {
	if r.uploadID != "" {
		if err := r.tracker.Track(r.uploadID); err != nil {
			slog.Warn("watch", "upload_id", r.uploadID, "error", err)
		}
		return
	}

	resp, err := r.sdk.Upload.Submit(ctx, &uploadsdk.SubmitParams{
		Paths:    r.paths,
		Callback: r.onSend,
	})
	if err != nil {
		slog.Error("upload submit", "files", len(r.paths), "error", err)
		if err := r.tracker.Reject(err); err != nil {
			slog.Warn("upload reject", "error", err)
		}
		return
	}

	slog.Info("upload submitted", "upload_id", resp.UploadID, "files", len(r.paths))
	if err := r.tracker.Track(resp.UploadID); err != nil {
		slog.Warn("upload track", "upload_id", resp.UploadID, "error", err)
	}
}

// outcome turns the last snapshot into the command result
func outcome(snap *progress.Snapshot) error {
	switch {
	case snap == nil:
		return ErrInterrupted
	case snap.Error != "":
		return errors.New(snap.Error)
	case !snap.Completed:
		return ErrInterrupted
	}

	if failed := snap.FailedItems(); len(failed) > 0 {
		return fmt.Errorf("%d of %d file(s) failed", len(failed), len(snap.Items))
	}
	return nil
}
