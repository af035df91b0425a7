// Package session drives one batch upload's status stream into a progress store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/statusmsg"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
)

const trackerQueueSize = 64

var ErrTrackerStopped = errors.New("tracker stopped")

// Tracker owns the status stream of the current batch. Submissions, frames and closes
// are applied one at a time by Run, which is the only writer of the store.
type Tracker struct {
	store  *progress.Store
	dialer Dialer
	queue  chan *trackerEvent
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	// owned by Run
	ctx          context.Context
	gen          uint64
	stream       Stream
	streamCancel context.CancelFunc
}

func NewTracker(store *progress.Store, dialer Dialer) *Tracker {
	return &Tracker{
		store:  store,
		dialer: dialer,
		queue:  make(chan *trackerEvent, trackerQueueSize),
		done:   make(chan struct{}),
	}
}

// Store returns the store the tracker writes to
func (t *Tracker) Store() *progress.Store {
	return t.store
}

// Done is closed after Run returns
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Track starts following uploadID. Any stream of an earlier batch is released first.
// An empty id is ignored.
func (t *Tracker) Track(uploadID string) error {
	if uploadID == "" {
		slog.Warn("tracker ignoring empty upload id")
		return nil
	}
	return t.post(&trackerEvent{kind: evSubmit, uploadID: uploadID})
}

// Reject records a batch that never got an upload id. The current stream is released and the
// session restarts empty, carrying err as its error.
func (t *Tracker) Reject(err error) error {
	if err == nil {
		return nil
	}
	return t.post(&trackerEvent{kind: evReject, err: err})
}

// Run applies events until ctx is cancelled
func (t *Tracker) Run(ctx context.Context) error {
	started := false
	t.startOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("tracker: already running")
	}

	t.ctx = ctx
	defer t.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-t.queue:
			t.handle(ev)
		}
	}
}

func (t *Tracker) shutdown() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
	t.release()
	slog.Debug("tracker stopped")
}

func (t *Tracker) post(ev *trackerEvent) error {
	select {
	case <-t.done:
		return ErrTrackerStopped
	default:
	}

	select {
	case t.queue <- ev:
		return nil
	case <-t.done:
		return ErrTrackerStopped
	}
}

func (t *Tracker) handle(ev *trackerEvent) {
	switch ev.kind {
	case evSubmit:
		t.handleSubmit(ev.uploadID)
	case evReject:
		t.handleReject(ev.err)
	case evOpened:
		t.handleOpened(ev)
	case evFrame:
		t.handleFrame(ev)
	default:
		slog.Warn("tracker unknown event", "kind", ev.kind)
	}
}

func (t *Tracker) handleSubmit(uploadID string) {
	t.release()
	t.gen++
	gen := t.gen

	t.store.Reset(uploadID)
	t.store.SetConn(progress.ConnConnecting)
	slog.Info("tracker connecting", "uploadId", uploadID)

	streamCtx, cancel := context.WithCancel(t.ctx)
	t.streamCancel = cancel

	go func() {
		stream, err := t.dialer.Dial(streamCtx, uploadID)
		if err := t.post(&trackerEvent{kind: evOpened, gen: gen, stream: stream, err: err}); err != nil && stream != nil {
			stream.Close()
		}
	}()
}

func (t *Tracker) handleReject(err error) {
	t.release()
	t.gen++

	t.store.Reset("")
	t.store.Terminate(err.Error())
	slog.Info("tracker batch rejected", "error", err)
}

func (t *Tracker) handleOpened(ev *trackerEvent) {
	if ev.gen != t.gen {
		if ev.stream != nil {
			ev.stream.Close()
		}
		return
	}

	if ev.err != nil {
		slog.Warn("tracker dial failed", "error", ev.err)
		t.store.Terminate(connectionMessage(ev.err))
		t.store.SetConn(progress.ConnClosedAnomalous)
		return
	}

	t.stream = ev.stream
	t.store.SetConn(progress.ConnOpen)
	slog.Info("tracker open", "uploadId", t.store.Snapshot().UploadID)

	go t.pump(ev.gen, ev.stream)
}

// pump forwards one stream's events into the loop, tagged with its generation
func (t *Tracker) pump(gen uint64, stream Stream) {
	for frame := range stream.Events() {
		if err := t.post(&trackerEvent{kind: evFrame, gen: gen, frame: frame}); err != nil {
			return
		}
	}
}

func (t *Tracker) handleFrame(ev *trackerEvent) {
	if ev.gen != t.gen || t.stream == nil {
		return
	}

	switch ev.frame.Type {
	case uploadsdk.StreamFrame:
		t.applyFrame(ev.frame)
	case uploadsdk.StreamClosed:
		t.applyClose(ev.frame.Close)
	}
}

func (t *Tracker) applyFrame(frame *uploadsdk.StreamEvent) {
	item, err := statusmsg.Decode(frame.MsgType, frame.Data)
	if err != nil {
		slog.Warn("tracker bad frame", "error", err)
		t.store.ReportError(fmt.Sprintf("Error parsing server message: %v", err))
		return
	}

	switch err := t.store.Upsert(*item); {
	case err == nil:
	case errors.Is(err, progress.ErrTooManyItems):
		slog.Warn("tracker item limit reached", "id", item.ID)
		t.store.ReportError(fmt.Sprintf("Too many items in batch: %v", err))
	default:
		slog.Debug("tracker frame ignored", "id", item.ID, "reason", err)
	}
}

func (t *Tracker) applyClose(cerr *uploadsdk.ConnectionError) {
	t.release()

	if t.store.Completed() {
		t.store.SetConn(progress.ConnClosedNormal)
		slog.Info("tracker closed", "uploadId", t.store.Snapshot().UploadID)
		return
	}

	msg := "Connection closed: Unknown reason (-1)"
	if cerr != nil {
		msg = cerr.Error()
	}
	t.store.Terminate(msg)
	t.store.SetConn(progress.ConnClosedAnomalous)
	slog.Warn("tracker closed before completion", "error", msg)
}

// release drops the current stream or the dial in flight. Safe to call repeatedly.
func (t *Tracker) release() {
	if t.streamCancel != nil {
		t.streamCancel()
		t.streamCancel = nil
	}
	if t.stream != nil {
		t.stream.Close()
		t.stream = nil
	}
}

// connectionMessage renders a dial failure the way stream failures are rendered
func connectionMessage(err error) string {
	var cerr *uploadsdk.ConnectionError
	if errors.As(err, &cerr) {
		return cerr.Error()
	}
	return (&uploadsdk.ConnectionError{Code: -1, Err: err}).Error()
}
