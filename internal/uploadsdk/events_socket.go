package uploadsdk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	streamChannelSize = 256
	streamPingTimeout = 5 * time.Second
)

// StatusStream is one open status connection. Frames are delivered in arrival order and
// are never dropped. If the stream ends for any reason other than Close or context
// cancellation, a single StreamClosed event follows the last frame.
type StatusStream struct {
	uploadID  string
	conn      *websocket.Conn
	events    chan *StreamEvent
	closing   chan struct{} // released by the client
	done      chan struct{} // read loop finished, events is closed
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
	stats     *streamStats

	pingMu  sync.Mutex
	pingErr error
}

func newStatusStream(conn *websocket.Conn, uploadID string) *StatusStream {
	return &StatusStream{
		uploadID: uploadID,
		conn:     conn,
		events:   make(chan *StreamEvent, streamChannelSize),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		stats:    newStreamStats(),
	}
}

func (s *StatusStream) Start(ctx context.Context, keepAlive time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.stats.onConnected()

	s.wg.Add(1)
	go s.readLoop(ctx)

	if keepAlive > 0 {
		s.wg.Add(1)
		go s.pingLoop(ctx, keepAlive)
	}
}

// UploadID returns the batch this stream reports on
func (s *StatusStream) UploadID() string {
	return s.uploadID
}

// Events returns the channel of frames and the final close event. It is closed when the stream ends.
func (s *StatusStream) Events() <-chan *StreamEvent {
	return s.events
}

// Done is closed once the read loop has exited
func (s *StatusStream) Done() <-chan struct{} {
	return s.done
}

// Close releases the stream. No StreamClosed event is delivered after Close. Safe to call more than once.
func (s *StatusStream) Close() {
	s.closeOnce.Do(func() {
		close(s.closing)
		if s.cancel != nil {
			s.cancel()
		}
		s.conn.CloseNow()
	})
	s.wg.Wait()
}

// Stats returns a snapshot of the stream counters
func (s *StatusStream) Stats() StreamStatsSnapshot {
	return s.stats.snapshot()
}

func (s *StatusStream) released(ctx context.Context) bool {
	select {
	case <-s.closing:
		return true
	default:
		return ctx.Err() != nil
	}
}

func (s *StatusStream) readLoop(ctx context.Context) {
	defer func() {
		s.stats.onDisconnected()
		s.conn.CloseNow()
		close(s.events)
		close(s.done)
		slog.Debug("status stream reader shutdown", "uploadId", s.uploadID)
		s.wg.Done()
	}()

	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if s.released(ctx) {
				return
			}

			cerr := s.classify(err)
			s.stats.setLastError(cerr)
			if cerr.Clean() {
				slog.Debug("status stream closed by server", "uploadId", s.uploadID, "code", int(cerr.Code))
			} else {
				slog.Warn("status stream ended", "uploadId", s.uploadID, "error", cerr)
			}

			select {
			case s.events <- &StreamEvent{Type: StreamClosed, Close: cerr}:
			case <-s.closing:
			}
			return
		}

		s.stats.onRecv(len(data))

		select {
		case s.events <- &StreamEvent{Type: StreamFrame, MsgType: typ, Data: data}:
		case <-s.closing:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *StatusStream) pingLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer func() {
		ticker.Stop()
		s.wg.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.done:
			return

		case <-ticker.C:
			ctxPing, cancel := context.WithTimeout(ctx, streamPingTimeout)
			err := s.conn.Ping(ctxPing)
			cancel()

			if err != nil {
				if s.released(ctx) || isExpectedCloseError(err) {
					return
				}
				slog.Warn("status stream ping", "uploadId", s.uploadID, "error", err)
				s.pingMu.Lock()
				s.pingErr = err
				s.pingMu.Unlock()
				s.conn.CloseNow()
				return
			}
			s.stats.onPing()
		}
	}
}

// classify turns a read error into the close description reported to the caller
func (s *StatusStream) classify(err error) *ConnectionError {
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		return &ConnectionError{Code: closeErr.Code, Reason: closeErr.Reason}
	}

	s.pingMu.Lock()
	pingErr := s.pingErr
	s.pingMu.Unlock()
	if pingErr != nil {
		err = pingErr
	}

	return &ConnectionError{Code: -1, Err: err}
}

// isExpectedCloseError returns true if the error is an expected connection closure
func isExpectedCloseError(err error) bool {
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed)
}
