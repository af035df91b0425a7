package uploadsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	eventsDialTimeout      = 10 * time.Second
	eventsMaxMessageSize   = 64 * 1024 // 64KB, a status frame is well under 1KB
	eventsDefaultKeepAlive = 15 * time.Second
)

// EventsAPI opens status streams for submitted batches
type EventsAPI struct {
	baseURL   string
	header    http.Header
	keepAlive time.Duration
}

// newEventsAPI creates a new EventsAPI instance
func newEventsAPI(baseURL string) *EventsAPI {
	header := http.Header{}
	header.Set("User-Agent", UploadWatchUserAgent)

	return &EventsAPI{
		baseURL:   baseURL,
		header:    header,
		keepAlive: eventsDefaultKeepAlive,
	}
}

// SetKeepAlive changes the ping interval. Zero disables pings.
func (e *EventsAPI) SetKeepAlive(d time.Duration) {
	e.keepAlive = d
}

// Stream opens the status stream for uploadID. The stream lives until the server closes it,
// the transport fails, ctx is cancelled or Close is called.
func (e *EventsAPI) Stream(ctx context.Context, uploadID string) (*StatusStream, error) {
	if uploadID == "" {
		return nil, ErrNoUploadIDToWatch
	}

	wsURL, err := e.streamURL(uploadID)
	if err != nil {
		return nil, fmt.Errorf("sdk: events: failed to build url: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, eventsDialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		HTTPHeader: e.header.Clone(),
	})
	if err != nil {
		return nil, &ConnectionError{Code: -1, Err: fmt.Errorf("failed to connect to %s: %w", wsURL, err)}
	}
	conn.SetReadLimit(eventsMaxMessageSize)

	stream := newStatusStream(conn, uploadID)
	stream.Start(ctx, e.keepAlive)

	slog.Debug("status stream connected", "uploadId", uploadID)
	return stream, nil
}

// streamURL converts the http base url to the websocket status url
func (e *EventsAPI) streamURL(uploadID string) (string, error) {
	u, err := url.Parse(e.baseURL)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", ErrInvalidServerURL
	}

	return u.JoinPath(v1UploadStatus, url.PathEscape(uploadID)).String(), nil
}
