package uploadsdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusServer accepts a status stream and hands the connection to serve
func statusServer(t *testing.T, serve func(ctx context.Context, conn *websocket.Conn, uploadID string)) *UploadSDK {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(v1UploadStatus+"{id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		serve(r.Context(), conn, r.PathValue("id"))
	})
	return newTestSDK(t, mux)
}

func collect(t *testing.T, stream *StatusStream) []*StreamEvent {
	t.Helper()
	var events []*StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("stream did not end")
		}
	}
}

func TestEventsAPI_StreamURL(t *testing.T) {
	tests := []struct {
		base string
		id   string
		want string
	}{
		{"http://localhost:8080", "abc", "ws://localhost:8080/api/upload/status/abc"},
		{"https://example.com/root", "abc", "wss://example.com/root/api/upload/status/abc"},
		{"http://localhost:8080", "a/b c", "ws://localhost:8080/api/upload/status/a%2Fb%20c"},
	}

	for _, tt := range tests {
		e := newEventsAPI(tt.base)
		got, err := e.streamURL(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestEventsAPI_Stream(t *testing.T) {
	t.Run("frames arrive in order then a clean close", func(t *testing.T) {
		sdk := statusServer(t, func(ctx context.Context, conn *websocket.Conn, id string) {
			assert.Equal(t, "u1", id)
			for _, f := range []string{`{"Id":1,"Percent":10}`, `{"Id":1,"Percent":100}`} {
				assert.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(f)))
			}
			conn.Close(websocket.StatusNormalClosure, "processing complete")
		})

		stream, err := sdk.Events.Stream(context.Background(), "u1")
		require.NoError(t, err)
		defer stream.Close()

		events := collect(t, stream)
		require.Len(t, events, 3)
		assert.Equal(t, StreamFrame, events[0].Type)
		assert.Equal(t, `{"Id":1,"Percent":10}`, string(events[0].Data))
		assert.Equal(t, `{"Id":1,"Percent":100}`, string(events[1].Data))

		last := events[2]
		assert.Equal(t, StreamClosed, last.Type)
		assert.True(t, last.Close.Clean())
		assert.Equal(t, "Connection closed: processing complete (1000)", last.Close.Error())

		assert.Equal(t, int64(2), stream.Stats().FramesRecvTotal)
	})

	t.Run("anomalous close carries code and reason", func(t *testing.T) {
		sdk := statusServer(t, func(ctx context.Context, conn *websocket.Conn, id string) {
			conn.Close(websocket.StatusInternalError, "")
		})

		stream, err := sdk.Events.Stream(context.Background(), "u2")
		require.NoError(t, err)
		defer stream.Close()

		events := collect(t, stream)
		require.Len(t, events, 1)
		assert.False(t, events[0].Close.Clean())
		assert.Equal(t, "Connection closed: Unknown reason (1011)", events[0].Close.Error())
	})

	t.Run("dropped transport is a connection error", func(t *testing.T) {
		sdk := statusServer(t, func(ctx context.Context, conn *websocket.Conn, id string) {
			conn.CloseNow()
		})

		stream, err := sdk.Events.Stream(context.Background(), "u3")
		require.NoError(t, err)
		defer stream.Close()

		events := collect(t, stream)
		require.Len(t, events, 1)
		assert.Equal(t, StreamClosed, events[0].Type)
		assert.False(t, events[0].Close.Clean())
	})

	t.Run("released stream reports nothing more", func(t *testing.T) {
		release := make(chan struct{})
		sdk := statusServer(t, func(ctx context.Context, conn *websocket.Conn, id string) {
			_ = conn.Write(ctx, websocket.MessageText, []byte(`{"Id":1}`))
			<-release
		})
		defer close(release)

		stream, err := sdk.Events.Stream(context.Background(), "u4")
		require.NoError(t, err)

		first := <-stream.Events()
		require.Equal(t, StreamFrame, first.Type)

		stream.Close()
		stream.Close()

		for ev := range stream.Events() {
			assert.NotEqual(t, StreamClosed, ev.Type)
		}
		<-stream.Done()
	})

	t.Run("dial failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		sdk, err := New(&Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = sdk.Events.Stream(context.Background(), "u5")
		var cerr *ConnectionError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, websocket.StatusCode(-1), cerr.Code)
		assert.Contains(t, err.Error(), "WebSocket connection error occurred: ")
	})

	t.Run("empty upload id", func(t *testing.T) {
		sdk, err := New(&Config{BaseURL: DefaultBaseURL})
		require.NoError(t, err)
		_, err = sdk.Events.Stream(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoUploadIDToWatch)
	})
}
