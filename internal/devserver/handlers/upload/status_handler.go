package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/fileuploader/uploadwatch/internal/devserver/api"
	"github.com/fileuploader/uploadwatch/internal/devserver/ingest"
	"github.com/fileuploader/uploadwatch/internal/statusmsg"
	"github.com/gin-gonic/gin"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 4 * 1024

	closeReasonComplete = "processing complete"
	closeReasonLagged   = "subscriber too slow"
	closeReasonShutdown = "shutdown"
)

// Status streams the progress of one upload. The first frame is an empty status, then the
// latest status of every known item, then live updates. The socket is closed normally
// once processing finishes.
func (h *UploadHandler) Status(ctx *gin.Context) {
	var req StatusRequest
	if err := ctx.ShouldBindUri(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid upload id: %w", err))
		return
	}

	feed, ok := h.svc.Feed(req.UploadID)
	if !ok {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeUploadNotFound, errors.New("upload ID not found"))
		return
	}

	conn, err := websocket.Accept(ctx.Writer, ctx.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dev server, any origin
	})
	if err != nil {
		ctx.Error(fmt.Errorf("websocket accept failed: %w", err))
		return
	}
	conn.SetReadLimit(maxMessageSize)
	defer conn.CloseNow()

	// the client never sends data frames; CloseRead handles pings and detects a hangup
	connCtx := conn.CloseRead(ctx.Request.Context())

	replay, updates, lagged, cancel := feed.Subscribe()
	defer cancel()

	slog.Debug("status socket open", "uploadId", req.UploadID, "replay", len(replay))

	if err := write(connCtx, conn, statusmsg.Status{}); err != nil {
		return
	}
	for _, s := range replay {
		if err := write(connCtx, conn, s); err != nil {
			return
		}
	}

	for {
		select {
		case s, ok := <-updates:
			if !ok {
				closeStatus(conn, feed, lagged())
				return
			}
			if err := write(connCtx, conn, s); err != nil {
				return
			}

		case <-connCtx.Done():
			slog.Debug("status socket client gone", "uploadId", req.UploadID)
			return
		}
	}
}

func closeStatus(conn *websocket.Conn, feed *ingest.Feed, lagged bool) {
	switch {
	case lagged:
		conn.Close(websocket.StatusTryAgainLater, closeReasonLagged)
	case feed.Finished() && !feed.Aborted():
		conn.Close(websocket.StatusNormalClosure, closeReasonComplete)
	default:
		conn.Close(websocket.StatusGoingAway, closeReasonShutdown)
	}
}

func write(ctx context.Context, conn *websocket.Conn, s statusmsg.Status) error {
	typ, data, err := statusmsg.Encode(s)
	if err != nil {
		slog.Warn("status socket encode", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, typ, data)
}
