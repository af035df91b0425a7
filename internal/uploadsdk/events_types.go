package uploadsdk

import (
	"github.com/coder/websocket"
)

const (
	v1UploadStatus = "/api/upload/status/"
)

type StreamEventType int

const (
	// StreamFrame carries one raw frame from the server
	StreamFrame StreamEventType = iota
	// StreamClosed is the last event of a stream that was not released by the client
	StreamClosed
)

func (t StreamEventType) String() string {
	switch t {
	case StreamFrame:
		return "frame"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StreamEvent is delivered in arrival order on StatusStream.Events
type StreamEvent struct {
	Type    StreamEventType
	MsgType websocket.MessageType // StreamFrame only
	Data    []byte                // StreamFrame only
	Close   *ConnectionError      // StreamClosed only
}
