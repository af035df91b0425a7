package session

import (
	"context"

	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
)

// Stream is an open status stream
type Stream interface {
	Events() <-chan *uploadsdk.StreamEvent
	Close()
}

// Dialer opens the status stream for a submitted batch
type Dialer interface {
	Dial(ctx context.Context, uploadID string) (Stream, error)
}

// EventsDialer dials through the sdk events api
type EventsDialer struct {
	Events *uploadsdk.EventsAPI
}

func (d *EventsDialer) Dial(ctx context.Context, uploadID string) (Stream, error) {
	stream, err := d.Events.Stream(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

type eventKind int

const (
	evSubmit eventKind = iota
	evOpened
	evFrame
	evReject
)

func (k eventKind) String() string {
	switch k {
	case evSubmit:
		return "submit"
	case evOpened:
		return "opened"
	case evFrame:
		return "frame"
	case evReject:
		return "reject"
	default:
		return "unknown"
	}
}

// trackerEvent is the only input to the tracker loop. gen tags events that
// originate from a dial or a stream so superseded ones can be dropped.
type trackerEvent struct {
	kind     eventKind
	gen      uint64
	uploadID string
	stream   Stream
	frame    *uploadsdk.StreamEvent
	err      error
}
