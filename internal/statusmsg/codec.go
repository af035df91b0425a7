// Package statusmsg converts status stream frames to and from per-item statuses.
package statusmsg

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/coder/websocket"
	"github.com/fileuploader/uploadwatch/internal/progress"
)

const maxPayloadInError = 128

var (
	ErrBinaryFrame     = errors.New("binary frames are not supported")
	ErrEmptyFrame      = errors.New("empty message")
	ErrMissingID       = errors.New("missing Id")
	ErrNonFiniteNumber = errors.New("non-finite number")
)

// Status is the wire form of one item update on the status stream.
// An empty Error means the item has not failed.
type Status struct {
	Id       int     `json:"Id"`
	Percent  float64 `json:"Percent"`
	Timeleft float64 `json:"Timeleft"`
	Error    string  `json:"Error"`
}

// wireStatus tells a missing Id apart from Id 0
type wireStatus struct {
	Id       *int    `json:"Id"`
	Percent  float64 `json:"Percent"`
	Timeleft float64 `json:"Timeleft"`
	Error    string  `json:"Error"`
}

// DecodeError is returned for a frame that cannot be turned into an item status
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(data []byte, err error) *DecodeError {
	payload := data
	if len(payload) > maxPayloadInError {
		payload = payload[:maxPayloadInError]
	}
	return &DecodeError{Payload: string(payload), Err: err}
}

// Decode parses one frame from the status stream. Percent is clamped to [0, 100] and rounded
// to one decimal, time left is clamped to [0, progress.MaxTimeLeftSeconds] and rounded to
// whole seconds.
func Decode(typ websocket.MessageType, data []byte) (*progress.ItemStatus, error) {
	if typ != websocket.MessageText {
		return nil, newDecodeError(data, ErrBinaryFrame)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newDecodeError(data, ErrEmptyFrame)
	}

	var raw wireStatus
	if err := Unmarshal(data, &raw); err != nil {
		return nil, newDecodeError(data, err)
	}
	if raw.Id == nil {
		return nil, newDecodeError(data, ErrMissingID)
	}
	if !isFinite(raw.Percent) || !isFinite(raw.Timeleft) {
		return nil, newDecodeError(data, ErrNonFiniteNumber)
	}

	return &progress.ItemStatus{
		ID:              *raw.Id,
		Percent:         progress.RoundPercent(clamp(raw.Percent, progress.PercentMin, progress.PercentMax)),
		TimeLeftSeconds: progress.RoundSeconds(raw.Timeleft),
		Error:           raw.Error,
	}, nil
}

// Encode produces a text frame for the status stream
func Encode(s Status) (websocket.MessageType, []byte, error) {
	if !isFinite(s.Percent) || !isFinite(s.Timeleft) {
		return websocket.MessageText, nil, fmt.Errorf("encode status %d: %w", s.Id, ErrNonFiniteNumber)
	}
	data, err := Marshal(s)
	if err != nil {
		return websocket.MessageText, nil, fmt.Errorf("encode status %d: %w", s.Id, err)
	}
	return websocket.MessageText, data, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
