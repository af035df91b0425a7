package progress

import (
	"fmt"
	"time"
)

const (
	PercentMin = 0.0
	PercentMax = 100.0
)

// ConnState is the lifecycle state of the status stream feeding a session
type ConnState string

const (
	ConnIdle            ConnState = "idle"
	ConnConnecting      ConnState = "connecting"
	ConnOpen            ConnState = "open"
	ConnClosedNormal    ConnState = "closed"
	ConnClosedAnomalous ConnState = "failed"
)

// Terminal reports whether no further frames will be applied in this state
func (c ConnState) Terminal() bool {
	return c == ConnClosedNormal || c == ConnClosedAnomalous
}

// ItemStatus is the latest known status of one file in a batch
type ItemStatus struct {
	ID              int     `json:"id"`
	Percent         float64 `json:"percent"`
	TimeLeftSeconds int64   `json:"time_left_seconds"`
	Error           string  `json:"error,omitempty"`
}

// Failed reports whether the server marked the item as terminally failed
func (s ItemStatus) Failed() bool {
	return s.Error != ""
}

// Done reports whether the item has reached 100%, regardless of error
func (s ItemStatus) Done() bool {
	return s.Percent >= PercentMax
}

func (s ItemStatus) String() string {
	return fmt.Sprintf("ID: %d, Percent: %.1f, TimeLeft: %ds, Error: %q", s.ID, s.Percent, s.TimeLeftSeconds, s.Error)
}

// Aggregate is the combined progress of every known item in a session
type Aggregate struct {
	Percent         float64 `json:"percent"`
	TimeLeftSeconds int64   `json:"time_left_seconds"`
	InProgress      bool    `json:"in_progress"`
	Completed       bool    `json:"completed"`
}

// Snapshot is an immutable view of a session handed to readers
type Snapshot struct {
	UploadID  string       `json:"upload_id"`
	Conn      ConnState    `json:"conn"`
	Items     []ItemStatus `json:"items"`
	Aggregate
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item returns the status for id, if the session has seen it
func (s *Snapshot) Item(id int) (ItemStatus, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ItemStatus{}, false
}

// FailedItems returns the items the server reported as failed
func (s *Snapshot) FailedItems() []ItemStatus {
	var failed []ItemStatus
	for _, it := range s.Items {
		if it.Failed() {
			failed = append(failed, it)
		}
	}
	return failed
}

// Settled reports whether the session will not change without a new submission
func (s *Snapshot) Settled() bool {
	return s.Conn.Terminal() || (s.Conn == ConnIdle && s.Error != "")
}
