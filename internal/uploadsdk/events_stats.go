package uploadsdk

import (
	"sync/atomic"
	"time"
)

// streamStats tracks status stream telemetry
type streamStats struct {
	bytesRecv      atomic.Int64
	framesRecv     atomic.Int64
	lastRecvNs     atomic.Int64
	lastPingNs     atomic.Int64
	connectedAtNs  atomic.Int64
	disconnAtNs    atomic.Int64
	lastErrorValue atomic.Value // string
}

func newStreamStats() *streamStats {
	s := &streamStats{}
	s.lastErrorValue.Store("")
	return s
}

func (s *streamStats) onConnected() {
	s.connectedAtNs.Store(time.Now().UnixNano())
}

func (s *streamStats) onDisconnected() {
	s.disconnAtNs.Store(time.Now().UnixNano())
}

func (s *streamStats) onRecv(n int) {
	s.framesRecv.Add(1)
	if n > 0 {
		s.bytesRecv.Add(int64(n))
	}
	s.lastRecvNs.Store(time.Now().UnixNano())
}

func (s *streamStats) onPing() {
	s.lastPingNs.Store(time.Now().UnixNano())
}

func (s *streamStats) setLastError(err error) {
	if err == nil {
		return
	}
	s.lastErrorValue.Store(err.Error())
}

// StreamStatsSnapshot is a stable, JSON-friendly view of a status stream
type StreamStatsSnapshot struct {
	FramesRecvTotal  int64  `json:"frames_recv_total"`
	BytesRecvTotal   int64  `json:"bytes_recv_total"`
	ConnectedAtNs    int64  `json:"connected_at_ns,omitempty"`
	DisconnectedAtNs int64  `json:"disconnected_at_ns,omitempty"`
	LastRecvAtNs     int64  `json:"last_recv_at_ns,omitempty"`
	LastPingAtNs     int64  `json:"last_ping_at_ns,omitempty"`
	LastError        string `json:"last_error,omitempty"`
}

func (s *streamStats) snapshot() StreamStatsSnapshot {
	return StreamStatsSnapshot{
		FramesRecvTotal:  s.framesRecv.Load(),
		BytesRecvTotal:   s.bytesRecv.Load(),
		ConnectedAtNs:    s.connectedAtNs.Load(),
		DisconnectedAtNs: s.disconnAtNs.Load(),
		LastRecvAtNs:     s.lastRecvNs.Load(),
		LastPingAtNs:     s.lastPingNs.Load(),
		LastError:        s.lastErrorValue.Load().(string),
	}
}
