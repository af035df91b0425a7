package progress

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const snapshotBufferSize = 1

var (
	ErrTooManyItems  = errors.New("progress: too many items in batch")
	ErrSessionHalted = errors.New("progress: session terminated")
)

// StoreOption configures a Store
type StoreOption func(*Store)

// WithMaxItems bounds the number of distinct item ids a session may track. 0 means unbounded.
func WithMaxItems(n int) StoreOption {
	return func(s *Store) {
		s.maxItems = n
	}
}

// Store holds the state of the current upload session: per-item statuses keyed by id,
// the aggregate derived from them and the session-level error.
// It has a single writer (the session tracker) and any number of readers.
type Store struct {
	mu        sync.RWMutex
	uploadID  string
	items     map[int]ItemStatus
	aggregate Aggregate
	errMsg    string
	halted    bool
	conn      ConnState
	updatedAt time.Time
	maxItems  int

	subMu sync.Mutex
	subs  []chan *Snapshot
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		items:     make(map[int]ItemStatus),
		conn:      ConnIdle,
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset drops all session state and binds the store to a new upload
func (s *Store) Reset(uploadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadID = uploadID
	s.items = make(map[int]ItemStatus)
	s.aggregate = Aggregate{}
	s.errMsg = ""
	s.halted = false
	s.conn = ConnIdle
	s.touchAndBroadcast()
}

// Upsert replaces the status stored for item.ID and recomputes the aggregate.
// Replaying an identical status is a no-op. Completion is re-derived on every upsert,
// so an item first seen after the others finished pulls the batch back into progress.
func (s *Store) Upsert(item ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return ErrSessionHalted
	}

	prev, known := s.items[item.ID]
	if known && prev == item {
		return nil
	}
	if !known && s.maxItems > 0 && len(s.items) >= s.maxItems {
		return ErrTooManyItems
	}

	s.items[item.ID] = item
	s.aggregate = Reduce(s.sortedItems())
	s.touchAndBroadcast()
	return nil
}

// ReportError records a non-fatal session error. The first error wins and a
// completed session never takes an error. Returns true if the error was recorded.
func (s *Store) ReportError(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aggregate.Completed || s.errMsg != "" {
		return false
	}

	s.errMsg = msg
	s.touchAndBroadcast()
	return true
}

// Terminate ends the session with a fatal error: progress stops and later upserts
// are rejected. An earlier session error is kept. Completed sessions are left untouched.
func (s *Store) Terminate(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aggregate.Completed || s.halted {
		return false
	}

	if s.errMsg == "" {
		s.errMsg = msg
	}
	s.halted = true
	s.aggregate.InProgress = false
	s.touchAndBroadcast()
	return true
}

// SetConn records the lifecycle state of the stream feeding this session
func (s *Store) SetConn(state ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == state {
		return
	}
	s.conn = state
	s.touchAndBroadcast()
}

// Completed reports whether every known item has finished
func (s *Store) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.aggregate.Completed
}

// Aggregate returns the current aggregate
func (s *Store) Aggregate() Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.aggregate
}

// Get returns the latest status of a single item
func (s *Store) Get(id int) (ItemStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	return it, ok
}

// Snapshot returns a consistent copy of the session
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the latest snapshot after every change.
// Slow readers skip intermediate snapshots but always see the most recent one.
func (s *Store) Subscribe() <-chan *Snapshot {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan *Snapshot, snapshotBufferSize)
	s.subs = append(s.subs, ch)
	return ch
}

// Unsubscribe removes and closes a subscription channel
func (s *Store) Unsubscribe(ch <-chan *Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub == ch {
			close(sub)
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
}

// must be called with mu held
func (s *Store) sortedItems() []ItemStatus {
	items := make([]ItemStatus, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b ItemStatus) int { return cmp.Compare(a.ID, b.ID) })
	return items
}

// must be called with mu held
func (s *Store) snapshotLocked() *Snapshot {
	return &Snapshot{
		UploadID:  s.uploadID,
		Conn:      s.conn,
		Items:     s.sortedItems(),
		Aggregate: s.aggregate,
		Error:     s.errMsg,
		UpdatedAt: s.updatedAt,
	}
}

// must be called with mu held (write)
func (s *Store) touchAndBroadcast() {
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		select {
		case sub <- snap:
			continue
		default:
		}

		// replace the stale snapshot the reader has not picked up yet
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- snap:
		default:
			slog.Debug("progress store subscriber busy, snapshot dropped", "upload", s.uploadID)
		}
	}
}
