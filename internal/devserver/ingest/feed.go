package ingest

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/fileuploader/uploadwatch/internal/statusmsg"
)

const feedSubscriberBuffer = 1024

var ErrSubscriberLagged = errors.New("subscriber too slow")

// Feed fans the statuses of one upload out to its status sockets. It keeps the latest
// status per item so a socket that connects late still sees every item.
type Feed struct {
	id string

	mu      sync.Mutex
	latest  map[int]statusmsg.Status
	subs    map[*feedSub]struct{}
	done    chan struct{}
	aborted bool
}

type feedSub struct {
	ch     chan statusmsg.Status
	lagged bool
}

func newFeed(id string) *Feed {
	return &Feed{
		id:     id,
		latest: make(map[int]statusmsg.Status),
		subs:   make(map[*feedSub]struct{}),
		done:   make(chan struct{}),
	}
}

func (f *Feed) ID() string {
	return f.id
}

// Done is closed when processing has finished
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) Finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Publish records s and forwards it to every subscriber. A subscriber whose buffer is
// full is dropped rather than stalling processing.
func (f *Feed) Publish(s statusmsg.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Finished() {
		slog.Warn("feed publish after finish", "uploadId", f.id, "item", s.Id)
		return
	}

	f.latest[s.Id] = s
	for sub := range f.subs {
		select {
		case sub.ch <- s:
		default:
			slog.Warn("feed subscriber lagged", "uploadId", f.id)
			sub.lagged = true
			close(sub.ch)
			delete(f.subs, sub)
		}
	}
}

// Finish marks the feed complete and closes every subscriber
func (f *Feed) Finish() {
	f.finish(false)
}

// Abort ends the feed without completing it, on shutdown
func (f *Feed) Abort() {
	f.finish(true)
}

// Aborted reports whether processing was stopped before it finished
func (f *Feed) Aborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

func (f *Feed) finish(aborted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Finished() {
		return
	}
	f.aborted = aborted
	close(f.done)
	for sub := range f.subs {
		close(sub.ch)
		delete(f.subs, sub)
	}
}

// Subscribe returns the latest status per item, sorted by id, and a channel of the
// statuses published afterwards. The channel is closed when the feed finishes or the
// subscriber lags; call the returned func to leave early.
func (f *Feed) Subscribe() (replay []statusmsg.Status, updates <-chan statusmsg.Status, lagged func() bool, cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	replay = make([]statusmsg.Status, 0, len(f.latest))
	for _, s := range f.latest {
		replay = append(replay, s)
	}
	slices.SortFunc(replay, func(a, b statusmsg.Status) int { return cmp.Compare(a.Id, b.Id) })

	sub := &feedSub{ch: make(chan statusmsg.Status, feedSubscriberBuffer)}
	if f.Finished() {
		close(sub.ch)
	} else {
		f.subs[sub] = struct{}{}
	}

	lagged = func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return sub.lagged
	}
	cancel = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[sub]; ok {
			close(sub.ch)
			delete(f.subs, sub)
		}
	}
	return replay, sub.ch, lagged, cancel
}
