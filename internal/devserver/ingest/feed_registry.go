package ingest

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FeedRegistry tracks the feeds of running uploads and keeps a bounded number of finished
// ones so their status can still be read.
type FeedRegistry struct {
	mu       sync.RWMutex
	active   map[string]*Feed
	finished *lru.Cache[string, *Feed]
}

func NewFeedRegistry(retain int) (*FeedRegistry, error) {
	if retain <= 0 {
		retain = 1
	}
	finished, err := lru.New[string, *Feed](retain)
	if err != nil {
		return nil, err
	}
	return &FeedRegistry{
		active:   make(map[string]*Feed),
		finished: finished,
	}, nil
}

// Create registers a new feed for id
func (r *FeedRegistry) Create(id string) *Feed {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := newFeed(id)
	r.active[id] = f
	return f
}

// Finish closes the feed and moves it to the retained set. An aborted feed is dropped.
func (r *FeedRegistry) Finish(f *Feed, aborted bool) {
	if aborted {
		f.Abort()
	} else {
		f.Finish()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, f.id)
	if aborted {
		return
	}
	if evicted := r.finished.Add(f.id, f); evicted {
		slog.Debug("feed registry evicted oldest finished upload")
	}
}

// Get returns the feed for id, running or retained
func (r *FeedRegistry) Get(id string) (*Feed, bool) {
	r.mu.RLock()
	f, ok := r.active[id]
	r.mu.RUnlock()
	if ok {
		return f, true
	}
	return r.finished.Get(id)
}

// Active returns the number of uploads still processing
func (r *FeedRegistry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
