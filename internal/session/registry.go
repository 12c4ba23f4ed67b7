package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// How often idle stores are looked for
	cleanupInterval = time.Minute
)

// StoreFactory builds the store of a new tab.
type StoreFactory func(id string) *Store

// Registry owns one Store per tab id. Stores unused for longer than the idle
// timeout are closed; their session survives in storage and is restored the
// next time the tab shows up.
type Registry struct {
	newStore StoreFactory
	idle     time.Duration
	log      *logrus.Logger

	mu     sync.Mutex
	stores map[string]*Store

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// NewRegistry starts the background cleanup goroutine. Call Stop() during
// graceful shutdown.
func NewRegistry(newStore StoreFactory, idle time.Duration, log *logrus.Logger) *Registry {
	r := &Registry{
		newStore: newStore,
		idle:     idle,
		log:      log,
		stores:   make(map[string]*Store),
		stopChan: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// Get returns the initialised store of tab id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Store, error) {
	r.mu.Lock()
	store, ok := r.stores[id]
	if !ok {
		store = r.newStore(id)
		r.stores[id] = store
	}
	r.mu.Unlock()

	return store, store.Init(ctx)
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	store, ok := r.stores[id]
	delete(r.stores, id)
	r.mu.Unlock()

	if ok {
		store.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) Stop() {
	if r.stopped.CompareAndSwap(false, true) {
		close(r.stopChan)
		r.wg.Wait()

		r.mu.Lock()
		for id, store := range r.stores {
			store.Close()
			delete(r.stores, id)
		}
		r.mu.Unlock()

		r.log.Info("Session registry stopped")
	}
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			r.log.Debug("Session cleanup goroutine stopping")
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

// evictIdle closes the stores not used since now minus the idle timeout and
// returns how many were removed.
func (r *Registry) evictIdle(now time.Time) int {
	cutoff := now.Add(-r.idle)

	r.mu.Lock()
	var evicted []*Store
	for id, store := range r.stores {
		if store.idleSince().Before(cutoff) {
			evicted = append(evicted, store)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()

	for _, store := range evicted {
		store.Close()
	}
	if len(evicted) > 0 {
		r.log.Debugf("Evicted %d idle session stores", len(evicted))
	}
	return len(evicted)
}
