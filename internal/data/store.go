package data

import (
	"sort"
	"sync"
	"time"
)

type storeEntry[T any] struct {
	value     T
	createdAt time.Time
	expiresAt time.Time
}

// ResultStore keeps values in memory for a fixed TTL. It is safe for concurrent use.
// A nil *ResultStore stores nothing.
type ResultStore[T any] struct {
	mu    sync.RWMutex
	store map[string]storeEntry[T]
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewResultStore returns a store whose entries live for ttl.
func NewResultStore[T any](ttl time.Duration) *ResultStore[T] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultStore[T]{
		store: make(map[string]storeEntry[T]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
}

// Get retrieves a value if present and not expired.
func (s *ResultStore[T]) Get(key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.store[key]
	if !ok || s.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

func (s *ResultStore[T]) Set(key string, value T) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.store[key] = storeEntry[T]{value: value, createdAt: now, expiresAt: now.Add(s.ttl)}
}

func (s *ResultStore[T]) Delete(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, key)
}

// Keys lists live keys, newest first.
func (s *ResultStore[T]) Keys() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	type kv struct {
		key string
		at  time.Time
	}
	live := make([]kv, 0, len(s.store))
	for k, e := range s.store {
		if !now.After(e.expiresAt) {
			live = append(live, kv{k, e.createdAt})
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].key < live[j].key
		}
		return live[i].at.After(live[j].at)
	})
	out := make([]string, len(live))
	for i, e := range live {
		out[i] = e.key
	}
	return out
}

// Len counts entries, expired ones included until the next Sweep.
func (s *ResultStore[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *ResultStore[T]) Sweep() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, e := range s.store {
		if now.After(e.expiresAt) {
			delete(s.store, k)
			n++
		}
	}
	return n
}

// StartCleanup sweeps every interval until Close is called.
func (s *ResultStore[T]) StartCleanup(interval time.Duration) {
	if s == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *ResultStore[T]) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.stop) })
}
