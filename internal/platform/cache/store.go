// Package cache is a process-local TTL store with single-flight loading.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/contest-awards/internal/platform/resilience"
)

var errNilLoader = errors.New("cache: loader is required")

type item struct {
	value   any
	expires time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expires.IsZero() && !i.expires.After(now)
}

// LookupObserver is told whether each keyed lookup was served from memory.
type LookupObserver interface {
	ObserveCacheLookup(hit bool)
}

type Option func(*Store)

func WithLookupObserver(observer LookupObserver) Option {
	return func(s *Store) { s.observer = observer }
}

// Store caches read models. A zero TTL keeps entries until they are deleted.
type Store struct {
	mu       sync.RWMutex
	items    map[string]item
	ttl      time.Duration
	loads    resilience.SingleFlight[any]
	observer LookupObserver
	now      func() time.Time
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if ok && it.expired(s.now()) {
		s.mu.Lock()
		if current, still := s.items[key]; still && current.expired(s.now()) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		ok = false
	}
	if !ok {
		return nil, false
	}
	return it.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	it := item{value: value}
	if s.ttl > 0 {
		it.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeletePrefix drops every key starting with prefix. An empty prefix is a
// no-op; use Flush to clear the store.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Flush(_ context.Context) {
	s.mu.Lock()
	clear(s.items)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// GetOrLoad returns the cached value for key or runs loader once among
// concurrent callers and caches its result. Errors are never cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, errNilLoader
	}
	if key == "" {
		return loader(ctx)
	}

	value, ok := s.Get(ctx, key)
	s.observe(ok)
	if ok {
		return value, nil
	}

	value, err, _ := s.loads.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	return value, err
}

func (s *Store) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCacheLookup(hit)
	}
}

// Load is a typed GetOrLoad. A cached value of another type is reloaded.
func Load[T any](ctx context.Context, s *Store, key string, loader func(context.Context) (T, error)) (T, error) {
	value, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		s.Delete(ctx, key)
		return loader(ctx)
	}
	return typed, nil
}
