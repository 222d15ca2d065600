package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

func (e entry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// MemoryStore is the always-present, single-process Store implementation.
// It is used whenever cache.backend is not "redis", following the
// teacher's preference for a working zero-dependency fallback alongside
// an optional networked backend.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]entry
	versions map[string]int64
	counters map[string]entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]entry),
		versions: make(map[string]int64),
		counters: make(map[string]entry),
	}
}

func (s *MemoryStore) currentVersion(namespace string) int64 {
	return s.versions[namespace]
}

func (s *MemoryStore) GetJSON(_ context.Context, namespace, key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[namespacedKey(namespace, key, s.currentVersion(namespace))]
	if !ok || !e.live(time.Now()) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) SetJSON(_ context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	s.values[namespacedKey(namespace, key, s.currentVersion(namespace))] = entry{data: data, expires: expires}
	return nil
}

func (s *MemoryStore) BumpNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[namespace]++
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.counters[key]
	var current int64
	if ok && e.live(now) {
		current = decodeCounter(e.data)
	}
	current += delta

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	s.counters[key] = entry{data: encodeCounter(current), expires: expires}
	return current, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key, oldVal, newVal string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.values[key]
	current := ""
	if ok && e.live(now) {
		current = string(e.data)
	}
	if current != oldVal {
		return false, nil
	}

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	s.values[key] = entry{data: []byte(newVal), expires: expires}
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func encodeCounter(v int64) []byte {
	b, _ := json.Marshal(v)
	return b
}

func decodeCounter(b []byte) int64 {
	var v int64
	_ = json.Unmarshal(b, &v)
	return v
}
