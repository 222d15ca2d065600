// Package cache provides the two-tier key/value store the resolver,
// sticky locks and rate limiter coordinate through: an always-on
// in-process MemoryStore, and an optional RedisStore for multi-instance
// deployments.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the coordination primitive shared by the resolver cache,
// stickiness locks and distributed counters. Every key read or written
// through GetJSON/SetJSON is namespace-qualified; BumpNamespace
// invalidates every key in that namespace without enumerating them.
type Store interface {
	GetJSON(ctx context.Context, namespace, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	// BumpNamespace increments the namespace's version counter, making
	// every previously-written key for that namespace unreachable.
	BumpNamespace(ctx context.Context, namespace string) error
	// Increment atomically adds delta to key's counter value and returns
	// the result, creating the key at delta if absent.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	// CompareAndSwap sets key to newVal with ttl only if the current
	// value equals oldVal (oldVal == "" matches an absent key); it
	// reports whether the swap happened. This backs both stickiness
	// locks: callers must treat a store error as "no lock acquired" and
	// degrade to unlocked dispatch rather than fail the request.
	CompareAndSwap(ctx context.Context, key, oldVal, newVal string, ttl time.Duration) (bool, error)
	// Delete removes a key outright, used to release a CAS lock early.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss is returned by nothing directly — GetJSON reports a miss via
// its bool return — but is kept for callers that want a sentinel to
// wrap, matching the shape of a conventional cache-miss error.
var ErrMiss = fmt.Errorf("cache: key not found")

func namespacedKey(namespace, key string, version int64) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, version, key)
}

func versionKey(namespace string) string {
	return fmt.Sprintf("ns:%s:version", namespace)
}
