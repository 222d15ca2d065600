// Package sticky implements the two stickiness leases the dispatcher
// consults before picking a candidate: a provider-wide IP lock, and a
// per-(auth_key, binding) token-binding lock. Both ride the shared
// cache.Store's CAS primitive and never block — a store error degrades
// to "no lock held" rather than failing the request.
package sticky

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/infrastructure/cache"
)

// Locks coordinates both stickiness mechanisms over a shared store.
type Locks struct {
	store  cache.Store
	logger *zap.Logger
}

func New(store cache.Store, logger *zap.Logger) *Locks {
	return &Locks{store: store, logger: logger}
}

func providerLockKey(providerID uint) string {
	return fmt.Sprintf("sticky:provider:%d", providerID)
}

func tokenLockKey(authKeyID, bindingID uint) string {
	return fmt.Sprintf("sticky:token:%d:%d", authKeyID, bindingID)
}

// AcquireProviderIP claims providerID's IP lease for remoteIP, or
// confirms remoteIP already holds it. It reports allowed=false only
// when a different IP currently holds the lease — that case is a
// dispatcher-level "filtered candidate," not a failed attempt. A store
// error is treated as allowed=true (no lock enforced) per the
// never-block rule.
func (l *Locks) AcquireProviderIP(ctx context.Context, providerID uint, remoteIP string, lockMinutes int) bool {
	if lockMinutes <= 0 {
		return true
	}
	key := providerLockKey(providerID)
	ttl := time.Duration(lockMinutes) * time.Minute

	ok, err := l.store.CompareAndSwap(ctx, key, "", remoteIP, ttl)
	if err != nil {
		l.logger.Warn("provider ip-lock store error, degrading to unlocked", zap.Uint("provider_id", providerID), zap.Error(err))
		return true
	}
	if ok {
		return true
	}

	// Lock already held: confirm holder, and refresh if it's us.
	ok, err = l.store.CompareAndSwap(ctx, key, remoteIP, remoteIP, ttl)
	if err != nil {
		l.logger.Warn("provider ip-lock refresh error, degrading to unlocked", zap.Uint("provider_id", providerID), zap.Error(err))
		return true
	}
	return ok
}

// AcquireToken claims the (authKeyID, bindingID) lease, or confirms and
// refreshes it when the caller already holds it. Leases are keyed per
// pair: other tokens may use bindingID freely, and a lease held on one
// binding does not stop authKeyID from acquiring a lease on another.
func (l *Locks) AcquireToken(ctx context.Context, authKeyID, bindingID uint, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	key := tokenLockKey(authKeyID, bindingID)

	ok, err := l.store.CompareAndSwap(ctx, key, "", "held", ttl)
	if err != nil {
		l.logger.Warn("token-binding lock store error, degrading to unlocked", zap.Uint("auth_key_id", authKeyID), zap.Uint("binding_id", bindingID), zap.Error(err))
		return true
	}
	if ok {
		return true
	}
	ok, err = l.store.CompareAndSwap(ctx, key, "held", "held", ttl)
	if err != nil {
		return true
	}
	return ok
}

// Peek reports whether authKeyID already holds an active token-binding
// lease on bindingID, without creating one. The dispatcher uses this to
// prefer a candidate the caller is already pinned to ahead of running
// the full selector.
func (l *Locks) Peek(ctx context.Context, authKeyID, bindingID uint) bool {
	key := tokenLockKey(authKeyID, bindingID)
	ok, err := l.store.CompareAndSwap(ctx, key, "held", "held", 120*time.Second)
	if err != nil {
		return false
	}
	return ok
}
