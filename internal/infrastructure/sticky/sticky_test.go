package sticky

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/infrastructure/cache"
)

func TestLocks_ProviderIPLockDisabledWhenZeroMinutes(t *testing.T) {
	l := New(cache.NewMemoryStore(), zap.NewNop())
	assert.True(t, l.AcquireProviderIP(context.Background(), 1, "1.1.1.1", 0))
	assert.True(t, l.AcquireProviderIP(context.Background(), 1, "2.2.2.2", 0))
}

func TestLocks_ProviderIPLockPinsFirstIP(t *testing.T) {
	l := New(cache.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	assert.True(t, l.AcquireProviderIP(ctx, 1, "1.1.1.1", 5))
	assert.True(t, l.AcquireProviderIP(ctx, 1, "1.1.1.1", 5), "the lease holder can keep using the provider")
	assert.False(t, l.AcquireProviderIP(ctx, 1, "2.2.2.2", 5), "a different IP must be refused while the lease is live")
}

func TestLocks_TokenBindingLockPinsAuthKey(t *testing.T) {
	l := New(cache.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	assert.True(t, l.AcquireToken(ctx, 10, 100, time.Minute))
	assert.True(t, l.AcquireToken(ctx, 10, 100, time.Minute), "the same auth key re-acquiring its own binding must succeed")
	assert.False(t, l.AcquireToken(ctx, 10, 200, time.Minute), "the same auth key cannot pick a different binding while its lease is live")

	// A different auth key is free to use binding 100 concurrently.
	assert.True(t, l.AcquireToken(ctx, 20, 100, time.Minute))
}
