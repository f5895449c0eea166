package role

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_DeduplicatesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		calls.Add(1)
		<-release
		return nav.RoleAdmin, nil
	}))

	// Starts the background lookup
	pending := cache.Resolution(context.Background(), "t0k3n")
	assert.Equal(t, nav.ResolutionPending, pending.State)

	var wg sync.WaitGroup
	results := make([]nav.RoleResolution, 5)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := cache.Wait(context.Background(), "t0k3n")
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	// Let the waiters join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	for _, r := range results {
		assert.Equal(t, nav.ResolutionResolved, r.State)
		assert.Equal(t, nav.RoleAdmin, r.Role)
	}

	cached := cache.Resolution(context.Background(), "t0k3n")
	assert.Equal(t, nav.RoleAdmin, cached.Effective())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Expiration(t *testing.T) {
	var calls atomic.Int32

	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		calls.Add(1)
		return nav.RoleUser, nil
	}), WithTTL(time.Minute, time.Second))

	now := time.Now()
	cache.now = func() time.Time { return now }

	r, err := cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)
	assert.Equal(t, nav.ResolutionResolved, r.State)

	_, ok := cache.Peek("t0k3n")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)

	_, ok = cache.Peek("t0k3n")
	assert.False(t, ok)

	_, err = cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	var calls atomic.Int32

	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		calls.Add(1)
		return nav.RoleAdmin, nil
	}))

	_, err := cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate("t0k3n")

	_, ok := cache.Peek("t0k3n")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	r, err := cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)
	assert.Equal(t, nav.RoleAdmin, r.Role)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_Failure(t *testing.T) {
	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		return "", errors.New("connection refused")
	}))

	r, err := cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)
	assert.Equal(t, nav.ResolutionFailed, r.State)
	assert.Equal(t, nav.RoleUser, r.Effective())
}

func TestCache_WaitCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		<-release
		return nav.RoleUser, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r, err := cache.Wait(ctx, "t0k3n")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, nav.ResolutionPending, r.State)
}

func TestCache_Resolver(t *testing.T) {
	cache := NewCache(LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		return nav.RoleAdmin, nil
	}))

	_, err := cache.Wait(context.Background(), "t0k3n")
	require.NoError(t, err)

	resolver := cache.Resolver()
	assert.Equal(t, nav.ResolutionIdle, resolver.Current().State)

	resolver.Resolve(context.Background(), "t0k3n")
	assert.Equal(t, nav.RoleAdmin, resolver.Current().Effective())

	resolver.Reset()
	assert.Equal(t, nav.ResolutionIdle, resolver.Current().State)
}
