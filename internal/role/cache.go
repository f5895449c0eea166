package role

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/bornholm/sqnav/pkg/log"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"
)

type CacheOptions struct {
	TTL        time.Duration
	FailureTTL time.Duration
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
}

type CacheOptionFunc func(opts *CacheOptions)

func NewCacheOptions(funcs ...CacheOptionFunc) *CacheOptions {
	opts := &CacheOptions{
		TTL:        5 * time.Minute,
		FailureTTL: 10 * time.Second,
		Timeout:    10 * time.Second,
		Backoff:    500 * time.Millisecond,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

func WithTTL(ttl, failureTTL time.Duration) CacheOptionFunc {
	return func(opts *CacheOptions) {
		opts.TTL = ttl
		opts.FailureTTL = failureTTL
	}
}

func WithLookupTimeout(timeout time.Duration) CacheOptionFunc {
	return func(opts *CacheOptions) {
		opts.Timeout = timeout
	}
}

func WithLookupRetries(retries int, backoff time.Duration) CacheOptionFunc {
	return func(opts *CacheOptions) {
		opts.Retries = retries
		opts.Backoff = backoff
	}
}

type cacheEntry struct {
	resolution nav.RoleResolution
	expiresAt  time.Time
}

// Cache shares role resolutions across requests. Lookups run detached from
// the request that triggered them and concurrent lookups of the same token
// share a single call to the endpoint.
type Cache struct {
	lookup Lookup
	opts   *CacheOptions
	now    func() time.Time
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCache(lookup Lookup, funcs ...CacheOptionFunc) *Cache {
	return &Cache{
		lookup:  lookup,
		opts:    NewCacheOptions(funcs...),
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Resolution returns the known resolution of token. When there is none, or it
// expired, a background lookup is started and a pending resolution returned.
func (c *Cache) Resolution(ctx context.Context, token string) nav.RoleResolution {
	if token == "" {
		return nav.RoleResolution{}
	}

	c.mu.Lock()

	if resolution, ok := c.get(token); ok {
		c.mu.Unlock()
		return resolution
	}

	pending := nav.PendingResolution(token)
	c.entries[token] = cacheEntry{resolution: pending}

	c.mu.Unlock()

	ch := c.do(ctx, token)

	go func() {
		result := <-ch
		c.store(token, result)
	}()

	return pending
}

// Peek returns the known resolution of token without triggering a lookup.
func (c *Cache) Peek(token string) (nav.RoleResolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.get(token)
}

// Wait returns the resolution of token, joining the in-flight lookup if any.
func (c *Cache) Wait(ctx context.Context, token string) (nav.RoleResolution, error) {
	if token == "" {
		return nav.RoleResolution{}, nil
	}

	c.mu.Lock()
	resolution, ok := c.get(token)
	c.mu.Unlock()

	if ok && resolution.State != nav.ResolutionPending {
		return resolution, nil
	}

	select {
	case <-ctx.Done():
		return nav.PendingResolution(token), errors.WithStack(ctx.Err())
	case result := <-c.do(ctx, token):
		return c.store(token, result), nil
	}
}

func (c *Cache) Invalidate(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()

	c.group.Forget(token)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// get must be called with c.mu held.
func (c *Cache) get(token string) (nav.RoleResolution, bool) {
	entry, exists := c.entries[token]
	if !exists {
		return nav.RoleResolution{}, false
	}

	if entry.resolution.State == nav.ResolutionPending {
		return entry.resolution, true
	}

	if !c.now().Before(entry.expiresAt) {
		return nav.RoleResolution{}, false
	}

	return entry.resolution, true
}

func (c *Cache) do(ctx context.Context, token string) <-chan singleflight.Result {
	return c.group.DoChan(token, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
		defer cancel()

		lookupCtx = log.WithAttrs(lookupCtx, slog.String("lookup", xid.New().String()))

		slog.DebugContext(lookupCtx, "resolving role")

		role, err := lookupWithRetries(lookupCtx, c.lookup, token, c.opts.Retries, c.opts.Backoff)
		if err != nil {
			slog.WarnContext(lookupCtx, "could not resolve role, falling back to least privileged role", log.Error(err))
			return nil, errors.WithStack(err)
		}

		slog.DebugContext(lookupCtx, "role resolved", slog.String("role", string(role)))

		return role, nil
	})
}

func (c *Cache) store(token string, result singleflight.Result) nav.RoleResolution {
	var (
		resolution nav.RoleResolution
		ttl        time.Duration
	)

	if result.Err != nil {
		resolution = nav.FailedResolution(token, result.Err)
		ttl = c.opts.FailureTTL
	} else {
		resolution = nav.ResolvedResolution(token, result.Val.(nav.Role))
		ttl = c.opts.TTL
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(now)

	c.entries[token] = cacheEntry{
		resolution: resolution,
		expiresAt:  now.Add(ttl),
	}

	return resolution
}

// prune must be called with c.mu held.
func (c *Cache) prune(now time.Time) {
	for token, entry := range c.entries {
		if entry.resolution.State == nav.ResolutionPending {
			continue
		}

		if !now.Before(entry.expiresAt) {
			delete(c.entries, token)
		}
	}
}

// Resolver returns a nav.RoleResolver backed by the cache, suitable for a
// panel living for the duration of a single request.
func (c *Cache) Resolver() nav.RoleResolver {
	return &cacheResolver{cache: c}
}

type cacheResolver struct {
	cache *Cache
	mu    sync.Mutex
	token string
}

// Resolve implements nav.RoleResolver.
func (r *cacheResolver) Resolve(ctx context.Context, token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()

	r.cache.Resolution(ctx, token)
}

// Reset implements nav.RoleResolver.
func (r *cacheResolver) Reset() {
	r.mu.Lock()
	r.token = ""
	r.mu.Unlock()
}

// Current implements nav.RoleResolver.
func (r *cacheResolver) Current() nav.RoleResolution {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()

	if token == "" {
		return nav.RoleResolution{}
	}

	resolution, ok := r.cache.Peek(token)
	if !ok {
		return nav.PendingResolution(token)
	}

	return resolution
}

// Subscribe implements nav.RoleResolver. Cache backed panels are re-rendered by
// polling, so there is nothing to notify.
func (r *cacheResolver) Subscribe(fn func(nav.RoleResolution)) func() {
	return func() {}
}

var _ nav.RoleResolver = &cacheResolver{}
