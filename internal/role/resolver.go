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
)

type ResolverOptions struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

type ResolverOptionFunc func(opts *ResolverOptions)

func NewResolverOptions(funcs ...ResolverOptionFunc) *ResolverOptions {
	opts := &ResolverOptions{
		Timeout: 10 * time.Second,
		Retries: 0,
		Backoff: 500 * time.Millisecond,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

// WithTimeout bounds each resolution, retries included. Zero disables it.
func WithTimeout(timeout time.Duration) ResolverOptionFunc {
	return func(opts *ResolverOptions) {
		opts.Timeout = timeout
	}
}

func WithRetries(retries int, backoff time.Duration) ResolverOptionFunc {
	return func(opts *ResolverOptions) {
		opts.Retries = retries
		opts.Backoff = backoff
	}
}

// Resolver resolves the role of a single session. Each Resolve supersedes the
// previous one: the in-flight lookup is cancelled and its late result, if any,
// is discarded.
type Resolver struct {
	lookup Lookup
	opts   *ResolverOptions

	mu          sync.Mutex
	seq         uint64
	current     nav.RoleResolution
	cancel      context.CancelFunc
	subscribers map[uint64]func(nav.RoleResolution)
	nextID      uint64
}

func NewResolver(lookup Lookup, funcs ...ResolverOptionFunc) *Resolver {
	return &Resolver{
		lookup:      lookup,
		opts:        NewResolverOptions(funcs...),
		subscribers: make(map[uint64]func(nav.RoleResolution)),
	}
}

// Resolve implements nav.RoleResolver.
func (r *Resolver) Resolve(ctx context.Context, token string) {
	r.mu.Lock()

	if r.cancel != nil {
		r.cancel()
	}

	r.seq++
	seq := r.seq

	var (
		lookupCtx context.Context
		cancel    context.CancelFunc
	)

	if r.opts.Timeout > 0 {
		lookupCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
	} else {
		lookupCtx, cancel = context.WithCancel(ctx)
	}

	r.cancel = cancel
	r.current = nav.PendingResolution(token)
	subscribers := r.snapshot()

	r.mu.Unlock()

	notify(subscribers, nav.PendingResolution(token))

	lookupCtx = log.WithAttrs(lookupCtx, slog.String("lookup", xid.New().String()))

	go r.run(lookupCtx, cancel, seq, token)
}

func (r *Resolver) run(ctx context.Context, cancel context.CancelFunc, seq uint64, token string) {
	defer cancel()

	slog.DebugContext(ctx, "resolving role")

	role, err := lookupWithRetries(ctx, r.lookup, token, r.opts.Retries, r.opts.Backoff)

	var resolution nav.RoleResolution
	if err != nil {
		resolution = nav.FailedResolution(token, errors.WithStack(err))
	} else {
		resolution = nav.ResolvedResolution(token, role)
	}

	r.mu.Lock()

	if seq != r.seq {
		r.mu.Unlock()
		slog.DebugContext(ctx, "discarding superseded role resolution")
		return
	}

	r.current = resolution
	r.cancel = nil
	subscribers := r.snapshot()

	r.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "could not resolve role, falling back to least privileged role", log.Error(err))
	} else {
		slog.DebugContext(ctx, "role resolved", slog.String("role", string(role)))
	}

	notify(subscribers, resolution)
}

// Reset implements nav.RoleResolver.
func (r *Resolver) Reset() {
	r.mu.Lock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	r.seq++
	r.current = nav.RoleResolution{}
	subscribers := r.snapshot()

	r.mu.Unlock()

	notify(subscribers, nav.RoleResolution{})
}

// Current implements nav.RoleResolver.
func (r *Resolver) Current() nav.RoleResolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Subscribe implements nav.RoleResolver.
func (r *Resolver) Subscribe(fn func(nav.RoleResolution)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// snapshot must be called with r.mu held.
func (r *Resolver) snapshot() []func(nav.RoleResolution) {
	subscribers := make([]func(nav.RoleResolution), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subscribers = append(subscribers, fn)
	}

	return subscribers
}

func notify(subscribers []func(nav.RoleResolution), resolution nav.RoleResolution) {
	for _, fn := range subscribers {
		fn(resolution)
	}
}

func lookupWithRetries(ctx context.Context, lookup Lookup, token string, retries int, backoff time.Duration) (nav.Role, error) {
	for attempt := 0; ; attempt++ {
		role, err := lookup.GetRole(ctx, token)
		if err == nil {
			return role, nil
		}

		if attempt >= retries || ctx.Err() != nil {
			return "", errors.WithStack(err)
		}

		delay := backoff << attempt

		slog.DebugContext(ctx, "role lookup failed, retrying", log.Error(err), slog.Int("attempt", attempt+1), slog.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
}

var _ nav.RoleResolver = &Resolver{}
