package setup

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bornholm/sqnav/internal/config"
	"github.com/bornholm/sqnav/internal/frontend"
	"github.com/bornholm/sqnav/internal/pprof"
	"github.com/bornholm/sqnav/internal/ratelimit"
	"github.com/bornholm/sqnav/internal/session"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	sloghttp "github.com/samber/slog-http"
)

func NewHandlerFromConfig(ctx context.Context, conf *config.Config) (http.Handler, error) {
	mux := &http.ServeMux{}

	slogMiddleware := sloghttp.New(slog.Default())

	site, err := NewSiteFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	table, err := NewTableFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cache, err := NewRoleCacheFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	failurePolicy, err := NewFailurePolicyFromConfig(conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	source, err := NewSessionSourceFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sessionMiddleware := session.Middleware(source)

	frontendHandler := frontend.NewHandler(
		table, site, cache,
		frontend.WithFailurePolicy(failurePolicy),
		frontend.WithPollDelay(time.Duration(*conf.Role.PollDelay)),
		frontend.WithCookies(string(conf.HTTP.Menu.CookieName), string(conf.HTTP.Menu.PathCookie)),
	)

	rateLimiter := ratelimit.New(rate.Limit(conf.HTTP.RateLimit.Rate), int(conf.HTTP.RateLimit.Burst))
	rateLimiterMiddleware := rateLimiter.Middleware(NewRateLimitKeyFromConfig(conf))

	// Every route may trigger a role lookup
	mux.Handle("/", slogMiddleware(sessionMiddleware(rateLimiterMiddleware(frontendHandler))))

	if conf.HTTP.Pprof {
		slog.WarnContext(ctx, "profiling endpoints enabled", slog.String("prefix", "/debug/pprof"))
		mux.Handle("/debug/pprof/", pprof.NewHandler("/debug/pprof", pprof.WithVars(cacheVars(cache))))
	}

	return mux, nil
}

// NewRateLimitKeyFromConfig keys clients by username only when the session
// source is signed, plain cookies can be rotated at will.
func NewRateLimitKeyFromConfig(conf *config.Config) ratelimit.GetClientKeyFunc {
	if session.Type(conf.Session.Type) == session.TypeStore {
		return ratelimit.SessionKey
	}

	return ratelimit.RemoteAddrKey
}
