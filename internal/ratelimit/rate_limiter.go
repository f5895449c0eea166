package ratelimit

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/bornholm/sqnav/internal/session"
	"github.com/bornholm/sqnav/internal/syncx"
	"github.com/bornholm/sqnav/pkg/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type RateLimiter struct {
	rate    rate.Limit
	burst   int
	clients syncx.Map[string, *rate.Limiter]
}

type GetClientKeyFunc func(r *http.Request) (string, error)

func (l *RateLimiter) Middleware(getClientKey GetClientKeyFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			clientKey, err := getClientKey(r)
			if err != nil {
				slog.ErrorContext(ctx, "could not retrieve client key", log.Error(errors.WithStack(err)))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			limiter, _ := l.clients.LoadOrStore(clientKey, rate.NewLimiter(l.rate, l.burst))

			if !limiter.Allow() {
				slog.WarnContext(ctx, "rate limit exceeded", slog.String("client", clientKey))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func New(rate rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate,
		burst: burst,
	}
}

// SessionKey identifies authenticated clients by their username and the
// others by their remote address. It expects the session middleware to run
// first and must only be used with session sources the client cannot forge.
func SessionKey(r *http.Request) (string, error) {
	sess := session.ContextSession(r.Context())
	if sess.Authenticated() {
		return "user-" + sess.Username, nil
	}

	return RemoteAddrKey(r)
}

// RemoteAddrKey identifies clients by their remote address.
func RemoteAddrKey(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", errors.Wrapf(err, "could not parse remote address '%s'", r.RemoteAddr)
	}

	return "addr-" + host, nil
}
