package session

import (
	"log/slog"
	"net/http"

	"github.com/bornholm/sqnav/pkg/log"
	"github.com/pkg/errors"
)

// Middleware reads the session of each request from source and stores it in the
// request context. Unreadable sessions are logged and treated as anonymous.
func Middleware(source Source) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := source.Session(r)
			if err != nil {
				slog.WarnContext(ctx, "could not read session", log.Error(errors.WithStack(err)))
			}

			if sess.Authenticated() {
				ctx = log.WithAttrs(ctx, slog.String("user", sess.Username))
			}

			ctx = WithContextSession(ctx, sess)

			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}
