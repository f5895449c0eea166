package session

import (
	"context"

	"github.com/bornholm/sqnav/internal/nav"
)

type contextKey string

const contextKeySession contextKey = "session"

// ContextSession returns the session stored by the middleware, an empty one
// if none.
func ContextSession(ctx context.Context) nav.Session {
	sess, ok := ctx.Value(contextKeySession).(nav.Session)
	if !ok {
		return nav.Session{}
	}

	return sess
}

func WithContextSession(ctx context.Context, sess nav.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, sess)
}
