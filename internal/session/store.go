package session

import (
	"net/http"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
)

const TypeStore Type = "sessions"

type StoreOptions struct {
	Keys        []string `mapstructure:"keys" yaml:"keys"`
	Name        string   `mapstructure:"name" yaml:"name"`
	UsernameKey string   `mapstructure:"usernameKey" yaml:"usernameKey"`
	TokenKey    string   `mapstructure:"tokenKey" yaml:"tokenKey"`
}

func NewDefaultStoreOptions() StoreOptions {
	return StoreOptions{
		Name:        "sqtracker",
		UsernameKey: "username",
		TokenKey:    "token",
	}
}

// StoreSource reads the session from a gorilla/sessions store.
type StoreSource struct {
	store sessions.Store
	opts  StoreOptions
}

func NewStoreSource(store sessions.Store, opts StoreOptions) *StoreSource {
	return &StoreSource{store, opts}
}

func (s *StoreSource) Store() sessions.Store {
	return s.store
}

// Session implements Source.
func (s *StoreSource) Session(r *http.Request) (nav.Session, error) {
	sess, err := s.store.Get(r, s.opts.Name)
	if err != nil {
		return nav.Session{}, errors.WithStack(err)
	}

	if sess.IsNew {
		return nav.Session{}, nil
	}

	token, _ := sess.Values[s.opts.TokenKey].(string)
	if token == "" {
		return nav.Session{}, nil
	}

	username, _ := sess.Values[s.opts.UsernameKey].(string)

	return nav.Session{Username: username, Token: token}, nil
}

var _ Source = &StoreSource{}

func init() {
	Register(TypeStore, func(options map[string]any) (Source, error) {
		opts := NewDefaultStoreOptions()

		if err := decodeOptions(options, &opts); err != nil {
			return nil, errors.WithStack(err)
		}

		if len(opts.Keys) == 0 {
			return nil, errors.New("at least one session key is required")
		}

		keyPairs := make([][]byte, 0, len(opts.Keys))
		for _, k := range opts.Keys {
			keyPairs = append(keyPairs, []byte(k))
		}

		store := sessions.NewCookieStore(keyPairs...)
		store.Options.HttpOnly = true
		store.Options.SameSite = http.SameSiteLaxMode

		return NewStoreSource(store, opts), nil
	})
}
