package session

import (
	"net/http"
	"net/url"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/pkg/errors"
)

const TypeCookie Type = "cookie"

type CookieOptions struct {
	UsernameCookie string `mapstructure:"usernameCookie" yaml:"usernameCookie"`
	TokenCookie    string `mapstructure:"tokenCookie" yaml:"tokenCookie"`
}

func NewDefaultCookieOptions() CookieOptions {
	return CookieOptions{
		UsernameCookie: "username",
		TokenCookie:    "token",
	}
}

// CookieSource reads the session from the plain cookies set by the tracker
// front-end on login.
type CookieSource struct {
	opts CookieOptions
}

func NewCookieSource(opts CookieOptions) *CookieSource {
	return &CookieSource{opts}
}

// Session implements Source.
func (s *CookieSource) Session(r *http.Request) (nav.Session, error) {
	token, err := readCookie(r, s.opts.TokenCookie)
	if err != nil {
		return nav.Session{}, errors.WithStack(err)
	}

	if token == "" {
		return nav.Session{}, nil
	}

	username, err := readCookie(r, s.opts.UsernameCookie)
	if err != nil {
		return nav.Session{}, errors.WithStack(err)
	}

	return nav.Session{Username: username, Token: token}, nil
}

func readCookie(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}

	if err != nil {
		return "", errors.WithStack(err)
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return cookie.Value, nil
	}

	return value, nil
}

var _ Source = &CookieSource{}

func init() {
	Register(TypeCookie, func(options map[string]any) (Source, error) {
		opts := NewDefaultCookieOptions()

		if err := decodeOptions(options, &opts); err != nil {
			return nil, errors.WithStack(err)
		}

		return NewCookieSource(opts), nil
	})
}
