package role

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

type Lookup interface {
	GetRole(ctx context.Context, token string) (nav.Role, error)
}

type LookupFunc func(ctx context.Context, token string) (nav.Role, error)

func (fn LookupFunc) GetRole(ctx context.Context, token string) (nav.Role, error) {
	return fn(ctx, token)
}

const (
	RolePath            = "/account/get-role"
	defaultMaxBodyBytes = 1024
)

// HTTPLookup asks the tracker API for the role attached to a token, sending it
// as a bearer credential.
type HTTPLookup struct {
	endpoint     string
	client       *http.Client
	maxBodyBytes int64
}

type HTTPLookupOptions struct {
	Client       *http.Client
	MaxBodyBytes int64
}

type HTTPLookupOptionFunc func(opts *HTTPLookupOptions)

func NewHTTPLookupOptions(funcs ...HTTPLookupOptionFunc) *HTTPLookupOptions {
	opts := &HTTPLookupOptions{
		Client:       http.DefaultClient,
		MaxBodyBytes: defaultMaxBodyBytes,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

func WithHTTPClient(client *http.Client) HTTPLookupOptionFunc {
	return func(opts *HTTPLookupOptions) {
		opts.Client = client
	}
}

func WithMaxBodyBytes(max int64) HTTPLookupOptionFunc {
	return func(opts *HTTPLookupOptions) {
		opts.MaxBodyBytes = max
	}
}

func NewHTTPLookup(apiURL string, funcs ...HTTPLookupOptionFunc) (*HTTPLookup, error) {
	opts := NewHTTPLookupOptions(funcs...)

	endpoint, err := url.JoinPath(apiURL, RolePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build role endpoint from '%s'", apiURL)
	}

	return &HTTPLookup{
		endpoint:     endpoint,
		client:       opts.Client,
		maxBodyBytes: opts.MaxBodyBytes,
	}, nil
}

func (l *HTTPLookup) Endpoint() string {
	return l.endpoint
}

// GetRole implements Lookup.
func (l *HTTPLookup) GetRole(ctx context.Context, token string) (nav.Role, error) {
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, l.client),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return "", errors.WithStack(err)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", errors.Wrapf(ErrUnexpectedStatus, "role endpoint answered '%s'", res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, l.maxBodyBytes))
	if err != nil {
		return "", errors.WithStack(err)
	}

	return nav.ParseRole(string(body)), nil
}

var _ Lookup = &HTTPLookup{}
