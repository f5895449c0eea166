package log

import (
	"log/slog"
	"net/url"
)

var scrubbedQueryParams = []string{"token", "access_token"}

// ScrubbedURL returns an attribute holding rawURL with its user info and
// credential-like query parameters masked.
func ScrubbedURL(name string, rawURL string) slog.Attr {
	u, err := url.Parse(rawURL)
	if err != nil {
		return slog.String(name, rawURL)
	}

	scrubbed := u.JoinPath()

	if u.User != nil {
		scrubbed.User = url.UserPassword("xxx", "xxx")
	}

	if scrubbed.RawQuery != "" {
		query := scrubbed.Query()
		for _, param := range scrubbedQueryParams {
			if query.Has(param) {
				query.Set(param, "xxx")
			}
		}
		scrubbed.RawQuery = query.Encode()
	}

	return slog.String(name, scrubbed.String())
}
