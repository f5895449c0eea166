package frontend

import (
	"net/http"
	"strings"
)

// IsMobile reports whether the request comes from a mobile device. The
// "mobile" query parameter ("1" or "0") takes precedence over the client hint
// and the user agent.
func IsMobile(r *http.Request) bool {
	switch r.URL.Query().Get("mobile") {
	case "1":
		return true
	case "0":
		return false
	}

	if r.Header.Get("Sec-CH-UA-Mobile") == "?1" {
		return true
	}

	return strings.Contains(r.UserAgent(), "Mobi")
}
