package frontend

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bornholm/sqnav/internal/nav"
)

const (
	menuOpen   = "open"
	menuClosed = "closed"
)

func (h *Handler) isMenuOpen(r *http.Request) bool {
	cookie, err := r.Cookie(h.opts.MenuCookie)
	if err != nil {
		return false
	}

	return cookie.Value == menuOpen
}

func (h *Handler) setMenuCookie(w http.ResponseWriter, open bool) {
	value := menuClosed
	if open {
		value = menuOpen
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.MenuCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// previousPath returns the path of the last rendered page, the current one if
// unknown.
func (h *Handler) previousPath(r *http.Request, current string) string {
	cookie, err := r.Cookie(h.opts.PathCookie)
	if err != nil {
		return current
	}

	if !isLocalPath(cookie.Value) {
		return current
	}

	return cookie.Value
}

func (h *Handler) setPathCookie(w http.ResponseWriter, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.PathCookie,
		Value:    path,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestedPath returns the "path" query parameter if it is a local path.
func requestedPath(r *http.Request) string {
	path := r.URL.Query().Get("path")
	if !isLocalPath(path) {
		return nav.RootPath
	}

	return path
}

// isLocalPath reports whether path can be used as a same-origin redirect
// target.
func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return false
	}

	// Browsers drop control characters, "/\t/host" would become "//host"
	if strings.ContainsFunc(path, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return false
	}

	u, err := url.Parse(path)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == ""
}
