package frontend

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/bornholm/sqnav/internal/role"
	"github.com/bornholm/sqnav/internal/session"
	"github.com/bornholm/sqnav/internal/ui"
	"github.com/bornholm/sqnav/pkg/log"
	"github.com/pkg/errors"
)

type Options struct {
	FailurePolicy nav.FailurePolicy
	PollDelay     time.Duration
	MenuCookie    string
	PathCookie    string
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		FailurePolicy: nav.FailOpen,
		PollDelay:     time.Second,
		MenuCookie:    "sqnav_menu",
		PathCookie:    "sqnav_path",
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

func WithFailurePolicy(policy nav.FailurePolicy) OptionFunc {
	return func(opts *Options) {
		opts.FailurePolicy = policy
	}
}

func WithPollDelay(delay time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.PollDelay = delay
	}
}

func WithCookies(menu, path string) OptionFunc {
	return func(opts *Options) {
		opts.MenuCookie = menu
		opts.PathCookie = path
	}
}

type Handler struct {
	table *nav.Table
	site  nav.Site
	cache *role.Cache
	opts  *Options
	mux   *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(table *nav.Table, site nav.Site, cache *role.Cache, funcs ...OptionFunc) *Handler {
	handler := &Handler{
		table: table,
		site:  site,
		cache: cache,
		opts:  NewOptions(funcs...),
		mux:   &http.ServeMux{},
	}

	handler.mux.HandleFunc("GET "+ui.NavPath, handler.serveNav)
	handler.mux.HandleFunc("GET "+ui.MenuPath+"/{state}", handler.serveMenu)
	handler.mux.HandleFunc("GET /", handler.servePage)

	return handler
}

func (h *Handler) newPanel(w http.ResponseWriter, r *http.Request, path string) *nav.Panel {
	panel := nav.NewPanel(
		h.table, h.site, h.cache.Resolver(),
		nav.WithMobile(IsMobile(r)),
		nav.WithMenu(h.isMenuOpen(r), func(open bool) {
			h.setMenuCookie(w, open)
		}),
		nav.WithPath(path),
		nav.WithFailurePolicy(h.opts.FailurePolicy),
	)

	panel.SetSession(r.Context(), session.ContextSession(r.Context()))

	return panel
}

// servePage renders a full page. The panel is rendered in its initial state
// and hydrated by the first request to the navigation fragment.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Destinations are matched in their escaped form, as generated by the table
	path := r.URL.EscapedPath()

	if path == nav.LogoutPath {
		// The role of a token being logged out must not outlive it
		if sess := session.ContextSession(ctx); sess.Authenticated() {
			defer h.cache.Invalidate(sess.Token)
		}
	}

	panel := h.newPanel(w, r, h.previousPath(r, path))
	defer panel.Unmount()

	panel.Navigate(path)
	h.setPathCookie(w, path)

	view, err := panel.Render()
	if err != nil {
		slog.ErrorContext(ctx, "could not render navigation panel", log.Error(errors.WithStack(err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := PageTemplateData{
		HeadTemplateData: ui.HeadTemplateData{
			PageTitle: h.site.Name,
		},
		Nav:    ui.NewNavTemplateData(view, path, h.opts.PollDelay),
		Mobile: IsMobile(r),
		Title:  h.site.Name,
		Path:   path,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		slog.ErrorContext(ctx, "could not execute page template", log.Error(errors.WithStack(err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// serveNav renders the hydrated panel alone.
func (h *Handler) serveNav(w http.ResponseWriter, r *http.Request) {
	path := requestedPath(r)

	panel := h.newPanel(w, r, path)
	defer panel.Unmount()

	panel.Hydrate()

	h.renderNav(w, r, panel, path)
}

// serveMenu opens or closes the mobile menu. Regular requests are redirected
// back to the page, htmx requests get the updated panel.
func (h *Handler) serveMenu(w http.ResponseWriter, r *http.Request) {
	var open bool

	switch r.PathValue("state") {
	case "open":
		open = true
	case "close":
		open = false
	default:
		http.NotFound(w, r)
		return
	}

	path := requestedPath(r)

	h.setMenuCookie(w, open)

	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	panel := h.newPanel(w, r, path)
	defer panel.Unmount()

	panel.SetMenuOpen(open)
	panel.Hydrate()

	h.renderNav(w, r, panel, path)
}

func (h *Handler) renderNav(w http.ResponseWriter, r *http.Request, panel *nav.Panel, path string) {
	ctx := r.Context()

	view, err := panel.Render()
	if err != nil {
		slog.ErrorContext(ctx, "could not render navigation panel", log.Error(errors.WithStack(err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := templates.ExecuteTemplate(w, "nav", ui.NewNavTemplateData(view, path, h.opts.PollDelay)); err != nil {
		slog.ErrorContext(ctx, "could not execute navigation template", log.Error(errors.WithStack(err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

var _ http.Handler = &Handler{}
