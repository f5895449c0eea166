package nav

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// RoleResolver resolves the role of a session token in the background.
type RoleResolver interface {
	// Resolve starts resolving token, superseding any previous resolution.
	Resolve(ctx context.Context, token string)
	// Reset drops the current resolution and cancels any in-flight lookup.
	Reset()
	Current() RoleResolution
	// Subscribe registers fn to be called on every resolution change.
	Subscribe(fn func(RoleResolution)) (unsubscribe func())
}

type PanelOptions struct {
	IsMobile      bool
	MenuOpen      bool
	SetMenuOpen   func(open bool)
	Path          string
	FailurePolicy FailurePolicy
}

type PanelOptionFunc func(opts *PanelOptions)

func NewPanelOptions(funcs ...PanelOptionFunc) *PanelOptions {
	opts := &PanelOptions{
		SetMenuOpen:   func(open bool) {},
		Path:          RootPath,
		FailurePolicy: FailOpen,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

func WithMobile(isMobile bool) PanelOptionFunc {
	return func(opts *PanelOptions) {
		opts.IsMobile = isMobile
	}
}

func WithMenu(open bool, setMenuOpen func(open bool)) PanelOptionFunc {
	return func(opts *PanelOptions) {
		opts.MenuOpen = open
		if setMenuOpen != nil {
			opts.SetMenuOpen = setMenuOpen
		}
	}
}

func WithPath(path string) PanelOptionFunc {
	return func(opts *PanelOptions) {
		opts.Path = path
	}
}

func WithFailurePolicy(policy FailurePolicy) PanelOptionFunc {
	return func(opts *PanelOptions) {
		opts.FailurePolicy = policy
	}
}

// Panel is the navigation sidebar model. It is driven by its owner (SetSession,
// Navigate, SetMenuOpen, Hydrate) and turned into a PanelView by Render.
type Panel struct {
	table    *Table
	site     Site
	resolver RoleResolver

	mu            sync.Mutex
	isMobile      bool
	menuOpen      bool
	setMenuOpen   func(bool)
	failurePolicy FailurePolicy
	path          string
	session       Session
	mounted       bool
	hydrated      bool
	listeners     []func()
	unsubscribe   func()
}

func NewPanel(table *Table, site Site, resolver RoleResolver, funcs ...PanelOptionFunc) *Panel {
	opts := NewPanelOptions(funcs...)

	p := &Panel{
		table:         table,
		site:          site,
		resolver:      resolver,
		isMobile:      opts.IsMobile,
		menuOpen:      opts.MenuOpen,
		setMenuOpen:   opts.SetMenuOpen,
		failurePolicy: opts.FailurePolicy,
		path:          opts.Path,
	}

	p.unsubscribe = resolver.Subscribe(p.handleResolution)

	return p
}

// SetSession must be called on mount and whenever the session changes. A new
// token triggers a role lookup, losing the token resets the resolution.
func (p *Panel) SetSession(ctx context.Context, session Session) {
	p.mu.Lock()
	changed := !p.mounted || session.Token != p.session.Token
	p.session = session
	p.mounted = true
	p.mu.Unlock()

	if !changed {
		return
	}

	if session.Authenticated() {
		p.resolver.Resolve(ctx, session.Token)
	} else {
		p.resolver.Reset()
	}
}

// Navigate records a route change. On mobile an open menu gets closed.
func (p *Panel) Navigate(path string) {
	p.mu.Lock()

	if path == p.path {
		p.mu.Unlock()
		return
	}

	p.path = path

	shouldClose := p.isMobile && p.menuOpen
	if shouldClose {
		p.menuOpen = false
	}

	setMenuOpen := p.setMenuOpen
	p.mu.Unlock()

	if shouldClose {
		setMenuOpen(false)
	}
}

// SetMenuOpen updates the menu state owned by the caller.
func (p *Panel) SetMenuOpen(open bool) {
	p.mu.Lock()
	p.menuOpen = open
	p.mu.Unlock()
}

// Close asks the owner to close the menu, as the header close button does.
func (p *Panel) Close() {
	p.mu.Lock()
	p.menuOpen = false
	setMenuOpen := p.setMenuOpen
	p.mu.Unlock()

	setMenuOpen(false)
}

func (p *Panel) Hydrate() {
	p.mu.Lock()
	p.hydrated = true
	p.mu.Unlock()
}

// OnChange registers fn to be called when the panel needs to be rendered
// again because the role resolution of its session changed.
func (p *Panel) OnChange(fn func()) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Unmount detaches the panel from its resolver and cancels pending lookups.
func (p *Panel) Unmount() {
	p.unsubscribe()
	p.resolver.Reset()
}

// Visible reports whether Render produces anything.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return !(p.isMobile && !p.menuOpen)
}

// Render returns the view of the panel, or nil when it is hidden (mobile with
// a closed menu).
func (p *Panel) Render() (*PanelView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isMobile && !p.menuOpen {
		return nil, nil
	}

	view := &PanelView{
		Header: HeaderView{
			SiteName:  p.site.Name,
			ShowClose: p.isMobile,
		},
		Hydrated:      p.hydrated,
		Authenticated: p.session.Authenticated(),
		Mobile:        p.isMobile,
		Path:          p.path,
		Theme:         p.site.Theme,
		Footer: FooterView{
			PoweredByLabel: PoweredByLabel,
			PoweredByURL:   PoweredByURL,
			Version:        p.site.Version,
		},
	}

	if !p.hydrated {
		return view, nil
	}

	resolution := p.resolution()

	if p.session.Authenticated() {
		view.RolePending = resolution.State == ResolutionPending
		view.RoleFailed = resolution.State == ResolutionFailed && p.failurePolicy == FailWithNotice
	}

	env := NewRuleEnv(p.session, resolution.Effective(), p.site)

	entries, err := p.table.Entries(env)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	view.Links = MarkActive(entries, p.path)

	return view, nil
}

// resolution returns the current resolution if it belongs to the session
// token, a pending one otherwise.
func (p *Panel) resolution() RoleResolution {
	if !p.session.Authenticated() {
		return RoleResolution{}
	}

	current := p.resolver.Current()
	if current.Token != p.session.Token {
		return PendingResolution(p.session.Token)
	}

	return current
}

func (p *Panel) handleResolution(resolution RoleResolution) {
	p.mu.Lock()
	if resolution.Token != p.session.Token {
		p.mu.Unlock()
		return
	}

	listeners := make([]func(), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
