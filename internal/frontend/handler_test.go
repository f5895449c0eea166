package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/bornholm/sqnav/internal/role"
	"github.com/bornholm/sqnav/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestHandler(t *testing.T, lookup role.Lookup, funcs ...OptionFunc) (*Handler, *role.Cache) {
	t.Helper()

	table, err := nav.NewTable(nav.DefaultRows()...)
	require.NoError(t, err)

	site := nav.Site{
		Name:          "sqtracker",
		AllowRegister: nav.RegistrationInvite,
		Version:       "1.0.0",
		Categories:    []string{"Movies", "TV"},
		Theme:         nav.DefaultTheme(),
	}

	cache := role.NewCache(lookup, role.WithLookupTimeout(time.Second))

	return NewHandler(table, site, cache, funcs...), cache
}

func staticLookup(r nav.Role) role.Lookup {
	return role.LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		return r, nil
	})
}

func withSession(req *http.Request, username, token string) *http.Request {
	ctx := session.WithContextSession(req.Context(), nav.Session{Username: username, Token: token})
	return req.WithContext(ctx)
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, *html.Node) {
	t.Helper()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	doc, err := html.Parse(strings.NewReader(res.Body.String()))
	require.NoError(t, err)

	return res, doc
}

func linkDestinations(doc *html.Node) []string {
	destinations := make([]string, 0)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var (
				href    string
				navLink bool
			)

			for _, a := range n.Attr {
				switch a.Key {
				case "href":
					href = a.Val
				case "class":
					navLink = strings.Contains(a.Val, "nav-link")
				}
			}

			if navLink {
				destinations = append(destinations, href)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return destinations
}

func findByID(doc *html.Node, id string) *html.Node {
	var found *html.Node

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}

		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return found
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func responseCookie(res *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestPageRendersPanelBeforeHydration(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	assert.Empty(t, linkDestinations(doc), "no link before hydration")

	panel := findByID(doc, "nav-panel")
	require.NotNil(t, panel)

	container := findByID(doc, "nav")
	require.NotNil(t, container)
	assert.Equal(t, "/nav?path=%2Fsearch", attrOf(container, "hx-get"))

	assert.Contains(t, res.Body.String(), "v1.0.0")

	pathCookie := responseCookie(res, "sqnav_path")
	require.NotNil(t, pathCookie)
	assert.Equal(t, "/search", pathCookie.Value)
}

func TestNavUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/nav?path=/login", nil)
	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{"/login", "/register"}, linkDestinations(doc))
	assert.Equal(t, "no-store", res.Header().Get("Cache-Control"))
}

func TestNavAdminOnceResolved(t *testing.T) {
	handler, cache := newTestHandler(t, staticLookup(nav.RoleAdmin))

	_, err := cache.Wait(context.Background(), "tok")
	require.NoError(t, err)

	req := withSession(httptest.NewRequest(http.MethodGet, "/nav?path=/stats", nil), "jane", "tok")
	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	destinations := linkDestinations(doc)
	assert.Contains(t, destinations, "/reports")
	assert.Contains(t, destinations, "/stats")
	assert.Equal(t, "/logout", destinations[len(destinations)-1])

	panel := findByID(doc, "nav-panel")
	require.NotNil(t, panel)
	assert.Empty(t, attrOf(panel, "hx-get"), "no polling once resolved")
}

func TestNavPollsWhilePending(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	lookup := role.LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}

		return nav.RoleAdmin, nil
	})

	handler, _ := newTestHandler(t, lookup, WithPollDelay(250*time.Millisecond))

	req := withSession(httptest.NewRequest(http.MethodGet, "/nav?path=/", nil), "jane", "tok")
	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	destinations := linkDestinations(doc)
	assert.NotContains(t, destinations, "/reports")
	assert.Contains(t, destinations, "/user/jane")

	panel := findByID(doc, "nav-panel")
	require.NotNil(t, panel)
	assert.Equal(t, "/nav?path=%2F", attrOf(panel, "hx-get"))
	assert.Equal(t, "load delay:250ms", attrOf(panel, "hx-trigger"))
}

func TestNavFailureBanner(t *testing.T) {
	lookup := role.LookupFunc(func(ctx context.Context, token string) (nav.Role, error) {
		return "", role.ErrUnexpectedStatus
	})

	handler, cache := newTestHandler(t, lookup, WithFailurePolicy(nav.FailWithNotice))

	_, err := cache.Wait(context.Background(), "tok")
	require.NoError(t, err)

	req := withSession(httptest.NewRequest(http.MethodGet, "/nav?path=/", nil), "jane", "tok")
	res, _ := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "nav-notice")
	assert.NotContains(t, res.Body.String(), "/reports")
}

func TestNavHiddenOnClosedMobileMenu(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/nav?path=/", nil)
	req.Header.Set("Sec-CH-UA-Mobile", "?1")

	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, findByID(doc, "nav-panel"))
}

func TestMenuOpenRedirects(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/menu/open?path=/search", nil)
	res, _ := serve(t, handler, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/search", res.Header().Get("Location"))

	menuCookie := responseCookie(res, "sqnav_menu")
	require.NotNil(t, menuCookie)
	assert.Equal(t, "open", menuCookie.Value)
}

func TestMenuRejectsForeignRedirect(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	type testCase struct {
		Query    string
		Location string
	}

	testCases := []testCase{
		{Query: "//evil.example.com", Location: "/"},
		{Query: "/%5C/evil.example.com", Location: "/"},
		{Query: "/%09/evil.example.com", Location: "/"},
		{Query: "/%0A/evil.example.com", Location: "/"},
		{Query: "/%0D%0ALocation:%20https://evil.example.com", Location: "/"},
		{Query: "/%7F/evil.example.com", Location: "/"},
		{Query: "https://evil.example.com", Location: "/"},
		// An escaped tab stays in the path
		{Query: "/%2509/evil.example.com", Location: "/%09/evil.example.com"},
		{Query: "/search", Location: "/search"},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest(http.MethodGet, "/menu/close?path="+tc.Query, nil)
		res, _ := serve(t, handler, req)

		require.Equal(t, http.StatusSeeOther, res.Code, "path %s", tc.Query)
		assert.Equal(t, tc.Location, res.Header().Get("Location"), "path %s", tc.Query)
	}
}

func TestIsLocalPath(t *testing.T) {
	type testCase struct {
		Path     string
		Expected bool
	}

	testCases := []testCase{
		{Path: "/", Expected: true},
		{Path: "/user/jane%20doe", Expected: true},
		{Path: "", Expected: false},
		{Path: "search", Expected: false},
		{Path: "//evil.example", Expected: false},
		{Path: "/\\evil.example", Expected: false},
		{Path: "/\t/evil.example", Expected: false},
		{Path: "/\n/evil.example", Expected: false},
		{Path: "/\x7f/evil.example", Expected: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.Expected, isLocalPath(tc.Path), "path %q", tc.Path)
	}
}

func TestMenuHTMXReturnsPanel(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/menu/open?path=/login&mobile=1", nil)
	req.Header.Set("HX-Request", "true")

	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, findByID(doc, "nav-panel"))
	assert.Equal(t, []string{"/login", "/register"}, linkDestinations(doc))
	assert.Contains(t, res.Body.String(), "/menu/close?path=%2Flogin")
}

func TestMenuUnknownState(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/menu/toggle", nil)
	res, _ := serve(t, handler, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestPageRouteChangeClosesMobileMenu(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/rss?mobile=1", nil)
	req.AddCookie(&http.Cookie{Name: "sqnav_menu", Value: "open"})
	req.AddCookie(&http.Cookie{Name: "sqnav_path", Value: "/search"})

	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, findByID(doc, "nav-panel"))

	menuCookie := responseCookie(res, "sqnav_menu")
	require.NotNil(t, menuCookie)
	assert.Equal(t, "closed", menuCookie.Value)
}

func TestPageSameRouteKeepsMobileMenu(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/rss?mobile=1", nil)
	req.AddCookie(&http.Cookie{Name: "sqnav_menu", Value: "open"})
	req.AddCookie(&http.Cookie{Name: "sqnav_path", Value: "/rss"})

	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.NotNil(t, findByID(doc, "nav-panel"))
	assert.Nil(t, responseCookie(res, "sqnav_menu"))
}

func TestIsMobile(t *testing.T) {
	type testCase struct {
		URL       string
		Headers   map[string]string
		UserAgent string
		Expected  bool
	}

	testCases := []testCase{
		{URL: "/", Expected: false},
		{URL: "/", Headers: map[string]string{"Sec-CH-UA-Mobile": "?1"}, Expected: true},
		{URL: "/", Headers: map[string]string{"Sec-CH-UA-Mobile": "?0"}, Expected: false},
		{URL: "/", UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile/15E148", Expected: true},
		{URL: "/?mobile=0", UserAgent: "Mozilla/5.0 (Android 14) Mobile", Expected: false},
		{URL: "/?mobile=1", Expected: true},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest(http.MethodGet, tc.URL, nil)
		for key, value := range tc.Headers {
			req.Header.Set(key, value)
		}

		if tc.UserAgent != "" {
			req.Header.Set("User-Agent", tc.UserAgent)
		}

		assert.Equal(t, tc.Expected, IsMobile(req), "url %s, agent %q", tc.URL, tc.UserAgent)
	}
}

func TestPageTitle(t *testing.T) {
	handler, _ := newTestHandler(t, staticLookup(nav.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	res, _ := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<title>sqtracker</title>")
}

func TestProfileHighlightWithEscapedUsername(t *testing.T) {
	handler, cache := newTestHandler(t, staticLookup(nav.RoleUser))

	_, err := cache.Wait(context.Background(), "tok")
	require.NoError(t, err)

	req := withSession(httptest.NewRequest(http.MethodGet, "/user/jane%20doe", nil), "jane doe", "tok")
	res, doc := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	pathCookie := responseCookie(res, "sqnav_path")
	require.NotNil(t, pathCookie)
	assert.Equal(t, "/user/jane%20doe", pathCookie.Value)

	container := findByID(doc, "nav")
	require.NotNil(t, container)

	pollURL := attrOf(container, "hx-get")
	assert.Equal(t, "/nav?path=%2Fuser%2Fjane%2520doe", pollURL)

	req = withSession(httptest.NewRequest(http.MethodGet, pollURL, nil), "jane doe", "tok")
	res, doc = serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	var active []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && strings.Contains(attrOf(n, "class"), "active") {
			active = append(active, attrOf(n, "href"))
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	assert.Equal(t, []string{"/user/jane%20doe"}, active)
}

func TestLogoutInvalidatesRole(t *testing.T) {
	handler, cache := newTestHandler(t, staticLookup(nav.RoleAdmin))

	_, err := cache.Wait(context.Background(), "tok")
	require.NoError(t, err)

	req := withSession(httptest.NewRequest(http.MethodGet, "/logout", nil), "jane", "tok")
	res, _ := serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	_, cached := cache.Peek("tok")
	assert.False(t, cached, "role of a logged out token is dropped")

	// Other pages keep the cached role
	_, err = cache.Wait(context.Background(), "tok")
	require.NoError(t, err)

	req = withSession(httptest.NewRequest(http.MethodGet, "/search", nil), "jane", "tok")
	res, _ = serve(t, handler, req)

	require.Equal(t, http.StatusOK, res.Code)

	_, cached = cache.Peek("tok")
	assert.True(t, cached)
}
