package nav

import (
	"net/url"
	"slices"

	"github.com/drone/envsubst"
	"github.com/pkg/errors"
)

// Row declares one potential entry of the panel. Label and Destination may
// reference ${username}; When is an expr-lang boolean rule evaluated against a
// RuleEnv and Count an optional integer rule.
type Row struct {
	Label       string
	Destination string
	Icon        string
	Highlights  []string
	Separated   bool
	When        string
	Count       string
}

const LogoutPath = "/logout"

func DefaultRows() []Row {
	return []Row{
		{Label: "Home", Destination: RootPath, Icon: "fa-home", When: "authenticated"},
		{Label: "Browse", Destination: "/categories", Icon: "fa-list-ul", When: "authenticated && categories > 0", Count: "categories"},
		{Label: "Search", Destination: "/search", Icon: "fa-search", When: "authenticated"},
		{Label: "Upload", Destination: "/upload", Icon: "fa-upload", When: "authenticated"},
		{Label: "Announcements", Destination: "/announcements", Icon: "fa-newspaper", When: "authenticated"},
		{Label: "Requests", Destination: "/requests", Icon: "fa-comment-medical", When: "authenticated"},
		{Label: "RSS", Destination: "/rss", Icon: "fa-rss", When: "authenticated"},
		{Label: "${username}", Destination: "/user/${username}", Icon: "fa-user", Highlights: []string{"/account"}, When: "authenticated"},
		{Label: "Reports", Destination: "/reports", Icon: "fa-exclamation-triangle", Highlights: []string{"/reports"}, When: "admin"},
		{Label: "Stats", Destination: "/stats", Icon: "fa-chart-line", Highlights: []string{"/stats"}, When: "admin"},
		{Label: "Log out", Destination: LogoutPath, Icon: "fa-sign-out-alt", Separated: true, When: "authenticated"},
		{Label: "Log in", Destination: "/login", Icon: "fa-sign-in-alt", When: "!authenticated"},
		{Label: "Register", Destination: "/register", Icon: "fa-user-plus", When: `!authenticated && registration in ["open", "invite"]`},
	}
}

// StandardRows returns the default rows with the given extra rows inserted
// right before the log out entry.
func StandardRows(extra ...Row) []Row {
	rows := DefaultRows()

	idx := slices.IndexFunc(rows, func(r Row) bool {
		return r.Destination == LogoutPath
	})

	return slices.Insert(rows, idx, extra...)
}

type compiledRow struct {
	Row
	when  *rule
	count *rule
}

type Table struct {
	rows []compiledRow
}

func NewTable(rows ...Row) (*Table, error) {
	compiled := make([]compiledRow, 0, len(rows))

	for idx, r := range rows {
		if r.When == "" {
			r.When = "true"
		}

		when, err := compileBoolRule(r.When)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compile visibility rule of row #%d (%s)", idx, r.Label)
		}

		cr := compiledRow{Row: r, when: when}

		if r.Count != "" {
			count, err := compileIntRule(r.Count)
			if err != nil {
				return nil, errors.Wrapf(err, "could not compile count rule of row #%d (%s)", idx, r.Label)
			}

			cr.count = count
		}

		compiled = append(compiled, cr)
	}

	table := &Table{rows: compiled}

	if err := table.validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	return table, nil
}

// validate checks highlight prefixes for the widest audiences the table can
// produce.
func (t *Table) validate() error {
	envs := []RuleEnv{
		{Authenticated: true, Admin: true, Role: string(RoleAdmin), Username: "username", Categories: 1, Registration: string(RegistrationOpen)},
		{Registration: string(RegistrationOpen)},
	}

	for _, env := range envs {
		entries, err := t.Entries(env)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := CheckPrefixDisjoint(entries); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// Entries returns the visible entries for env, in table order.
func (t *Table) Entries(env RuleEnv) ([]Entry, error) {
	entries := make([]Entry, 0, len(t.rows))

	for _, r := range t.rows {
		visible, err := r.when.Bool(env)
		if err != nil {
			return nil, errors.Wrapf(err, "could not evaluate visibility of '%s'", r.Label)
		}

		if !visible {
			continue
		}

		entry, err := r.entry(env)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (r compiledRow) entry(env RuleEnv) (Entry, error) {
	label, err := envsubst.Eval(r.Label, func(key string) string {
		if key == "username" {
			return env.Username
		}
		return ""
	})
	if err != nil {
		return Entry{}, errors.Wrapf(err, "could not expand label '%s'", r.Label)
	}

	destination, err := envsubst.Eval(r.Destination, func(key string) string {
		if key == "username" {
			return url.PathEscape(env.Username)
		}
		return ""
	})
	if err != nil {
		return Entry{}, errors.Wrapf(err, "could not expand destination '%s'", r.Destination)
	}

	entry := Entry{
		Label:          label,
		Destination:    destination,
		Icon:           r.Icon,
		HighlightPaths: slices.Clone(r.Highlights),
		Separated:      r.Separated,
	}

	if r.count != nil {
		count, err := r.count.Int(env)
		if err != nil {
			return Entry{}, errors.Wrapf(err, "could not evaluate count of '%s'", r.Label)
		}

		entry.Count = count
	}

	return entry, nil
}
