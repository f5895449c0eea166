package nav

type HeaderView struct {
	SiteName  string
	ShowClose bool
}

type FooterView struct {
	PoweredByLabel string
	PoweredByURL   string
	Version        string
}

// PanelView is everything needed to render the panel.
type PanelView struct {
	Header HeaderView
	// Hydrated is false until the panel left its initial server state, the link
	// list is empty until then.
	Hydrated      bool
	Authenticated bool
	Links         []Entry
	RolePending   bool
	RoleFailed    bool
	Mobile        bool
	Path          string
	Theme         Theme
	Footer        FooterView
}

func (v *PanelView) ActiveEntry() (Entry, bool) {
	for _, e := range v.Links {
		if e.Active {
			return e, true
		}
	}

	return Entry{}, false
}
