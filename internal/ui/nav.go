package ui

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bornholm/sqnav/internal/nav"
)

const (
	NavTargetID = "nav"
	NavPath     = "/nav"
	MenuPath    = "/menu"
)

// NavTemplateData is the data of the "nav-panel" layout. A nil Panel renders
// nothing.
type NavTemplateData struct {
	Panel *nav.PanelView
	// PollURL is requested again after PollDelay while the role is pending.
	PollURL   string
	PollDelay string
	CloseURL  string
	OpenURL   string
}

func NewNavTemplateData(view *nav.PanelView, path string, pollDelay time.Duration) NavTemplateData {
	query := url.Values{}
	query.Set("path", path)

	encoded := query.Encode()

	return NavTemplateData{
		Panel:     view,
		PollURL:   NavPath + "?" + encoded,
		PollDelay: htmxDelay(pollDelay),
		CloseURL:  MenuPath + "/close?" + encoded,
		OpenURL:   MenuPath + "/open?" + encoded,
	}
}

// htmxDelay formats d with the time units understood by htmx triggers.
func htmxDelay(d time.Duration) string {
	if d <= 0 {
		d = time.Second
	}

	return fmt.Sprintf("%dms", d.Milliseconds())
}
