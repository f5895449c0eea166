package setup

import (
	"context"
	"log/slog"
	"slices"

	"github.com/bornholm/sqnav/internal/config"
	"github.com/bornholm/sqnav/internal/nav"
	"github.com/pkg/errors"
)

var registrationModes = []nav.RegistrationMode{
	nav.RegistrationOpen,
	nav.RegistrationInvite,
	nav.RegistrationClosed,
}

func NewSiteFromConfig(ctx context.Context, conf *config.Config) (nav.Site, error) {
	mode := nav.RegistrationMode(conf.Site.AllowRegister)
	if !slices.Contains(registrationModes, mode) {
		slog.WarnContext(ctx, "unknown registration mode, registration link will be hidden", slog.String("mode", string(mode)))
	}

	theme := nav.DefaultTheme()
	override(&theme.Primary, string(conf.Site.Theme.Primary))
	override(&theme.Text, string(conf.Site.Theme.Text))
	override(&theme.Border, string(conf.Site.Theme.Border))
	override(&theme.Sidebar, string(conf.Site.Theme.Sidebar))
	override(&theme.Grey, string(conf.Site.Theme.Grey))
	override(&theme.BodyWidth, string(conf.Site.Theme.BodyWidth))

	return nav.Site{
		Name:          string(conf.Site.Name),
		AllowRegister: mode,
		Version:       string(conf.Site.Version),
		Categories:    slices.Clone([]string(conf.Site.Categories)),
		Theme:         theme,
	}, nil
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

var NewTableFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*nav.Table, error) {
	extra := make([]nav.Row, 0, len(conf.Site.Links))
	for _, l := range conf.Site.Links {
		extra = append(extra, nav.Row{
			Label:       l.Label,
			Destination: l.Destination,
			Icon:        string(l.Icon),
			Highlights:  []string(l.Highlights),
			When:        string(l.When),
		})
	}

	table, err := nav.NewTable(nav.StandardRows(extra...)...)
	if err != nil {
		return nil, errors.Wrap(err, "could not build navigation table")
	}

	return table, nil
})
