package frontend

import (
	"embed"
	"html/template"

	"github.com/bornholm/sqnav/internal/ui"
	"github.com/pkg/errors"
)

//go:embed templates/**
var templateFs embed.FS

var templates *template.Template

func init() {
	tmpl, err := ui.Templates(nil, templateFs)
	if err != nil {
		panic(errors.WithStack(err))
	}

	templates = tmpl
}

// PageTemplateData contains the data needed to render a full page
type PageTemplateData struct {
	ui.HeadTemplateData
	Nav    ui.NavTemplateData
	Mobile bool
	// Title of the placeholder main region.
	Title string
	Path  string
}
