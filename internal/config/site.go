package config

import "github.com/goccy/go-yaml"

type Site struct {
	Name          InterpolatedString      `yaml:"name"`
	APIURL        InterpolatedString      `yaml:"apiUrl"`
	AllowRegister InterpolatedString      `yaml:"allowRegister"`
	Version       InterpolatedString      `yaml:"version"`
	Categories    InterpolatedStringSlice `yaml:"categories"`
	Theme         Theme                   `yaml:"theme"`
	Links         []Link                  `yaml:"links"`
}

type Theme struct {
	Primary   InterpolatedString `yaml:"primary"`
	Text      InterpolatedString `yaml:"text"`
	Border    InterpolatedString `yaml:"border"`
	Sidebar   InterpolatedString `yaml:"sidebar"`
	Grey      InterpolatedString `yaml:"grey"`
	BodyWidth InterpolatedString `yaml:"bodyWidth"`
}

type Link struct {
	Label       string                  `yaml:"label"`
	Destination string                  `yaml:"destination"`
	Icon        InterpolatedString      `yaml:"icon"`
	Highlights  InterpolatedStringSlice `yaml:"highlights"`
	When        InterpolatedString      `yaml:"when"`
}

func NewDefaultSiteConfig() Site {
	return Site{
		Name:          "${SQ_SITE_NAME:-sqtracker}",
		APIURL:        "${SQ_API_URL:-http://localhost:3001}",
		AllowRegister: "${SQ_ALLOW_REGISTER:-invite}",
		Version:       "${SQ_VERSION:-dev}",
		Categories:    InterpolatedStringSlice{"Movies", "TV", "Music", "Books"},
		Theme: Theme{
			Primary:   "#f45d48",
			Text:      "#202020",
			Border:    "#deddd8",
			Sidebar:   "#f8f8f6",
			Grey:      "#747474",
			BodyWidth: "1000px",
		},
		Links: []Link{},
	}
}

func NewSiteConfigCommentMap() yaml.CommentMap {
	return yaml.CommentMap{
		"":               []*yaml.Comment{yaml.HeadComment(" Site configuration")},
		".name":          []*yaml.Comment{yaml.HeadComment(" Site name displayed in the navigation header")},
		".apiUrl":        []*yaml.Comment{yaml.HeadComment(" Tracker API base URL, the role is fetched from {apiUrl}/account/get-role")},
		".allowRegister": []*yaml.Comment{yaml.HeadComment(" Registration mode (open, invite or closed)")},
		".version":       []*yaml.Comment{yaml.HeadComment(" Version displayed in the navigation footer")},
		".categories":    []*yaml.Comment{yaml.HeadComment(" Torrent categories, the Browse link is hidden when empty")},
		".theme":         []*yaml.Comment{yaml.HeadComment(" Theme color and size tokens")},
		".links": []*yaml.Comment{
			yaml.HeadComment(
				" Extra navigation links, inserted before 'Log out'",
				" 'label' and 'destination' may reference ${username}",
				" 'when' is a rule, see https://expr-lang.org/docs/language-definition",
				" Available: authenticated, admin, role, username, categories, registration",
			),
		},
	}
}
