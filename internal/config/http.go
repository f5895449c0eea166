package config

import "github.com/goccy/go-yaml"

type HTTP struct {
	Address   InterpolatedString `yaml:"address"`
	Pprof     InterpolatedBool   `yaml:"pprof"`
	RateLimit RateLimit          `yaml:"rateLimit"`
	Menu      Menu               `yaml:"menu"`
}

type RateLimit struct {
	Rate  InterpolatedFloat `yaml:"rate"`
	Burst InterpolatedInt   `yaml:"burst"`
}

type Menu struct {
	CookieName InterpolatedString `yaml:"cookieName"`
	PathCookie InterpolatedString `yaml:"pathCookie"`
}

func NewDefaultHTTPConfig() HTTP {
	return HTTP{
		Address: "${SQNAV_HTTP_ADDRESS:-:8080}",
		Pprof:   false,
		RateLimit: RateLimit{
			Rate:  5,
			Burst: 20,
		},
		Menu: Menu{
			CookieName: "sqnav_menu",
			PathCookie: "sqnav_path",
		},
	}
}

func NewHTTPConfigCommentMap() yaml.CommentMap {
	return yaml.CommentMap{
		"":                 []*yaml.Comment{yaml.HeadComment(" Webserver configuration")},
		".address":         []*yaml.Comment{yaml.HeadComment(" Webserver's listening address")},
		".pprof":           []*yaml.Comment{yaml.HeadComment(" Expose profiling endpoints under /debug/pprof")},
		".rateLimit":       []*yaml.Comment{yaml.HeadComment(" Per client rate limit, clients are keyed by remote address unless sessions are signed")},
		".rateLimit.rate":  []*yaml.Comment{yaml.HeadComment(" Allowed requests per second")},
		".rateLimit.burst": []*yaml.Comment{yaml.HeadComment(" Maximum burst size")},
		".menu":            []*yaml.Comment{yaml.HeadComment(" Cookies used to keep the mobile menu state between pages")},
	}
}
