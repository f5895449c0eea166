package config

import (
	"time"

	"github.com/goccy/go-yaml"
)

type Role struct {
	Timeout    *InterpolatedDuration `yaml:"timeout"`
	Retries    InterpolatedInt       `yaml:"retries"`
	Backoff    *InterpolatedDuration `yaml:"backoff"`
	CacheTTL   *InterpolatedDuration `yaml:"cacheTtl"`
	FailureTTL *InterpolatedDuration `yaml:"failureTtl"`
	OnFailure  InterpolatedString    `yaml:"onFailure"`
	PollDelay  *InterpolatedDuration `yaml:"pollDelay"`
}

func NewDefaultRoleConfig() Role {
	return Role{
		Timeout:    NewInterpolatedDuration(10 * time.Second),
		Retries:    0,
		Backoff:    NewInterpolatedDuration(500 * time.Millisecond),
		CacheTTL:   NewInterpolatedDuration(5 * time.Minute),
		FailureTTL: NewInterpolatedDuration(10 * time.Second),
		OnFailure:  "${SQNAV_ROLE_ON_FAILURE:-open}",
		PollDelay:  NewInterpolatedDuration(time.Second),
	}
}

func NewRoleConfigCommentMap() yaml.CommentMap {
	return yaml.CommentMap{
		"":            []*yaml.Comment{yaml.HeadComment(" Role lookup configuration")},
		".timeout":    []*yaml.Comment{yaml.HeadComment(" Maximum duration of a role lookup, retries included")},
		".retries":    []*yaml.Comment{yaml.HeadComment(" Number of retries of a failed lookup")},
		".backoff":    []*yaml.Comment{yaml.HeadComment(" Delay before the first retry, doubled on each attempt")},
		".cacheTtl":   []*yaml.Comment{yaml.HeadComment(" Duration a resolved role is kept")},
		".failureTtl": []*yaml.Comment{yaml.HeadComment(" Duration a failed lookup is kept before trying again")},
		".onFailure":  []*yaml.Comment{yaml.HeadComment(" Behavior on lookup failure: 'open' falls back silently to the user role, 'banner' also shows a notice")},
		".pollDelay":  []*yaml.Comment{yaml.HeadComment(" Delay between refreshes of the navigation while the role is pending")},
	}
}
