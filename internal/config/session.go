package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bornholm/sqnav/internal/session"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

type Session struct {
	Type    InterpolatedString `yaml:"type"`
	Options *InterpolatedMap   `yaml:"options"`
}

func NewDefaultSessionConfig() Session {
	return Session{
		Type: InterpolatedString(fmt.Sprintf("${SQNAV_SESSION_TYPE:-%s}", session.TypeCookie)),
		Options: &InterpolatedMap{
			Data: map[string]any{
				"usernameCookie": "${SQNAV_SESSION_USERNAME_COOKIE:-username}",
				"tokenCookie":    "${SQNAV_SESSION_TOKEN_COOKIE:-token}",
			},
		},
	}
}

func NewSessionConfigCommentMap() yaml.CommentMap {
	return yaml.CommentMap{
		"":      []*yaml.Comment{yaml.HeadComment(" Session source configuration")},
		".type": []*yaml.Comment{yaml.HeadComment(" Session source type", fmt.Sprintf(" Available: %v", session.Registered()))},
		".options": []*yaml.Comment{
			yaml.HeadComment(" Session source options"),
			getSessionOptionComment("Signed sessions source", session.NewDefaultStoreOptions()),
		},
	}
}

func getSessionOptionComment(message string, opts any) *yaml.Comment {
	rawOpts, err := yaml.Marshal(opts)
	if err != nil {
		panic(errors.WithStack(err))
	}

	comments := []string{message, "options:"}
	comments = append(comments, slices.Collect(func(yield func(string) bool) {
		for _, str := range strings.Split(string(rawOpts), "\n") {
			if !yield("  " + str) {
				return
			}
		}
	})...)

	return yaml.FootComment(comments...)
}
