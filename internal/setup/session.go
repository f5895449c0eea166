package setup

import (
	"context"

	"github.com/bornholm/sqnav/internal/config"
	"github.com/bornholm/sqnav/internal/session"
	"github.com/pkg/errors"
)

var NewSessionSourceFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (session.Source, error) {
	var options map[string]any
	if conf.Session.Options != nil {
		options = conf.Session.Options.Data
	}

	source, err := session.New(session.Type(conf.Session.Type), options)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create session source '%s'", conf.Session.Type)
	}

	return source, nil
})
