package setup

import (
	"context"
	"expvar"
	"time"

	"github.com/bornholm/sqnav/internal/config"
	"github.com/bornholm/sqnav/internal/nav"
	"github.com/bornholm/sqnav/internal/role"
	"github.com/pkg/errors"
)

var NewRoleCacheFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*role.Cache, error) {
	lookup, err := role.NewHTTPLookup(string(conf.Site.APIURL))
	if err != nil {
		return nil, errors.Wrap(err, "could not create role lookup")
	}

	cache := role.NewCache(
		lookup,
		role.WithTTL(time.Duration(*conf.Role.CacheTTL), time.Duration(*conf.Role.FailureTTL)),
		role.WithLookupTimeout(time.Duration(*conf.Role.Timeout)),
		role.WithLookupRetries(int(conf.Role.Retries), time.Duration(*conf.Role.Backoff)),
	)

	return cache, nil
})

func NewFailurePolicyFromConfig(conf *config.Config) (nav.FailurePolicy, error) {
	policy := nav.FailurePolicy(conf.Role.OnFailure)

	switch policy {
	case nav.FailOpen, nav.FailWithNotice:
		return policy, nil
	default:
		return "", errors.Errorf("unknown role failure policy '%s'", policy)
	}
}

// cacheVars exposes the role cache state on the expvar endpoint.
func cacheVars(cache *role.Cache) map[string]expvar.Var {
	return map[string]expvar.Var{
		"roleCacheEntries": expvar.Func(func() any {
			return cache.Len()
		}),
	}
}
