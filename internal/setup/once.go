package setup

import (
	"context"
	"sync"

	"github.com/bornholm/sqnav/internal/config"
	"github.com/pkg/errors"
)

type factoryFunc[T any] func(ctx context.Context, conf *config.Config) (T, error)

// createFromConfigOnce memoizes the result of factory per configuration so
// shared services (e.g. the role cache) are built a single time.
func createFromConfigOnce[T any](factory factoryFunc[T]) factoryFunc[T] {
	type result struct {
		value T
		err   error
	}

	var (
		mu      sync.Mutex
		results = map[*config.Config]*result{}
	)

	return func(ctx context.Context, conf *config.Config) (T, error) {
		mu.Lock()
		defer mu.Unlock()

		if r, exists := results[conf]; exists {
			return r.value, r.err
		}

		value, err := factory(ctx, conf)
		if err != nil {
			err = errors.WithStack(err)
		}

		results[conf] = &result{value: value, err: err}

		return value, err
	}
}
