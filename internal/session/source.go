package session

import (
	"net/http"
	"sort"
	"sync"

	"github.com/bornholm/sqnav/internal/nav"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

var ErrUnknownType = errors.New("unknown session source type")

// Source reads the session of a request. A request without session yields an
// empty nav.Session and no error.
type Source interface {
	Session(r *http.Request) (nav.Session, error)
}

type SourceFunc func(r *http.Request) (nav.Session, error)

func (fn SourceFunc) Session(r *http.Request) (nav.Session, error) {
	return fn(r)
}

type Type string

type Factory func(options map[string]any) (Source, error)

var (
	registryMutex sync.RWMutex
	registry      = map[Type]Factory{}
)

func Register(sourceType Type, factory Factory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	registry[sourceType] = factory
}

func Registered() []Type {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})

	return types
}

func New(sourceType Type, options map[string]any) (Source, error) {
	registryMutex.RLock()
	factory, exists := registry[sourceType]
	registryMutex.RUnlock()

	if !exists {
		return nil, errors.Wrapf(ErrUnknownType, "'%s'", sourceType)
	}

	source, err := factory(options)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create session source '%s'", sourceType)
	}

	return source, nil
}

func decodeOptions(options map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decoder.Decode(options); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
