// Package parcel finds the cadastral parcels of a municipality whose surface
// is close to a target, and enriches them with building and address data.
package parcel

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/cache"
	"github.com/sells-group/parcel-finder/pkg/geocode"
)

// ErrCityNotFound is returned when the geocoder has no municipality for a name.
var ErrCityNotFound = eris.New("parcel: municipality not found")

// Resolver maps municipality names to INSEE codes through the town cache.
type Resolver struct {
	geocoder geocode.Client
	cache    *cache.Cache
}

// NewResolver creates a Resolver backed by the given town cache.
func NewResolver(gc geocode.Client, c *cache.Cache) *Resolver {
	return &Resolver{geocoder: gc, cache: c}
}

// Resolve returns the municipality code for name. The cache is keyed by the
// name exactly as given; a miss falls through to the geocoder and the answer
// is cached. Unknown names are not cached.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	log := zap.L().With(zap.String("city", name))

	cached, ok, err := r.cache.Get(ctx, name)
	if err != nil {
		return "", eris.Wrap(err, "resolver: read town cache")
	}
	if ok {
		log.Debug("municipality code from cache", zap.String("code", string(cached)))
		return string(cached), nil
	}

	code, found, err := r.geocoder.CityCode(ctx, name)
	if err != nil {
		return "", eris.Wrapf(err, "resolver: geocode %q", name)
	}
	if !found {
		return "", ErrCityNotFound
	}

	if err := r.cache.Put(ctx, name, []byte(code)); err != nil {
		return "", eris.Wrap(err, "resolver: write town cache")
	}
	log.Debug("municipality code resolved", zap.String("code", code))
	return code, nil
}
