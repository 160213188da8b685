package parcel

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/cache"
	"github.com/sells-group/parcel-finder/pkg/cadastre"
)

// Fetcher downloads every parcel page of a municipality, caching the list.
type Fetcher struct {
	client   cadastre.Client
	cache    *cache.Cache
	pageSize int
}

// NewFetcher creates a Fetcher. pageSize is sent as the page limit and a
// full page of that length means another page follows; values outside
// 1..cadastre.MaxPageSize use cadastre.MaxPageSize.
func NewFetcher(client cadastre.Client, c *cache.Cache, pageSize int) *Fetcher {
	if pageSize <= 0 || pageSize > cadastre.MaxPageSize {
		pageSize = cadastre.MaxPageSize
	}
	return &Fetcher{client: client, cache: c, pageSize: pageSize}
}

// Fetch returns the raw pages for code, from the parcelles cache when
// present. Otherwise pages are requested until one comes back short, and the
// whole list is cached before returning.
func (f *Fetcher) Fetch(ctx context.Context, code string) ([]json.RawMessage, error) {
	log := zap.L().With(zap.String("code", code))

	pages, ok, err := cache.GetJSON[[]json.RawMessage](ctx, f.cache, code)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read parcelles cache")
	}
	if ok {
		log.Debug("parcel pages from cache", zap.Int("pages", len(pages)))
		return pages, nil
	}

	pages = nil
	for start := 0; ; start += f.pageSize {
		raw, err := f.client.Page(ctx, code, start, f.pageSize)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: page at %d", start)
		}
		page, err := cadastre.ParsePage(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: page at %d", start)
		}
		pages = append(pages, raw)

		returned := page.Returned()
		log.Debug("parcel page fetched", zap.Int("start", start), zap.Int("returned", returned))
		if returned != f.pageSize {
			break
		}
	}

	if err := cache.PutJSON(ctx, f.cache, code, pages); err != nil {
		return nil, eris.Wrap(err, "fetcher: write parcelles cache")
	}
	log.Info("parcel pages fetched", zap.Int("pages", len(pages)))
	return pages, nil
}
