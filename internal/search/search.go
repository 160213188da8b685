// Package search runs one parcel search end to end: resolve the
// municipality, fetch and match its parcels, enrich and filter the matches,
// and report the survivors.
package search

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/model"
	"github.com/sells-group/parcel-finder/internal/parcel"
	"github.com/sells-group/parcel-finder/internal/report"
)

// Resolver maps a municipality name to its code.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Fetcher returns the raw parcel pages of a municipality.
type Fetcher interface {
	Fetch(ctx context.Context, code string) ([]json.RawMessage, error)
}

// Enricher fills a parcel's address and building data in place.
type Enricher interface {
	Enrich(ctx context.Context, p *model.Parcel) error
}

// Params are the inputs of one search.
type Params struct {
	City             string
	Target           float64
	TolerancePercent float64
	// Year keeps only parcels built that year (or of unknown year) when set.
	Year *int
}

// Result summarises a finished search.
type Result struct {
	Code    string
	Matches int
	Kept    []*model.Parcel
}

// Runner wires the search steps together.
type Runner struct {
	resolver Resolver
	fetcher  Fetcher
	enricher Enricher
	reporter report.Reporter
	progress *report.Progress
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress shows p while matches are enriched.
func WithProgress(p *report.Progress) Option {
	return func(r *Runner) {
		r.progress = p
	}
}

// NewRunner creates a Runner.
func NewRunner(res Resolver, f Fetcher, e Enricher, rep report.Reporter, opts ...Option) *Runner {
	r := &Runner{
		resolver: res,
		fetcher:  f,
		enricher: e,
		reporter: rep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the search. Parcels reported before an enrichment failure
// stay reported and the reporter is flushed on every path past matching.
func (r *Runner) Run(ctx context.Context, params Params) (res *Result, err error) {
	log := zap.L().With(zap.String("city", params.City))

	code, err := r.resolver.Resolve(ctx, params.City)
	if err != nil {
		if errors.Is(err, parcel.ErrCityNotFound) {
			log.Error("municipality not found")
		}
		return nil, err
	}
	log = log.With(zap.String("code", code))

	pages, err := r.fetcher.Fetch(ctx, code)
	if err != nil {
		return nil, eris.Wrap(err, "search: fetch parcels")
	}

	matches, err := parcel.Match(code, pages, params.Target, params.TolerancePercent)
	if err != nil {
		return nil, eris.Wrap(err, "search: match parcels")
	}

	res = &Result{Code: code, Matches: len(matches)}
	defer func() {
		if flushErr := r.reporter.Flush(); flushErr != nil && err == nil {
			err = eris.Wrap(flushErr, "search: flush report")
		}
	}()

	if len(matches) == 0 {
		log.Info("no parcels near target area")
		return res, nil
	}

	if err := r.reporter.Count(len(matches)); err != nil {
		return res, err
	}

	if err := r.enrichAll(ctx, matches, params.Year, res); err != nil {
		return res, err
	}

	if len(res.Kept) == 0 {
		if err := r.reporter.NoneKept(); err != nil {
			return res, err
		}
	}
	log.Info("search complete",
		zap.Int("matches", res.Matches),
		zap.Int("kept", len(res.Kept)),
	)
	return res, nil
}

func (r *Runner) enrichAll(ctx context.Context, matches []*model.Parcel, year *int, res *Result) error {
	if r.progress != nil {
		r.progress.Start(len(matches))
		defer r.progress.Done()
	}

	for i, p := range matches {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "search: enrich parcels")
		}
		if err := r.enricher.Enrich(ctx, p); err != nil {
			return eris.Wrap(err, "search: enrich parcels")
		}
		if parcel.Keep(p, year) {
			res.Kept = append(res.Kept, p)
			if r.progress != nil {
				r.progress.Clear()
			}
			if err := r.reporter.Parcel(p); err != nil {
				return err
			}
		} else {
			zap.L().Debug("parcel filtered out",
				zap.String("cadastral_id", p.CadastralID()),
				zap.Int("year_built", p.YearBuilt),
				zap.Bool("has_address", p.HasAddress()),
			)
		}
		if r.progress != nil {
			r.progress.Step(i + 1)
		}
	}
	return nil
}
