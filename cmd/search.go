package main

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/cache"
	"github.com/sells-group/parcel-finder/internal/parcel"
	"github.com/sells-group/parcel-finder/internal/report"
	"github.com/sells-group/parcel-finder/internal/search"
	"github.com/sells-group/parcel-finder/internal/upstream"
	"github.com/sells-group/parcel-finder/pkg/bdnb"
	"github.com/sells-group/parcel-finder/pkg/cadastre"
	"github.com/sells-group/parcel-finder/pkg/geocode"
)

var (
	annee           int
	seuilPercent    float64
	reverseFallback bool
	outputFormat    string
)

func init() {
	f := rootCmd.Flags()
	f.IntVar(&annee, "annee", 0, "keep only buildings built this year (unknown years always pass)")
	f.Float64Var(&seuilPercent, "seuil_percent", 1, "tolerance around the target surface, in percent")
	f.BoolVar(&reverseFallback, "reverse", false, "reverse-geocode parcels the building registry has no address for")
	f.StringVar(&outputFormat, "format", "text", "output format: text, json or yaml")
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func searchParams(cmd *cobra.Command, args []string) (search.Params, error) {
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return search.Params{}, eris.Wrapf(err, "contenance_cible %q is not a number", args[1])
	}
	if !finite(target) || target < 0 {
		return search.Params{}, eris.Errorf("contenance_cible must be a finite non-negative number, got %v", target)
	}
	if !finite(seuilPercent) || seuilPercent < 0 {
		return search.Params{}, eris.Errorf("seuil_percent must be a finite non-negative number, got %v", seuilPercent)
	}

	params := search.Params{
		City:             args[0],
		Target:           target,
		TolerancePercent: seuilPercent,
	}
	if cmd.Flags().Changed("annee") {
		year := annee
		params.Year = &year
	}
	return params, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params, err := searchParams(cmd, args)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("run_id", uuid.NewString()))
	undo := zap.ReplaceGlobals(log)
	defer undo()

	log.Info("search started",
		zap.String("city", params.City),
		zap.Float64("target", params.Target),
		zap.Float64("tolerance_percent", params.TolerancePercent),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Caches
	townCache, err := cache.Open(ctx, cfg.Cache, cache.NamespaceTown)
	if err != nil {
		return eris.Wrap(err, "open town cache")
	}
	defer closeCache(townCache)

	parcelCache, err := cache.Open(ctx, cfg.Cache, cache.NamespaceParcelle)
	if err != nil {
		return eris.Wrap(err, "open parcelles cache")
	}
	defer closeCache(parcelCache)

	// Clients
	hc := upstream.NewHTTPClient(time.Duration(cfg.HTTP.TimeoutSecs) * time.Second)
	gc := geocode.NewClient(
		geocode.WithHTTPClient(hc),
		geocode.WithSearchBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithReverseBaseURL(cfg.Reverse.BaseURL),
		geocode.WithUserAgent(cfg.Reverse.UserAgent),
	)
	cadastreClient := cadastre.NewClient(
		cadastre.WithBaseURL(cfg.Cadastre.BaseURL),
		cadastre.WithHTTPClient(upstream.NewHTTPClient(time.Duration(cfg.Cadastre.TimeoutSecs)*time.Second)),
	)
	registry := bdnb.NewClient(bdnb.WithBaseURL(cfg.Registry.BaseURL), bdnb.WithHTTPClient(hc))

	var reverser geocode.Reverser
	if cfg.Reverse.Enabled {
		reverser = gc
	}

	rep, err := report.New(cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	runner := search.NewRunner(
		parcel.NewResolver(gc, townCache),
		parcel.NewFetcher(cadastreClient, parcelCache, cfg.Cadastre.PageSize),
		parcel.NewEnricher(registry, reverser),
		rep,
		search.WithProgress(report.NewProgress(os.Stderr)),
	)

	_, err = runner.Run(ctx, params)
	return err
}

func closeCache(c *cache.Cache) {
	if err := c.Close(); err != nil {
		zap.L().Warn("cache close failed", zap.String("namespace", c.Namespace()), zap.Error(err))
	}
}
