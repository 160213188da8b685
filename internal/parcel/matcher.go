package parcel

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/model"
	"github.com/sells-group/parcel-finder/pkg/cadastre"
)

// Flatten turns every feature of every page into a Parcel of municipality
// code, keeping page and feature order.
func Flatten(code string, pages []json.RawMessage) ([]*model.Parcel, error) {
	var parcels []*model.Parcel
	for i, raw := range pages {
		page, err := cadastre.ParsePage(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "matcher: page %d", i)
		}
		for _, f := range page.Features {
			p := model.NewParcel(f.Properties.Section, f.Properties.Numero, code)
			p.SetContenance(f.Properties.Contenance)
			if b := featureBounds(f); b != nil {
				p.Longitude = (b.Min(0) + b.Max(0)) / 2
				p.Latitude = (b.Min(1) + b.Max(1)) / 2
			} else {
				zap.L().Debug("parcel without bbox or geometry",
					zap.String("section", p.Section),
					zap.String("numero", p.Numero),
				)
			}
			parcels = append(parcels, p)
		}
	}
	return parcels, nil
}

// featureBounds picks properties.bbox, then the feature bbox, then the
// bounds of the geometry.
func featureBounds(f cadastre.Feature) *geom.Bounds {
	for _, bbox := range [][]float64{f.Properties.BBox, f.BBox} {
		if len(bbox) >= 4 {
			return geom.NewBounds(geom.XY).Set(bbox[0], bbox[1], bbox[2], bbox[3])
		}
	}
	if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
		return nil
	}
	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil || g == nil {
		return nil
	}
	b := g.Bounds()
	if b.IsEmpty() {
		return nil
	}
	return b
}

// WithinTolerance reports whether contenance is present and no further than
// tolerancePercent of target away from it.
func WithinTolerance(contenance *float64, target, tolerancePercent float64) bool {
	if contenance == nil {
		return false
	}
	band := tolerancePercent / 100 * target
	return math.Abs(*contenance-target) <= band
}

// Match flattens pages and keeps the parcels whose surface is within
// tolerancePercent of target.
func Match(code string, pages []json.RawMessage, target, tolerancePercent float64) ([]*model.Parcel, error) {
	all, err := Flatten(code, pages)
	if err != nil {
		return nil, err
	}

	var matches []*model.Parcel
	for _, p := range all {
		if WithinTolerance(p.Contenance, target, tolerancePercent) {
			matches = append(matches, p)
		}
	}

	zap.L().Info("parcels matched",
		zap.String("code", code),
		zap.Int("parcels", len(all)),
		zap.Float64("target", target),
		zap.Float64("tolerance_percent", tolerancePercent),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}
