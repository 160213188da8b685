package parcel

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-finder/pkg/bdnb"
	"github.com/sells-group/parcel-finder/pkg/geocode"
)

// --- Geocoder Mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) CityCode(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

// --- Reverser Mock ---

type mockReverser struct {
	mock.Mock
}

func (m *mockReverser) Reverse(ctx context.Context, lat, lon float64) (*geocode.ReverseResult, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.ReverseResult), args.Error(1)
}

// --- Cadastre Mock ---

type mockCadastre struct {
	mock.Mock
}

func (m *mockCadastre) Page(ctx context.Context, cityCode string, start, limit int) (json.RawMessage, error) {
	args := m.Called(ctx, cityCode, start, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// --- Registry Mock ---

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Building(ctx context.Context, cadastralID string) (*bdnb.Building, error) {
	args := m.Called(ctx, cadastralID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bdnb.Building), args.Error(1)
}

// --- Fixtures ---

var rennesBBox = []float64{-1.70, 48.10, -1.68, 48.12}

func feature(section, numero string, contenance any) map[string]any {
	return map[string]any{
		"type":     "Feature",
		"geometry": nil,
		"properties": map[string]any{
			"section":    section,
			"numero":     numero,
			"code_insee": "35238",
			"contenance": contenance,
			"bbox":       rennesBBox,
		},
	}
}

func pageJSON(t *testing.T, features ...map[string]any) json.RawMessage {
	t.Helper()
	if features == nil {
		features = []map[string]any{}
	}
	raw, err := json.Marshal(map[string]any{
		"type":           "FeatureCollection",
		"numberReturned": len(features),
		"features":       features,
	})
	require.NoError(t, err)
	return raw
}

// numberedPage builds a page of n parcels numbered from first.
func numberedPage(t *testing.T, first, n int) json.RawMessage {
	t.Helper()
	features := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		features = append(features, feature("AB", fmt.Sprintf("%04d", first+i), 100))
	}
	return pageJSON(t, features...)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
