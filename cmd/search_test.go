package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-finder/internal/config"
	"github.com/sells-group/parcel-finder/internal/parcel"
)

func newAPIServer(t *testing.T, cadastreRequests *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Rennes" {
			_, _ = io.WriteString(w, `{"features":[]}`)
			return
		}
		_, _ = io.WriteString(w, `{"features":[{"properties":{"citycode":"35238"}}]}`)
	})
	mux.HandleFunc("/api/cadastre/parcelle", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(cadastreRequests, 1)
		_, _ = io.WriteString(w, `{"numberReturned":3,"features":[
			{"properties":{"section":"AB","numero":"0001","contenance":500,"bbox":[-1.70,48.10,-1.68,48.12]}},
			{"properties":{"section":"AB","numero":"0002","contenance":505,"bbox":[-1.70,48.10,-1.68,48.12]}},
			{"properties":{"section":"AB","numero":"0003","contenance":900,"bbox":[-1.70,48.10,-1.68,48.12]}}]}`)
	})
	mux.HandleFunc("/v2/gorenove/buildings", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("l_cerffo_idpar") {
		case "cs.{35238000AB0001}":
			_, _ = io.WriteString(w, `[{"adresse_postal":"12 Rue de la Soif 35000 Rennes","annee_construction":"1932"}]`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	})
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"display_name":"x","address":{"house_number":"3","road":"Rue Saint-Malo","city":"Rennes"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Cache:    config.CacheConfig{Driver: "sqlite", Dir: filepath.Join(t.TempDir(), "cache"), MemorySize: 16},
		Geocoder: config.GeocoderConfig{BaseURL: baseURL},
		Cadastre: config.CadastreConfig{BaseURL: baseURL, PageSize: 1000, TimeoutSecs: 5},
		Registry: config.RegistryConfig{BaseURL: baseURL},
		Reverse:  config.ReverseConfig{BaseURL: baseURL, UserAgent: "parcel-finder-test"},
		HTTP:     config.HTTPConfig{TimeoutSecs: 5},
		Output:   config.OutputConfig{Format: "text"},
		Log:      config.LogConfig{Level: "warn", Format: "console"},
	}
}

// withSearchGlobals sets the flag-backed globals for one test.
func withSearchGlobals(t *testing.T, c *config.Config, seuil float64) *bytes.Buffer {
	t.Helper()
	oldCfg, oldSeuil := cfg, seuilPercent
	cfg, seuilPercent = c, seuil
	t.Cleanup(func() { cfg, seuilPercent = oldCfg, oldSeuil })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetContext(context.Background())
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	return &out
}

func TestRunSearch_EndToEnd(t *testing.T) {
	var requests int32
	srv := newAPIServer(t, &requests)
	c := testConfig(t, srv.URL)
	out := withSearchGlobals(t, c, 2)

	require.NoError(t, runSearch(rootCmd, []string{"Rennes", "500"}))
	assert.Equal(t,
		"Parcelles trouvées proches de la contenance cible: 2\n"+
			"Au 12 Rue de la Soif 35000 Rennes (cadastre Section: AB, Numéro: 0001)\n",
		out.String())

	// Second run is served from the on-disk caches.
	out.Reset()
	require.NoError(t, runSearch(rootCmd, []string{"Rennes", "500"}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Contains(t, out.String(), "Au 12 Rue de la Soif")

	assert.FileExists(t, filepath.Join(c.Cache.Dir, "town.cache.db"))
	assert.FileExists(t, filepath.Join(c.Cache.Dir, "parcelles.cache.db"))
}

func TestRunSearch_ReverseFallback(t *testing.T) {
	var requests int32
	srv := newAPIServer(t, &requests)
	c := testConfig(t, srv.URL)
	c.Reverse.Enabled = true
	out := withSearchGlobals(t, c, 2)

	require.NoError(t, runSearch(rootCmd, []string{"Rennes", "500"}))
	assert.Contains(t, out.String(), "Au 12 Rue de la Soif 35000 Rennes (cadastre Section: AB, Numéro: 0001)\n")
	assert.Contains(t, out.String(), "Au 3 Rue Saint-Malo Rennes (cadastre Section: AB, Numéro: 0002)\n")
}

func TestRunSearch_CityNotFound(t *testing.T) {
	var requests int32
	srv := newAPIServer(t, &requests)
	out := withSearchGlobals(t, testConfig(t, srv.URL), 1)

	err := runSearch(rootCmd, []string{"Zzzznotreal", "500"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, parcel.ErrCityNotFound))
	assert.Equal(t, exitNotFound, exitCode(err))
	assert.Zero(t, atomic.LoadInt32(&requests))
	assert.Empty(t, out.String())
}

func TestRunSearch_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	withSearchGlobals(t, testConfig(t, srv.URL), 1)

	err := runSearch(rootCmd, []string{"Rennes", "500"})
	require.Error(t, err)
	assert.Equal(t, exitUpstream, exitCode(err))
}

func TestRunSearch_BadTarget(t *testing.T) {
	withSearchGlobals(t, testConfig(t, "http://127.0.0.1:1"), 1)

	err := runSearch(rootCmd, []string{"Rennes", "cinq cents"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contenance_cible")
	assert.Equal(t, exitFailure, exitCode(err))

	for _, target := range []string{"-5", "inf", "+Inf", "NaN"} {
		err = runSearch(rootCmd, []string{"Rennes", target})
		require.Error(t, err, target)
		assert.Contains(t, err.Error(), "contenance_cible", target)
		assert.Equal(t, exitFailure, exitCode(err), target)
	}
}

func TestRunSearch_BadTolerance(t *testing.T) {
	for _, seuil := range []float64{-1, math.Inf(1), math.NaN()} {
		withSearchGlobals(t, testConfig(t, "http://127.0.0.1:1"), seuil)

		err := runSearch(rootCmd, []string{"Rennes", "500"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seuil_percent")
	}
}
