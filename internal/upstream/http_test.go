package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "parcel-finder/test", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("User-Agent", "parcel-finder/test")
	body, err := Get(context.Background(), srv.Client(), "test", srv.URL, header)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGet_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway")
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), "cadastre", srv.URL, nil)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestGet_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := Get(context.Background(), NewHTTPClient(0), "geocoder", url, nil)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestGetJSON_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"Rennes"}`)
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, GetJSON(context.Background(), srv.Client(), "test", srv.URL, nil, &out))
	assert.Equal(t, "Rennes", out.Name)
}

func TestGetJSON_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	var out map[string]any
	err := GetJSON(context.Background(), srv.Client(), "test", srv.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
	assert.False(t, IsUpstream(err))
}
