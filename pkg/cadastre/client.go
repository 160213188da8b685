// Package cadastre provides a client for the IGN API Carto cadastre module,
// which serves the parcels of a municipality as paginated GeoJSON.
package cadastre

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-finder/internal/upstream"
)

const (
	service        = "cadastre"
	defaultBaseURL = "https://apicarto.ign.fr"
	parcellePath   = "/api/cadastre/parcelle"

	// MaxPageSize is the largest page API Carto returns and its default
	// _limit. A shorter page is the last one.
	MaxPageSize = 1000
)

// Client fetches raw parcel pages.
type Client interface {
	// Page returns the raw GeoJSON page of at most limit parcels for
	// cityCode starting at offset start. Offset 0 omits the _start parameter;
	// a limit of 0 leaves the server default.
	Page(ctx context.Context, cityCode string, start, limit int) (json.RawMessage, error)
}

// Option configures the cadastre client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API Carto cadastre client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    upstream.NewHTTPClient(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) pageURL(cityCode string, start, limit int) string {
	params := url.Values{"code_insee": {cityCode}}
	if start > 0 {
		params.Set("_start", strconv.Itoa(start))
	}
	if limit > 0 {
		params.Set("_limit", strconv.Itoa(limit))
	}
	return strings.TrimRight(c.baseURL, "/") + parcellePath + "?" + params.Encode()
}

func (c *httpClient) Page(ctx context.Context, cityCode string, start, limit int) (json.RawMessage, error) {
	body, err := upstream.Get(ctx, c.http, service, c.pageURL(cityCode, start, limit), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "cadastre: page %s start=%d", cityCode, start)
	}
	if !json.Valid(body) {
		return nil, eris.Errorf("cadastre: page %s start=%d is not valid JSON", cityCode, start)
	}
	return json.RawMessage(body), nil
}
