// Package geocode resolves French municipality names through the national
// address API (api-adresse.data.gouv.fr) and reverse-geocodes coordinates
// through Nominatim.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/sells-group/parcel-finder/internal/upstream"
)

const (
	defaultSearchBaseURL  = "https://api-adresse.data.gouv.fr"
	defaultReverseBaseURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent      = "parcel-finder/1.0"
)

// Client looks up municipalities by name.
type Client interface {
	// CityCode returns the INSEE code of the best municipality match for name.
	// found is false when the API has no match.
	CityCode(ctx context.Context, name string) (code string, found bool, err error)
}

// Reverser turns coordinates into a postal address.
type Reverser interface {
	// Reverse returns the address at lat/lon. A nil result means no address.
	Reverse(ctx context.Context, lat, lon float64) (*ReverseResult, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client for both search and reverse requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithSearchBaseURL overrides the address API base URL.
func WithSearchBaseURL(u string) Option {
	return func(g *geocoder) {
		g.searchBaseURL = u
	}
}

// WithReverseBaseURL overrides the Nominatim base URL.
func WithReverseBaseURL(u string) Option {
	return func(g *geocoder) {
		g.reverseBaseURL = u
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim, which rejects
// anonymous clients.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

type geocoder struct {
	httpClient     *http.Client
	searchBaseURL  string
	reverseBaseURL string
	userAgent      string
}

// Geocoder is both a Client and a Reverser.
type Geocoder interface {
	Client
	Reverser
}

// NewClient creates a new geocoding client with the given options.
func NewClient(opts ...Option) Geocoder {
	g := &geocoder{
		httpClient:     upstream.NewHTTPClient(10 * time.Second),
		searchBaseURL:  defaultSearchBaseURL,
		reverseBaseURL: defaultReverseBaseURL,
		userAgent:      defaultUserAgent,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
