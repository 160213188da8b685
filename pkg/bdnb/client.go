// Package bdnb provides a client for the Base de Données Nationale des
// Bâtiments open API, used to look up the building standing on a parcel.
package bdnb

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
	service        = "bdnb"
	defaultBaseURL = "https://api.bdnb.io"
	buildingsPath  = "/v2/gorenove/buildings"
)

// Client looks up buildings by cadastral parcel id.
type Client interface {
	// Building returns the first building record whose parcel list contains
	// cadastralID, or nil when there is none.
	Building(ctx context.Context, cadastralID string) (*Building, error)
}

// Building holds the registry fields used to enrich a parcel. Nil pointers
// are fields the registry returned as null or omitted.
type Building struct {
	AdressePostal     *string `json:"adresse_postal"`
	AnneeConstruction *int    `json:"annee_construction"`
	MurMateriau       *string `json:"mur_materiau_ff"`
}

// UnmarshalJSON accepts annee_construction as an integer, a float or a
// numeric string.
func (b *Building) UnmarshalJSON(data []byte) error {
	var aux struct {
		AdressePostal     *string      `json:"adresse_postal"`
		AnneeConstruction *json.Number `json:"annee_construction"`
		MurMateriau       *string      `json:"mur_materiau_ff"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.AdressePostal = aux.AdressePostal
	b.MurMateriau = aux.MurMateriau
	b.AnneeConstruction = nil
	if aux.AnneeConstruction != nil && *aux.AnneeConstruction != "" {
		f, err := strconv.ParseFloat(string(*aux.AnneeConstruction), 64)
		if err != nil {
			return eris.Wrapf(err, "bdnb: annee_construction %q", *aux.AnneeConstruction)
		}
		year := int(f)
		b.AnneeConstruction = &year
	}
	return nil
}

// Option configures the BDNB client.
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

// NewClient creates a new BDNB client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    upstream.NewHTTPClient(10 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// parcelFilter is the PostgREST "array contains" filter on l_cerffo_idpar.
func parcelFilter(cadastralID string) string {
	return "cs.{" + cadastralID + "}"
}

func (c *httpClient) buildingsURL(cadastralID string) string {
	params := url.Values{"l_cerffo_idpar": {parcelFilter(cadastralID)}}
	return strings.TrimRight(c.baseURL, "/") + buildingsPath + "?" + params.Encode()
}

func (c *httpClient) Building(ctx context.Context, cadastralID string) (*Building, error) {
	var buildings []Building
	if err := upstream.GetJSON(ctx, c.http, service, c.buildingsURL(cadastralID), nil, &buildings); err != nil {
		return nil, eris.Wrapf(err, "bdnb: buildings %s", cadastralID)
	}
	if len(buildings) == 0 {
		return nil, nil
	}
	return &buildings[0], nil
}
