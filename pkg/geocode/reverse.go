package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/upstream"
)

const reverseService = "nominatim"

// ReverseResult holds the result of a reverse geocode operation.
type ReverseResult struct {
	Address     string `json:"address"`
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	Town        string `json:"town,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type nominatimResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// townKeys are the Nominatim address fields naming the locality, most
// specific first.
var townKeys = []string{"town", "city", "village", "municipality"}

func (g *geocoder) reverseURL(lat, lon float64) string {
	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	return strings.TrimRight(g.reverseBaseURL, "/") + "/reverse?" + params.Encode()
}

// Reverse converts a lat/lon to a postal address.
func (g *geocoder) Reverse(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	header := http.Header{}
	header.Set("User-Agent", g.userAgent)

	var resp nominatimResponse
	if err := upstream.GetJSON(ctx, g.httpClient, reverseService, g.reverseURL(lat, lon), header, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: reverse")
	}

	if resp.Address == nil {
		zap.L().Debug("reverse geocode: no address",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return nil, nil
	}

	result := &ReverseResult{
		HouseNumber: resp.Address["house_number"],
		Road:        resp.Address["road"],
		Town:        pickTown(resp.Address),
		DisplayName: resp.DisplayName,
	}
	result.Address = formatAddress(result)
	if result.Address == "" {
		return nil, nil
	}
	return result, nil
}

func pickTown(addr map[string]string) string {
	for _, k := range townKeys {
		if v := strings.TrimSpace(addr[k]); v != "" {
			return v
		}
	}
	return ""
}

// formatAddress prefers "{house_number} {road} {town}"; the house number is
// optional, road and town are not. Otherwise the free-form display name.
func formatAddress(r *ReverseResult) string {
	road := strings.TrimSpace(r.Road)
	if road == "" || r.Town == "" {
		return strings.TrimSpace(r.DisplayName)
	}
	parts := make([]string, 0, 3)
	if hn := strings.TrimSpace(r.HouseNumber); hn != "" {
		parts = append(parts, hn)
	}
	parts = append(parts, road, r.Town)
	return strings.Join(parts, " ")
}
