package geocode

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/upstream"
)

const searchService = "geocoder"

// searchResponse is the GeoJSON answer of the address API /search/ endpoint.
type searchResponse struct {
	Features []struct {
		Properties struct {
			CityCode string  `json:"citycode"`
			Label    string  `json:"label"`
			Score    float64 `json:"score"`
		} `json:"properties"`
	} `json:"features"`
}

// searchURL builds the municipality search request: at most one result,
// municipalities only, no autocompletion.
func (g *geocoder) searchURL(name string) string {
	params := url.Values{
		"q":            {name},
		"limit":        {"1"},
		"type":         {"municipality"},
		"autocomplete": {"0"},
	}
	return strings.TrimRight(g.searchBaseURL, "/") + "/search/?" + params.Encode()
}

func (g *geocoder) CityCode(ctx context.Context, name string) (string, bool, error) {
	var resp searchResponse
	if err := upstream.GetJSON(ctx, g.httpClient, searchService, g.searchURL(name), nil, &resp); err != nil {
		return "", false, eris.Wrapf(err, "geocode: search %q", name)
	}

	if len(resp.Features) == 0 {
		return "", false, nil
	}
	match := resp.Features[0].Properties
	if match.CityCode == "" {
		return "", false, nil
	}
	zap.L().Debug("municipality matched",
		zap.String("query", name),
		zap.String("label", match.Label),
		zap.Float64("score", match.Score),
		zap.String("code", match.CityCode),
	)
	return match.CityCode, true, nil
}
