package cadastre

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Page is the decoded subset of one API Carto FeatureCollection.
type Page struct {
	NumberReturned *int      `json:"numberReturned"`
	Features       []Feature `json:"features"`
}

// Feature is one parcel.
type Feature struct {
	BBox       []float64         `json:"bbox"`
	Geometry   json.RawMessage   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties holds the parcel attributes used for matching.
type FeatureProperties struct {
	Section    string    `json:"section"`
	Numero     string    `json:"numero"`
	Contenance *float64  `json:"contenance"`
	BBox       []float64 `json:"bbox"`
}

// ParsePage decodes a raw page.
func ParsePage(raw json.RawMessage) (*Page, error) {
	var p Page
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, eris.Wrap(err, "cadastre: parse page")
	}
	return &p, nil
}

// Returned is the number of features the API reports for this page, falling
// back to the length of the feature list when numberReturned is absent.
func (p *Page) Returned() int {
	if p.NumberReturned != nil {
		return *p.NumberReturned
	}
	return len(p.Features)
}
