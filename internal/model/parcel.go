package model

import "fmt"

// UnknownYear is the construction year of a parcel whose building record
// has not been found.
const UnknownYear = 1515

// AddressSource records which lookup supplied a parcel's address.
type AddressSource string

const (
	AddressSourceNone     AddressSource = ""
	AddressSourceRegistry AddressSource = "registry"
	AddressSourceReverse  AddressSource = "reverse"
)

// Parcel is one cadastral land unit of a municipality.
type Parcel struct {
	Section  string `json:"section" yaml:"section"`
	Numero   string `json:"numero" yaml:"numero"`
	CityCode string `json:"code_ville" yaml:"code_ville"`

	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`

	// Contenance is the surface in square meters; nil when upstream did not report one.
	Contenance *float64 `json:"contenance" yaml:"contenance"`

	Address       string        `json:"adresse" yaml:"adresse"`
	AddressSource AddressSource `json:"adresse_source,omitempty" yaml:"adresse_source,omitempty"`
	YearBuilt     int           `json:"annee_construction" yaml:"annee_construction"`
	WallMaterial  string        `json:"mur_materiau,omitempty" yaml:"mur_materiau,omitempty"`
}

// NewParcel returns a parcel with no address and an unknown construction year.
func NewParcel(section, numero, cityCode string) *Parcel {
	return &Parcel{
		Section:   section,
		Numero:    numero,
		CityCode:  cityCode,
		YearBuilt: UnknownYear,
	}
}

// SetContenance records the surface. Negative values are treated as missing.
func (p *Parcel) SetContenance(v *float64) {
	if v == nil || *v < 0 {
		p.Contenance = nil
		return
	}
	c := *v
	p.Contenance = &c
}

// CadastralID is the identifier the buildings registry indexes parcels by:
// city code, "000", section and number with no delimiter.
func (p *Parcel) CadastralID() string {
	return fmt.Sprintf("%s000%s%s", p.CityCode, p.Section, p.Numero)
}

// YearKnown reports whether the construction year was filled by enrichment.
func (p *Parcel) YearKnown() bool {
	return p.YearBuilt != UnknownYear
}

// HasAddress reports whether any enrichment produced an address.
func (p *Parcel) HasAddress() bool {
	return p.Address != ""
}
