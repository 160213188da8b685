package parcel

import "github.com/sells-group/parcel-finder/internal/model"

// PassesYear keeps p when no year is requested, when its year is unknown, or
// when it matches annee exactly.
func PassesYear(p *model.Parcel, annee *int) bool {
	return annee == nil || !p.YearKnown() || p.YearBuilt == *annee
}

// HasAddress keeps p only when enrichment produced an address.
func HasAddress(p *model.Parcel) bool {
	return p.HasAddress()
}

// Keep applies the year and address filters.
func Keep(p *model.Parcel, annee *int) bool {
	return PassesYear(p, annee) && HasAddress(p)
}
