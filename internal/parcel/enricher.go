package parcel

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/model"
	"github.com/sells-group/parcel-finder/pkg/bdnb"
	"github.com/sells-group/parcel-finder/pkg/geocode"
)

// Enricher fills a parcel's address, construction year and wall material
// from the buildings registry, falling back to reverse geocoding for the
// address when one is configured.
type Enricher struct {
	registry bdnb.Client
	reverser geocode.Reverser
}

// NewEnricher creates an Enricher. A nil reverser disables the fallback.
func NewEnricher(registry bdnb.Client, reverser geocode.Reverser) *Enricher {
	return &Enricher{registry: registry, reverser: reverser}
}

// Enrich mutates p in place. The registry address wins; the reverse lookup
// only runs when the registry left the address empty.
func (e *Enricher) Enrich(ctx context.Context, p *model.Parcel) error {
	id := p.CadastralID()
	log := zap.L().With(zap.String("cadastral_id", id))

	b, err := e.registry.Building(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "enricher: registry %s", id)
	}
	if b != nil {
		applyBuilding(p, b)
	} else {
		log.Debug("no building record")
	}

	if p.HasAddress() || e.reverser == nil {
		return nil
	}

	r, err := e.reverser.Reverse(ctx, p.Latitude, p.Longitude)
	if err != nil {
		return eris.Wrapf(err, "enricher: reverse %s", id)
	}
	if r == nil || r.Address == "" {
		log.Debug("no reverse address")
		return nil
	}
	p.Address = r.Address
	p.AddressSource = model.AddressSourceReverse
	return nil
}

func applyBuilding(p *model.Parcel, b *bdnb.Building) {
	if b.AdressePostal != nil && *b.AdressePostal != "" {
		p.Address = *b.AdressePostal
		p.AddressSource = model.AddressSourceRegistry
	}
	if b.AnneeConstruction != nil {
		p.YearBuilt = *b.AnneeConstruction
	}
	if b.MurMateriau != nil {
		p.WallMaterial = *b.MurMateriau
	}
}
