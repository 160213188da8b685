// Package report prints search results.
package report

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-finder/internal/model"
)

// Output strings of the text format.
const (
	countFormat  = "Parcelles trouvées proches de la contenance cible: %d\n"
	parcelFormat = "Au %s (cadastre Section: %s, Numéro: %s)\n"
	noneKept     = "Aucun n'a les caractéristiques requises (adresse, année ..etc)\n"
)

// Reporter receives the results of one search in order: the match count,
// each surviving parcel, then Flush. NoneKept is called instead of Parcel
// when no match survives the filters.
type Reporter interface {
	Count(n int) error
	Parcel(p *model.Parcel) error
	NoneKept() error
	Flush() error
}

// New returns the reporter for format ("text", "json" or "yaml") writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "text", "":
		return NewText(w), nil
	case "json":
		return newStructured(w, encodeJSON), nil
	case "yaml":
		return newStructured(w, encodeYAML), nil
	default:
		return nil, eris.Errorf("report: unknown format %q", format)
	}
}
