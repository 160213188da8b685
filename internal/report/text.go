package report

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-finder/internal/model"
)

// Text writes one line per event as soon as it happens.
type Text struct {
	w io.Writer
}

// NewText creates a text reporter.
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Count(n int) error {
	_, err := fmt.Fprintf(t.w, countFormat, n)
	return eris.Wrap(err, "report: write count")
}

func (t *Text) Parcel(p *model.Parcel) error {
	_, err := fmt.Fprintf(t.w, parcelFormat, p.Address, p.Section, p.Numero)
	return eris.Wrap(err, "report: write parcel")
}

func (t *Text) NoneKept() error {
	_, err := io.WriteString(t.w, noneKept)
	return eris.Wrap(err, "report: write summary")
}

func (t *Text) Flush() error { return nil }
