package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/parcel-finder/internal/model"
)

// Document is the JSON/YAML result of a search.
type Document struct {
	Matches int             `json:"matches" yaml:"matches"`
	Parcels []*model.Parcel `json:"parcels" yaml:"parcels"`
}

type encodeFunc func(w io.Writer, doc *Document) error

func encodeJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return eris.Wrap(enc.Encode(doc), "report: encode json")
}

func encodeYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close yaml encoder")
}

// structured collects the run and writes one document on Flush.
type structured struct {
	w       io.Writer
	encode  encodeFunc
	doc     Document
	flushed bool
}

func newStructured(w io.Writer, encode encodeFunc) *structured {
	return &structured{w: w, encode: encode, doc: Document{Parcels: []*model.Parcel{}}}
}

func (s *structured) Count(n int) error {
	s.doc.Matches = n
	return nil
}

func (s *structured) Parcel(p *model.Parcel) error {
	s.doc.Parcels = append(s.doc.Parcels, p)
	return nil
}

func (s *structured) NoneKept() error { return nil }

// Flush writes the document once; later calls are no-ops.
func (s *structured) Flush() error {
	if s.flushed {
		return nil
	}
	s.flushed = true
	return s.encode(s.w, &s.doc)
}
