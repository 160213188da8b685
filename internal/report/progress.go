package report

import (
	"io"
	"os"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Progress draws a one-line counter while parcels are enriched. It writes
// nothing unless its output is a terminal.
type Progress struct {
	w       io.Writer
	enabled bool
	total   int
	printer *message.Printer
}

// NewProgress returns a progress line on w, enabled only when w is a terminal.
func NewProgress(w io.Writer) *Progress {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}
	return newProgress(w, enabled)
}

func newProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{
		w:       w,
		enabled: enabled,
		printer: message.NewPrinter(language.French),
	}
}

// Start sets the number of steps.
func (p *Progress) Start(total int) {
	p.total = total
	p.Step(0)
}

// Step redraws the line with done steps completed.
func (p *Progress) Step(done int) {
	if !p.enabled || p.total == 0 {
		return
	}
	p.printer.Fprintf(p.w, "\rEnrichissement des parcelles %d/%d", done, p.total) //nolint:errcheck
}

// Clear erases the line so other output starts on a clean row. The next
// Step draws it again.
func (p *Progress) Clear() {
	if !p.enabled || p.total == 0 {
		return
	}
	io.WriteString(p.w, "\r\x1b[K") //nolint:errcheck
}

// Done erases the line for good.
func (p *Progress) Done() {
	p.Clear()
	p.total = 0
}
