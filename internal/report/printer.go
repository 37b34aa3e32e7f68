package report

import (
	"fmt"
	"io"
	"strings"
)

// printer remembers the first write error so that renderers can print
// unconditionally and check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

func (p *printer) rule(ch string, n int) {
	p.line(strings.Repeat(ch, n))
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
