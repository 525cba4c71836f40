package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ProgressBar draws a single-line bar, redrawn in place
type ProgressBar struct {
	writer  io.Writer
	total   int
	current int
	width   int
	message string
	noColor bool
}

// NewProgressBar creates a bar for total steps
func NewProgressBar(w io.Writer, total int, message string, noColor bool) *ProgressBar {
	return &ProgressBar{
		writer:  w,
		total:   total,
		width:   30,
		message: message,
		noColor: noColor,
	}
}

// Step advances the bar by one and shows label after it
func (p *ProgressBar) Step(label string) {
	p.current = min(p.current+1, p.total)
	p.render(label)
}

// Finish ends the bar's line
func (p *ProgressBar) Finish() {
	if p.total > 0 {
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressBar) render(label string) {
	if p.total == 0 {
		return
	}

	filled := p.width * p.current / p.total
	var bar strings.Builder
	bar.WriteString("[")
	paint(p.noColor, color.FgCyan).Fprint(&bar, strings.Repeat("█", filled))
	paint(p.noColor, color.FgHiBlack).Fprint(&bar, strings.Repeat("░", p.width-filled))
	bar.WriteString("]")

	fmt.Fprintf(p.writer, "\r%s %d/%d %s %s", bar.String(), p.current, p.total, p.message, label)
}
