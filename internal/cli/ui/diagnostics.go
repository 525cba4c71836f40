package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/refwire/refwire/internal/diag"
)

// RenderDiagnostics writes one line per diagnostic under the scene name. Nothing is written for
// an empty list.
func RenderDiagnostics(w io.Writer, scene string, list *diag.List, noColor bool) {
	if list == nil || len(list.Items) == 0 {
		return
	}

	paint(noColor, color.Bold).Fprintln(w, scene)
	red := paint(noColor, color.FgRed, color.Bold)
	yellow := paint(noColor, color.FgYellow, color.Bold)
	gray := paint(noColor, color.FgHiBlack)

	for _, d := range list.Items {
		if d.Severity == diag.SeverityError {
			red.Fprint(w, "  ✗ error   ")
		} else {
			yellow.Fprint(w, "  ⚠ warning ")
		}

		node := d.NodePath()
		if node == "" {
			node = "<detached>"
		}
		target := d.Host
		if d.Field != "" {
			target += "." + d.Field
		}
		fmt.Fprintf(w, "%s %s", node, target)
		gray.Fprintf(w, " [%s]", d.Kind)
		if d.Detail != "" {
			fmt.Fprintf(w, " %s", d.Detail)
		}
		fmt.Fprintln(w)
	}
}

// Summary counts a validation run
type Summary struct {
	Scenes   int
	Hosts    int
	Errors   int
	Warnings int
	Repaired int
	Failed   int // scenes that could not be loaded or hit a fatal error
}

// RenderSummary writes the closing line of a validation run
func RenderSummary(w io.Writer, s Summary, noColor bool) {
	line := fmt.Sprintf("%d scene(s), %d host(s), %d error(s), %d warning(s), %d repaired",
		s.Scenes, s.Hosts, s.Errors, s.Warnings, s.Repaired)
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d failed", s.Failed)
	}

	if s.Errors > 0 || s.Failed > 0 {
		paint(noColor, color.FgRed, color.Bold).Fprintf(w, "✗ %s\n", line)
		return
	}
	WriteSuccess(w, line, noColor)
}
