package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a CLI message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// MessageOptions configures FormatMessage
type MessageOptions struct {
	Level        Level
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatMessage renders a message with optional suggestions and help commands
//
// Example output:
//
//	❌ UNKNOWN KIND: Turet
//	   Scene level.yaml uses kind 'Turet'.
//
//	   Did you mean: Turret?
//
//	   → List kinds: refwire kinds
func FormatMessage(opts MessageOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case LevelWarning:
		header, body, symbol = paint(opts.NoColor, color.FgYellow, color.Bold), paint(opts.NoColor, color.FgYellow), "⚠️"
	case LevelInfo:
		header, body, symbol = paint(opts.NoColor, color.FgCyan, color.Bold), paint(opts.NoColor, color.FgCyan), "ℹ️"
	default:
		header, body, symbol = paint(opts.NoColor, color.FgRed, color.Bold), paint(opts.NoColor, color.FgRed), "❌"
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		if opts.Problem != "" {
			body.Fprintf(&b, "   %s\n", opts.Problem)
		}
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteMessage writes a formatted message to w
func WriteMessage(w io.Writer, opts MessageOptions) {
	fmt.Fprint(w, FormatMessage(opts))
}

// FormatSuccess creates a success line
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success line to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// UnknownKindError explains a scene file naming a kind the catalog does not have
func UnknownKindError(scene, kind string, known []string, noColor bool) string {
	return FormatMessage(MessageOptions{
		Level:        LevelError,
		Context:      "unknown kind: " + kind,
		Problem:      fmt.Sprintf("Scene %s uses kind '%s'.", scene, kind),
		Suggestions:  Suggest(kind, known, 3),
		HelpCommands: []string{"List kinds: refwire kinds"},
		NoColor:      noColor,
	})
}

// SceneError reports a scene that could not be loaded or saved
func SceneError(scene string, err error, noColor bool) string {
	return FormatMessage(MessageOptions{
		Level:        LevelError,
		Context:      "scene failed: " + scene,
		Problem:      err.Error(),
		HelpCommands: []string{"Get help: refwire validate --help"},
		NoColor:      noColor,
	})
}

// ConfigError reports an invalid configuration
func ConfigError(message string, noColor bool) string {
	return FormatMessage(MessageOptions{
		Level:   LevelError,
		Context: "configuration error",
		Problem: message,
		HelpCommands: []string{
			"View config: cat refwire.yaml",
			"Get help: refwire --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return FormatMessage(MessageOptions{Level: LevelWarning, Problem: message, NoColor: noColor})
}
