// Package diag collects the structured findings produced while resolving and validating
// reference fields, and hands them to reporting sinks.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/refwire/refwire/internal/scene"
)

// Kind classifies a diagnostic
type Kind int

const (
	// MissingRequiredReference means a required field is empty
	MissingRequiredReference Kind = iota
	// WrongLocationReference means a value violates its relation's containment rule
	WrongLocationReference
	// SelfExclusionViolation means an ExcludeSelf field points at the host's own node
	SelfExclusionViolation
	// NoDeclaredReferences means a validated host type declares no reference fields
	NoDeclaredReferences
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case MissingRequiredReference:
		return "MissingRequiredReference"
	case WrongLocationReference:
		return "WrongLocationReference"
	case SelfExclusionViolation:
		return "SelfExclusionViolation"
	case NoDeclaredReferences:
		return "NoDeclaredReferences"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Severity returns the default severity of the kind
func (k Kind) Severity() Severity {
	if k == NoDeclaredReferences {
		return SeverityWarning
	}
	return SeverityError
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Severity indicates whether a diagnostic fails validation
type Severity int

const (
	SeverityError   Severity = iota // fails validation
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one finding attributed to a host on a node and one of its fields
type Diagnostic struct {
	Node     *scene.Node `json:"-"`
	Host     string      `json:"host"`
	Field    string      `json:"field,omitempty"`
	Kind     Kind        `json:"kind"`
	Severity Severity    `json:"severity"`
	Detail   string      `json:"detail"`
}

// NodePath returns the path of the diagnostic's node, or "" when unattached
func (d Diagnostic) NodePath() string {
	if d.Node == nil {
		return ""
	}
	return d.Node.Path()
}

// MarshalJSON adds the node path to the encoded diagnostic
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	type plain Diagnostic
	return json.Marshal(struct {
		Node string `json:"node"`
		plain
	}{Node: d.NodePath(), plain: plain(d)})
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Severity, d.Kind)
	if p := d.NodePath(); p != "" {
		fmt.Fprintf(&b, " at %s", p)
	}
	b.WriteString(": ")
	b.WriteString(d.Host)
	if d.Field != "" {
		fmt.Fprintf(&b, ".%s", d.Field)
	}
	if d.Detail != "" {
		fmt.Fprintf(&b, " %s", d.Detail)
	}
	return b.String()
}

// List accumulates diagnostics in emission order
type List struct {
	Items []Diagnostic `json:"diagnostics"`
}

// Add appends a diagnostic, filling its severity from the kind when unset
func (l *List) Add(d Diagnostic) {
	if d.Severity == SeverityError {
		d.Severity = d.Kind.Severity()
	}
	l.Items = append(l.Items, d)
}

// Append adds every diagnostic of other
func (l *List) Append(other *List) {
	if other == nil {
		return
	}
	l.Items = append(l.Items, other.Items...)
}

// HasErrors reports whether any diagnostic has error severity
func (l *List) HasErrors() bool {
	for _, d := range l.Items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics
func (l *List) Count() int {
	return len(l.Items)
}

// CountKind returns how many diagnostics have kind k
func (l *List) CountKind(k Kind) int {
	n := 0
	for _, d := range l.Items {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Errors returns only error-severity diagnostics
func (l *List) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only warning-severity diagnostics
func (l *List) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Error implements the error interface so a failing list can be returned as an error
func (l *List) Error() string {
	errs := l.Errors()
	if len(errs) == 0 {
		return "reference validation failed"
	}
	if len(errs) == 1 {
		return fmt.Sprintf("reference validation failed: %s", errs[0])
	}
	lines := make([]string, len(errs))
	for i, d := range errs {
		lines[i] = "  - " + d.String()
	}
	return fmt.Sprintf("reference validation failed:\n%s", strings.Join(lines, "\n"))
}
