// Package validate checks that the values held by reference fields still satisfy their declared
// relation. It never modifies the host.
package validate

import (
	"fmt"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

// Validator checks reference fields against their relations
type Validator struct{}

// New creates a validator
func New() *Validator {
	return &Validator{}
}

// Validate checks every field in order and returns whether all passed together with the
// diagnostics in field order. A configuration error stops the check and no list is returned.
func (v *Validator) Validate(host scene.Facet, fields []*meta.Descriptor) (bool, *diag.List, error) {
	if scene.IsNil(host) {
		return false, nil, scene.ErrNilFacet
	}
	node := host.Owner()
	if node == nil {
		return false, nil, fmt.Errorf("%w: %s", scene.ErrDetached, scene.TypeName(host))
	}

	list := &diag.List{}
	hostName := scene.TypeName(host)
	if len(fields) == 0 {
		list.Add(diag.Diagnostic{
			Node:     node,
			Host:     hostName,
			Kind:     diag.NoDeclaredReferences,
			Severity: diag.SeverityWarning,
			Detail:   "has no reference fields",
		})
		return true, list, nil
	}

	for _, d := range fields {
		if err := d.CheckConfigured(); err != nil {
			return false, nil, err
		}
		c := &check{node: node, host: hostName, field: d, list: list}
		c.run(d.Accessor.Read(host))
	}
	return !list.HasErrors(), list, nil
}

type check struct {
	node  *scene.Node
	host  string
	field *meta.Descriptor
	list  *diag.List
}

func (c *check) report(kind diag.Kind, format string, args ...any) {
	c.list.Add(diag.Diagnostic{
		Node:   c.node,
		Host:   c.host,
		Field:  c.field.Name,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (c *check) run(value meta.Value) {
	d := c.field
	if value.Empty() {
		if !d.Has(meta.Optional) {
			c.report(diag.MissingRequiredReference, "missing required %s reference", d.TypeLabel())
		}
		return
	}

	if d.Has(meta.EditableAnywhere) {
		return
	}

	for i, el := range value.Items {
		if el == nil {
			c.report(diag.MissingRequiredReference, "missing required element %d in %s", i, d.TypeLabel())
			continue
		}
		if d.Has(meta.ExcludeSelf) && el.Owner() == c.node {
			c.report(diag.SelfExclusionViolation, "%s cannot be on the host's own node (%s)",
				c.label(i), scene.Describe(el))
		}
		if !Contains(d.Relation, c.node, el) {
			c.report(diag.WrongLocationReference, "requires %s to be %s, found %s",
				c.label(i), placement(d.Relation), scene.Describe(el))
		}
	}
}

func (c *check) label(i int) string {
	if c.field.Collection {
		return fmt.Sprintf("%s element %d", c.field.TypeLabel(), i)
	}
	return c.field.TypeLabel() + " reference"
}

// Contains reports whether facet f sits where relation r requires relative to node
func Contains(r meta.Relation, node *scene.Node, f scene.Facet) bool {
	owner := f.Owner()
	switch r {
	case meta.Unconstrained, meta.Graph:
		return true
	case meta.Self:
		return owner == node
	case meta.Ancestor:
		return owner != nil && node.IsDescendantOf(owner)
	case meta.Descendant:
		return owner != nil && owner.IsDescendantOf(node)
	default:
		meta.Unhandled(r)
		return false
	}
}

func placement(r meta.Relation) string {
	switch r {
	case meta.Self:
		return "on Self"
	case meta.Ancestor:
		return "an Ancestor"
	case meta.Descendant:
		return "a Descendant"
	default:
		return "in the Graph"
	}
}
