// Package resolve discovers facets for declared reference fields by searching the scene tree
// and writes the results back into the host.
package resolve

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

// Change records one field whose value was rewritten
type Change struct {
	Field  string
	Before []scene.Facet
	After  []scene.Facet
}

// Result lists the fields a resolve call rewrote, in field order
type Result struct {
	Changes []Change
}

// Changed reports whether any field was rewritten
func (r *Result) Changed() bool {
	return r != nil && len(r.Changes) > 0
}

// Fields returns the names of the rewritten fields
func (r *Result) Fields() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Changes))
	for i, c := range r.Changes {
		out[i] = c.Field
	}
	return out
}

// Resolver searches the tree for each descriptor and assigns what it finds
type Resolver struct {
	logger *zap.Logger
}

// New creates a resolver. A nil logger disables logging.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger.Named("resolve")}
}

// Resolve processes fields in order. Writes are applied field by field: when a field fails with
// a configuration error, the fields before it keep their new values and the rest are skipped.
// The host is marked dirty when anything changed.
func (r *Resolver) Resolve(host scene.Facet, fields []*meta.Descriptor) (*Result, error) {
	if scene.IsNil(host) {
		return nil, scene.ErrNilFacet
	}
	node := host.Owner()
	if node == nil {
		return nil, fmt.Errorf("%w: %s", scene.ErrDetached, scene.TypeName(host))
	}

	res := &Result{}
	defer func() {
		if res.Changed() {
			scene.MarkDirty(host)
		}
	}()

	for _, d := range fields {
		if err := d.CheckConfigured(); err != nil {
			r.logger.Error("aborting resolution",
				zap.String("node", node.Path()),
				zap.String("field", d.Name),
				zap.Error(err))
			return res, err
		}
		r.resolveField(host, node, d, res)
	}
	return res, nil
}

func (r *Resolver) resolveField(host scene.Facet, node *scene.Node, d *meta.Descriptor, res *Result) {
	cur := d.Accessor.Read(host)

	// An explicit assignment always wins over discovery, and is not filtered.
	if d.Has(meta.Editable) && !cur.Empty() {
		return
	}

	found := r.search(node, d, cur)
	if d.Has(meta.ExcludeSelf) {
		found = exclude(found, node)
	}

	if d.Filter != nil && len(found) > 0 {
		kept := applyFilter(d.Filter, found)
		if !d.Collection && len(kept) == 0 {
			if d.Accessor.Discard(host) {
				res.Changes = append(res.Changes, Change{Field: d.Name, Before: cur.Items})
			}
			return
		}
		found = kept
	}

	if len(found) == 0 {
		return
	}
	if !d.Accessor.Write(host, found) {
		return
	}

	after := d.Accessor.Read(host).Items
	res.Changes = append(res.Changes, Change{Field: d.Name, Before: cur.Items, After: after})
	r.logger.Debug("reference assigned",
		zap.String("node", node.Path()),
		zap.String("host", d.HostName()),
		zap.String("field", d.Name),
		zap.Stringer("relation", d.Relation),
		zap.Int("count", len(after)))
}

func (r *Resolver) search(node *scene.Node, d *meta.Descriptor, cur meta.Value) []scene.Facet {
	s := scene.Search{
		Match:           d.Element.Matches,
		IncludeInactive: d.Has(meta.IncludeInactive),
	}
	if !d.Collection {
		s.Limit = 1
	}

	switch d.Relation {
	case meta.Unconstrained:
		return fixup(d, cur)

	case meta.Self:
		return scene.On(node, notOn(s, node, d))

	case meta.Ancestor:
		start := node
		if d.Has(meta.ExcludeSelf) {
			start = node.Parent()
		}
		if start == nil {
			return nil
		}
		return scene.InAncestors(start, s)

	case meta.Descendant:
		if d.Has(meta.ExcludeSelf) {
			return scene.InChildren(node, s)
		}
		return scene.InDescendants(node, s)

	case meta.Graph:
		if !d.Element.Capability {
			// Concrete facet types are matched on their exact dynamic type.
			want := d.Element.Type
			s.Match = func(f scene.Facet) bool { return reflect.TypeOf(f) == want }
		}
		s = notOn(s, node, d)
		if g := node.Graph(); g != nil {
			return scene.InGraph(g, s)
		}
		return scene.InDescendants(node.Root(), s)

	default:
		meta.Unhandled(d.Relation)
		return nil
	}
}

// fixup re-derives indirect values whose facet no longer satisfies the element type by looking
// for a matching facet on the same owner. Values that cannot be fixed are kept as they are.
func fixup(d *meta.Descriptor, cur meta.Value) []scene.Facet {
	if !d.Indirect || cur.Empty() {
		return nil
	}
	out := make([]scene.Facet, 0, len(cur.Items))
	for _, raw := range cur.Items {
		if raw == nil || raw.Owner() == nil || d.Element.Matches(raw) {
			out = append(out, raw)
			continue
		}
		repl := scene.First(scene.On(raw.Owner(), scene.Search{Match: d.Element.Matches, Limit: 1}))
		if repl == nil {
			repl = raw
		}
		out = append(out, repl)
	}
	return out
}

// notOn rejects facets owned by node when d excludes self. The match runs before the search
// limit, so a single-valued field still finds the first facet on another node.
func notOn(s scene.Search, node *scene.Node, d *meta.Descriptor) scene.Search {
	if !d.Has(meta.ExcludeSelf) {
		return s
	}
	match := s.Match
	s.Match = func(f scene.Facet) bool { return f.Owner() != node && match(f) }
	return s
}

func exclude(found []scene.Facet, node *scene.Node) []scene.Facet {
	out := found[:0:0]
	for _, f := range found {
		if f == nil || f.Owner() != node {
			out = append(out, f)
		}
	}
	return out
}

func applyFilter(filter meta.Filter, found []scene.Facet) []scene.Facet {
	out := make([]scene.Facet, 0, len(found))
	for _, f := range found {
		if f == nil || filter.Include(f) {
			out = append(out, f)
		}
	}
	return out
}
