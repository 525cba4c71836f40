package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type marker struct {
	Base
	label   string
	enabled bool
}

func (m *marker) Enabled() bool { return m.enabled }

type other struct {
	Base
}

func newMarker(label string) *marker {
	return &marker{label: label, enabled: true}
}

func isMarker(f Facet) bool {
	_, ok := f.(*marker)
	return ok
}

func labels(found []Facet) []string {
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.(*marker).label)
	}
	return out
}

// buildTree returns root -> (a -> (a1, a2), b)
func buildTree(t *testing.T) (*Graph, map[string]*Node) {
	t.Helper()
	g := NewGraph("test")
	nodes := map[string]*Node{}
	for _, name := range []string{"root", "a", "a1", "a2", "b"} {
		nodes[name] = NewNode(name)
	}
	require.NoError(t, g.AddRoot(nodes["root"]))
	require.NoError(t, nodes["root"].AddChild(nodes["a"]))
	require.NoError(t, nodes["a"].AddChild(nodes["a1"]))
	require.NoError(t, nodes["a"].AddChild(nodes["a2"]))
	require.NoError(t, nodes["root"].AddChild(nodes["b"]))
	for name, n := range nodes {
		n.MustAttach(newMarker(name))
	}
	return g, nodes
}

func TestNode_Hierarchy(t *testing.T) {
	g, nodes := buildTree(t)

	assert.Equal(t, "root/a/a1", nodes["a1"].Path())
	assert.Same(t, nodes["root"], nodes["a2"].Root())
	assert.Same(t, g, nodes["a2"].Graph())
	assert.Same(t, nodes["a2"], g.Find("root/a/a2"))
	assert.Nil(t, g.Find("root/missing"))
	assert.Equal(t, 5, g.NodeCount())

	assert.True(t, nodes["a1"].IsDescendantOf(nodes["root"]))
	assert.True(t, nodes["a1"].IsDescendantOf(nodes["a1"]))
	assert.False(t, nodes["b"].IsDescendantOf(nodes["a"]))
	assert.False(t, nodes["b"].IsDescendantOf(nil))
}

func TestNode_AddChildRejectsCycles(t *testing.T) {
	_, nodes := buildTree(t)

	err := nodes["a1"].AddChild(nodes["root"])
	assert.ErrorIs(t, err, ErrCycle)
	assert.ErrorIs(t, nodes["a"].AddChild(nodes["a"]), ErrCycle)
	assert.ErrorIs(t, nodes["a"].AddChild(nil), ErrNilNode)
}

func TestNode_Reparent(t *testing.T) {
	g, nodes := buildTree(t)

	require.NoError(t, nodes["b"].AddChild(nodes["a2"]))
	assert.Equal(t, "root/b/a2", nodes["a2"].Path())
	assert.Equal(t, 1, nodes["a"].ChildCount())

	nodes["b"].Detach()
	assert.Nil(t, nodes["b"].Graph())
	assert.Nil(t, nodes["a2"].Graph())
	assert.Equal(t, 3, g.NodeCount())
}

func TestNode_Attach(t *testing.T) {
	n := NewNode("n")
	m := newMarker("m")
	require.NoError(t, n.Attach(m))
	assert.Same(t, n, m.Owner())

	err := NewNode("other").Attach(m)
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	var typedNil *marker
	assert.ErrorIs(t, n.Attach(typedNil), ErrNilFacet)

	assert.True(t, n.Remove(m))
	assert.Nil(t, m.Owner())
	assert.False(t, n.Remove(m))
}

func TestNode_ActivityAndTemplates(t *testing.T) {
	_, nodes := buildTree(t)

	nodes["a"].SetActive(false)
	assert.False(t, nodes["a1"].ActiveInHierarchy())
	assert.True(t, nodes["a1"].ActiveSelf())
	assert.True(t, nodes["b"].ActiveInHierarchy())

	nodes["a"].SetTemplate(true)
	assert.True(t, nodes["a2"].IsTemplate())
	assert.False(t, nodes["b"].IsTemplate())
}

func TestQuery_On(t *testing.T) {
	n := NewNode("n")
	n.MustAttach(newMarker("x"), &other{}, newMarker("y"))

	assert.Equal(t, []string{"x", "y"}, labels(On(n, Search{Match: isMarker})))
	assert.Equal(t, []string{"x"}, labels(On(n, Search{Match: isMarker, Limit: 1})))
}

func TestQuery_InAncestors(t *testing.T) {
	_, nodes := buildTree(t)

	found := InAncestors(nodes["a1"], Search{Match: isMarker})
	assert.Equal(t, []string{"a1", "a", "root"}, labels(found))

	found = InAncestors(nodes["a1"].Parent(), Search{Match: isMarker, Limit: 1})
	assert.Equal(t, []string{"a"}, labels(found))
}

func TestQuery_InAncestorsSkipsInactive(t *testing.T) {
	_, nodes := buildTree(t)
	nodes["a"].SetActive(false)

	found := InAncestors(nodes["a"], Search{Match: isMarker})
	assert.Equal(t, []string{"root"}, labels(found))

	found = InAncestors(nodes["a"], Search{Match: isMarker, IncludeInactive: true})
	assert.Equal(t, []string{"a", "root"}, labels(found))
}

func TestQuery_InDescendants(t *testing.T) {
	g, nodes := buildTree(t)

	found := InDescendants(nodes["root"], Search{Match: isMarker})
	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, labels(found))

	found = InChildren(nodes["root"], Search{Match: isMarker})
	assert.Equal(t, []string{"a", "a1", "a2", "b"}, labels(found))

	found = InChildren(nodes["root"], Search{Match: isMarker, Limit: 2})
	assert.Equal(t, []string{"a", "a1"}, labels(found))

	found = InGraph(g, Search{Match: isMarker})
	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, labels(found))
}

func TestQuery_DisabledFacetsAreInactive(t *testing.T) {
	_, nodes := buildTree(t)
	nodes["a1"].Facets()[0].(*marker).enabled = false

	found := InDescendants(nodes["a"], Search{Match: isMarker})
	assert.Equal(t, []string{"a", "a2"}, labels(found))

	found = InDescendants(nodes["a"], Search{Match: isMarker, IncludeInactive: true})
	assert.Equal(t, []string{"a", "a1", "a2"}, labels(found))

	// Own facets are always candidates for On.
	found = On(nodes["a1"], Search{Match: isMarker})
	assert.Equal(t, []string{"a1"}, labels(found))
}

func TestDescribe(t *testing.T) {
	_, nodes := buildTree(t)
	assert.Equal(t, "root/a#marker", Describe(nodes["a"].Facets()[0]))
	assert.Equal(t, "<detached>#other", Describe(&other{}))
	assert.Equal(t, "<nil>", Describe(nil))
}

func TestMarkDirty(t *testing.T) {
	m := newMarker("m")
	MarkDirty(m)
	assert.True(t, m.IsDirty())
	m.ClearDirty()
	assert.False(t, m.IsDirty())
}
