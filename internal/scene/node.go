package scene

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Node is a tree entity with an optional parent, ordered children, an active flag and an
// ordered set of attached facets. Nodes are compared by identity.
type Node struct {
	ID   uuid.UUID
	Name string

	parent   *Node
	children []*Node
	facets   []Facet
	active   bool
	template bool
	graph    *Graph
}

// NewNode creates an active, detached node with a fresh ID
func NewNode(name string) *Node {
	return &Node{
		ID:     uuid.New(),
		Name:   name,
		active: true,
	}
}

// Parent returns the node's parent, or nil for roots and detached nodes
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in child-index order.
// The returned slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// ChildCount returns the number of direct children
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the child at index i
func (n *Node) Child(i int) *Node {
	return n.children[i]
}

// Graph returns the graph the node is rooted in, or nil when it is not part of one
func (n *Node) Graph() *Graph {
	return n.graph
}

// AddChild appends c as the last child of n, detaching it from any previous parent or graph
func (n *Node) AddChild(c *Node) error {
	if c == nil {
		return ErrNilNode
	}
	if c == n || n.IsDescendantOf(c) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, c.Path(), n.Path())
	}
	c.Detach()
	c.parent = n
	n.children = append(n.children, c)
	c.setGraph(n.graph)
	return nil
}

// Detach removes n from its parent, or from its graph's roots when n is a root
func (n *Node) Detach() {
	if n.parent != nil {
		p := n.parent
		if i := slices.Index(p.children, n); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		n.parent = nil
	} else if n.graph != nil {
		n.graph.removeRoot(n)
	}
	n.setGraph(nil)
}

func (n *Node) setGraph(g *Graph) {
	n.graph = g
	for _, c := range n.children {
		c.setGraph(g)
	}
}

// SetActive sets the node's own active flag
func (n *Node) SetActive(active bool) {
	n.active = active
}

// ActiveSelf returns the node's own active flag, ignoring ancestors
func (n *Node) ActiveSelf() bool {
	return n.active
}

// ActiveInHierarchy reports whether the node and all of its ancestors are active
func (n *Node) ActiveInHierarchy() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.active {
			return false
		}
	}
	return true
}

// SetTemplate marks the node as an uninstantiated template.
// Hosts on template nodes are resolved but not validated.
func (n *Node) SetTemplate(template bool) {
	n.template = template
}

// IsTemplate reports whether n or any ancestor is marked as a template
func (n *Node) IsTemplate() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.template {
			return true
		}
	}
	return false
}

// Attach adds f to the node's facets. A facet may only be owned by one node.
func (n *Node) Attach(f Facet) error {
	if IsNil(f) {
		return ErrNilFacet
	}
	if owner := f.Owner(); owner != nil {
		return fmt.Errorf("%w: %s already attached to %s", ErrAlreadyAttached, TypeName(f), owner.Path())
	}
	f.bind(n)
	n.facets = append(n.facets, f)
	return nil
}

// MustAttach attaches each facet and panics on failure. Intended for fixtures and tests.
func (n *Node) MustAttach(facets ...Facet) *Node {
	for _, f := range facets {
		if err := n.Attach(f); err != nil {
			panic(err)
		}
	}
	return n
}

// Remove detaches f from the node
func (n *Node) Remove(f Facet) bool {
	i := slices.IndexFunc(n.facets, func(x Facet) bool { return x == f })
	if i < 0 {
		return false
	}
	n.facets = slices.Delete(n.facets, i, i+1)
	f.bind(nil)
	return true
}

// Facets returns the attached facets in attachment order.
// The returned slice must not be modified.
func (n *Node) Facets() []Facet {
	return n.facets
}

// IsDescendantOf reports whether n lies in the subtree rooted at a, n itself included
func (n *Node) IsDescendantOf(a *Node) bool {
	if a == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur == a {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor of n
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Path returns the slash-separated names from the root down to n
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.Name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// Find returns the first descendant reached by following the slash-separated child names
func (n *Node) Find(path string) *Node {
	if path == "" {
		return n
	}
	cur := n
	for _, name := range strings.Split(path, "/") {
		var next *Node
		for _, c := range cur.children {
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (n *Node) String() string {
	return n.Path()
}
