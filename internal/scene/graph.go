// Package scene models the in-memory tree that references are resolved against:
// nodes with ordered children, attached facets, and the graph that owns the roots.
package scene

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is a forest of root nodes. Traversal order is root order, then pre-order depth first
// in child-index order.
type Graph struct {
	Name  string
	roots []*Node
}

// NewGraph creates an empty graph
func NewGraph(name string) *Graph {
	return &Graph{Name: name}
}

// AddRoot appends n as the last root, detaching it from its previous position
func (g *Graph) AddRoot(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	n.Detach()
	g.roots = append(g.roots, n)
	n.setGraph(g)
	return nil
}

func (g *Graph) removeRoot(n *Node) {
	if i := slices.Index(g.roots, n); i >= 0 {
		g.roots = slices.Delete(g.roots, i, i+1)
	}
}

// Roots returns the root nodes in order. The returned slice must not be modified.
func (g *Graph) Roots() []*Node {
	return g.roots
}

// Walk visits every node in traversal order until fn returns false
func (g *Graph) Walk(fn func(*Node) bool) {
	for _, r := range g.roots {
		if !walk(r, fn) {
			return
		}
	}
}

func walk(n *Node, fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// Find resolves a slash-separated path whose first segment names a root
func (g *Graph) Find(path string) *Node {
	root, rest, _ := strings.Cut(path, "/")
	for _, r := range g.roots {
		if r.Name == root {
			if n := r.Find(rest); n != nil {
				return n
			}
		}
	}
	return nil
}

// MustFind is Find that panics when the path does not exist
func (g *Graph) MustFind(path string) *Node {
	n := g.Find(path)
	if n == nil {
		panic(fmt.Sprintf("scene: no node at %q", path))
	}
	return n
}

// NodeCount returns the total number of nodes in the graph
func (g *Graph) NodeCount() int {
	count := 0
	g.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
