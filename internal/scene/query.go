package scene

// Match selects facets during a search
type Match func(Facet) bool

// Search controls which candidates a query accepts and how many it returns.
// A Limit of zero means unlimited.
type Search struct {
	Match           Match
	IncludeInactive bool
	Limit           int
}

func (s Search) eligible(n *Node, f Facet) bool {
	if !s.IncludeInactive && (!n.ActiveInHierarchy() || !IsEnabled(f)) {
		return false
	}
	return s.Match(f)
}

type collector struct {
	search Search
	out    []Facet
}

// add appends f and reports whether the search should continue
func (c *collector) add(f Facet) bool {
	c.out = append(c.out, f)
	return c.search.Limit == 0 || len(c.out) < c.search.Limit
}

// On returns matching facets attached directly to n, in attachment order.
// Activity is not considered: a node's own facets are always candidates.
func On(n *Node, s Search) []Facet {
	c := &collector{search: s}
	for _, f := range n.facets {
		if s.Match(f) && !c.add(f) {
			break
		}
	}
	return c.out
}

// InAncestors returns matching facets on n and its ancestors, nearest first
func InAncestors(n *Node, s Search) []Facet {
	c := &collector{search: s}
	for cur := n; cur != nil; cur = cur.parent {
		for _, f := range cur.facets {
			if s.eligible(cur, f) && !c.add(f) {
				return c.out
			}
		}
	}
	return c.out
}

// InDescendants returns matching facets in the subtree rooted at n, pre-order depth first in
// child-index order, starting with n's own facets
func InDescendants(n *Node, s Search) []Facet {
	c := &collector{search: s}
	c.descend(n)
	return c.out
}

// InChildren is InDescendants over each child subtree in turn, skipping n's own facets
func InChildren(n *Node, s Search) []Facet {
	c := &collector{search: s}
	for _, child := range n.children {
		if !c.descend(child) {
			break
		}
	}
	return c.out
}

func (c *collector) descend(n *Node) bool {
	if !c.search.IncludeInactive && !n.ActiveInHierarchy() {
		// Everything below an inactive node is inactive too.
		return true
	}
	for _, f := range n.facets {
		if c.search.eligible(n, f) && !c.add(f) {
			return false
		}
	}
	for _, child := range n.children {
		if !c.descend(child) {
			return false
		}
	}
	return true
}

// InGraph returns matching facets across the whole graph in traversal order
func InGraph(g *Graph, s Search) []Facet {
	c := &collector{search: s}
	for _, r := range g.roots {
		if !c.descend(r) {
			break
		}
	}
	return c.out
}

// First returns the first element of a search result, or nil
func First(found []Facet) Facet {
	if len(found) == 0 {
		return nil
	}
	return found[0]
}
