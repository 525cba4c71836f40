// Package scenefile reads and writes scene graphs as YAML. Facets are created by kind name from a
// catalog and their references are stored as facet addresses of the form path/to/node#Kind or
// path/to/node#Kind[i].
package scenefile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a scene graph
type File struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes,omitempty"`
}

// NodeSpec is one node and its subtree
type NodeSpec struct {
	Name     string      `yaml:"name"`
	Active   *bool       `yaml:"active,omitempty"`
	Template bool        `yaml:"template,omitempty"`
	Facets   []FacetSpec `yaml:"facets,omitempty"`
	Children []NodeSpec  `yaml:"children,omitempty"`
}

// FacetSpec is one attached facet. Props is decoded into the facet created for Kind.
type FacetSpec struct {
	Kind    string               `yaml:"kind"`
	Enabled *bool                `yaml:"enabled,omitempty"`
	Props   yaml.Node            `yaml:"props,omitempty"`
	Refs    map[string]Addresses `yaml:"refs,omitempty"`
}

// Addresses is the value of one reference field: a single address, or a list for collections.
// An empty address in a list stands for a missing element.
type Addresses struct {
	Items []string
	List  bool
}

// UnmarshalYAML accepts a scalar or a sequence of scalars
func (a *Addresses) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		a.Items, a.List = []string{s}, false
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		a.Items, a.List = items, true
		return nil
	default:
		return fmt.Errorf("line %d: reference must be an address or a list of addresses", value.Line)
	}
}

// MarshalYAML writes a scalar for single references and a sequence for collections
func (a Addresses) MarshalYAML() (interface{}, error) {
	if !a.List && len(a.Items) == 1 {
		return a.Items[0], nil
	}
	if a.Items == nil {
		return []string{}, nil
	}
	return a.Items, nil
}

// Address identifies a facet by node path, kind name and index among the node's facets of that kind
type Address struct {
	Path  string
	Kind  string
	Index int
}

// ParseAddress parses path#Kind or path#Kind[i]
func ParseAddress(s string) (Address, error) {
	path, kind, ok := strings.Cut(s, "#")
	if !ok || path == "" || kind == "" {
		return Address{}, fmt.Errorf("%w: %q", ErrBadAddress, s)
	}

	addr := Address{Path: path, Kind: kind}
	if open := strings.IndexByte(kind, '['); open >= 0 {
		if !strings.HasSuffix(kind, "]") || open == 0 {
			return Address{}, fmt.Errorf("%w: %q", ErrBadAddress, s)
		}
		i, err := strconv.Atoi(kind[open+1 : len(kind)-1])
		if err != nil || i < 0 {
			return Address{}, fmt.Errorf("%w: bad index in %q", ErrBadAddress, s)
		}
		addr.Kind, addr.Index = kind[:open], i
	}
	return addr, nil
}

func (a Address) String() string {
	if a.Index == 0 {
		return a.Path + "#" + a.Kind
	}
	return fmt.Sprintf("%s#%s[%d]", a.Path, a.Kind, a.Index)
}
