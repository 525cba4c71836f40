package scenefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/refwire/refwire/internal/catalog"
	"github.com/refwire/refwire/internal/hooks"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

type enabler interface {
	SetEnabled(on bool)
}

// Codec converts between scene graphs and scene files
type Codec struct {
	kinds    *catalog.Kinds
	registry *meta.Registry
	hooks    *hooks.Executor
	logger   *zap.Logger
}

// Option configures a Codec
type Option func(*Codec)

// WithHooks runs the executor's before-save and after-save hooks around Save
func WithHooks(e *hooks.Executor) Option {
	return func(c *Codec) {
		c.hooks = e
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a codec that instantiates facets from kinds and maps references through the
// descriptors in registry
func New(kinds *catalog.Kinds, registry *meta.Registry, opts ...Option) *Codec {
	c := &Codec{
		kinds:    kinds,
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pending holds a facet whose references are assigned once every node exists
type pending struct {
	host scene.Facet
	spec *FacetSpec
}

// Load reads a scene file. A file without a name takes its base name.
func (c *Codec) Load(path string) (*scene.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	c.logger.Debug("scene loaded", zap.String("path", path), zap.Int("nodes", g.NodeCount()))
	return g, nil
}

// Decode builds a graph from scene file contents
func (c *Codec) Decode(data []byte) (*scene.Graph, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	g := scene.NewGraph(file.Name)
	var refs []pending
	for i := range file.Nodes {
		n, err := c.buildNode(&file.Nodes[i], &refs)
		if err != nil {
			return nil, err
		}
		if err := g.AddRoot(n); err != nil {
			return nil, err
		}
	}

	for _, p := range refs {
		if err := c.assignRefs(g, p.host, p.spec); err != nil {
			return nil, fmt.Errorf("%s: %w", scene.Describe(p.host), err)
		}
	}
	return g, nil
}

func (c *Codec) buildNode(spec *NodeSpec, refs *[]pending) (*scene.Node, error) {
	n := scene.NewNode(spec.Name)
	if spec.Active != nil {
		n.SetActive(*spec.Active)
	}
	n.SetTemplate(spec.Template)

	for i := range spec.Facets {
		fs := &spec.Facets[i]
		f, err := c.kinds.New(fs.Kind)
		if err != nil {
			return nil, &KindError{Node: spec.Name, Kind: fs.Kind, Err: err}
		}
		if fs.Props.Kind != 0 {
			if err := fs.Props.Decode(f); err != nil {
				return nil, fmt.Errorf("node %s: %s props: %w", spec.Name, fs.Kind, err)
			}
		}
		if fs.Enabled != nil {
			if e, ok := f.(enabler); ok {
				e.SetEnabled(*fs.Enabled)
			}
		}
		if err := n.Attach(f); err != nil {
			return nil, err
		}
		if len(fs.Refs) > 0 {
			*refs = append(*refs, pending{host: f, spec: fs})
		}
	}

	for i := range spec.Children {
		child, err := c.buildNode(&spec.Children[i], refs)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (c *Codec) assignRefs(g *scene.Graph, host scene.Facet, spec *FacetSpec) error {
	fields := c.registry.ScanHost(host)
	for name, addrs := range spec.Refs {
		d := findField(fields, name)
		if d == nil {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, spec.Kind, name)
		}
		if !d.Collection && addrs.List {
			return fmt.Errorf("%w: %s expects a single address", ErrBadAddress, name)
		}

		found := make([]scene.Facet, 0, len(addrs.Items))
		for _, s := range addrs.Items {
			if s == "" {
				found = append(found, nil)
				continue
			}
			f, err := c.resolve(g, s)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			found = append(found, f)
		}
		if len(found) == 0 || (!d.Collection && found[0] == nil) {
			continue
		}
		d.Accessor.Write(host, found)
	}
	return nil
}

func findField(fields []*meta.Descriptor, name string) *meta.Descriptor {
	for _, d := range fields {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (c *Codec) resolve(g *scene.Graph, s string) (scene.Facet, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return nil, err
	}
	n := g.Find(addr.Path)
	if n == nil {
		return nil, fmt.Errorf("%w: no node %s", ErrUnresolved, addr.Path)
	}
	t, ok := c.kinds.TypeOf(addr.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind in %s", ErrUnresolved, s)
	}
	seen := 0
	for _, f := range n.Facets() {
		if reflect.TypeOf(f) != t {
			continue
		}
		if seen == addr.Index {
			return f, nil
		}
		seen++
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolved, s)
}

// Encode renders g as scene file contents, writing the current value of every declared
// reference field
func (c *Codec) Encode(g *scene.Graph) ([]byte, error) {
	file := File{Name: g.Name}
	for _, r := range g.Roots() {
		spec, err := c.encodeNode(g, r)
		if err != nil {
			return nil, err
		}
		file.Nodes = append(file.Nodes, spec)
	}
	return yaml.Marshal(&file)
}

func (c *Codec) encodeNode(g *scene.Graph, n *scene.Node) (NodeSpec, error) {
	spec := NodeSpec{Name: n.Name}
	if !n.ActiveSelf() {
		inactive := false
		spec.Active = &inactive
	}
	if n.IsTemplate() && (n.Parent() == nil || !n.Parent().IsTemplate()) {
		spec.Template = true
	}

	for _, f := range n.Facets() {
		fs, err := c.encodeFacet(g, f)
		if err != nil {
			return NodeSpec{}, err
		}
		spec.Facets = append(spec.Facets, fs)
	}
	for _, child := range n.Children() {
		cs, err := c.encodeNode(g, child)
		if err != nil {
			return NodeSpec{}, err
		}
		spec.Children = append(spec.Children, cs)
	}
	return spec, nil
}

func (c *Codec) encodeFacet(g *scene.Graph, f scene.Facet) (FacetSpec, error) {
	kind, ok := c.kinds.NameOf(f)
	if !ok {
		return FacetSpec{}, fmt.Errorf("%w: %s", ErrUnknownFacet, scene.Describe(f))
	}
	spec := FacetSpec{Kind: kind}
	if !scene.IsEnabled(f) {
		disabled := false
		spec.Enabled = &disabled
	}

	var props yaml.Node
	if err := props.Encode(f); err != nil {
		return FacetSpec{}, fmt.Errorf("%s: %w", scene.Describe(f), err)
	}
	if props.Kind == yaml.MappingNode && len(props.Content) > 0 {
		spec.Props = props
	}

	for _, d := range c.registry.ScanHost(f) {
		v := d.Accessor.Read(f)
		if v.Empty() {
			continue
		}
		addrs := Addresses{List: d.Collection}
		for _, item := range v.Items {
			if item == nil {
				addrs.Items = append(addrs.Items, "")
				continue
			}
			addr, err := c.addressOf(g, item)
			if err != nil {
				return FacetSpec{}, fmt.Errorf("%s.%s: %w", scene.Describe(f), d.Name, err)
			}
			addrs.Items = append(addrs.Items, addr.String())
		}
		if spec.Refs == nil {
			spec.Refs = make(map[string]Addresses)
		}
		spec.Refs[d.Name] = addrs
	}
	return spec, nil
}

func (c *Codec) addressOf(g *scene.Graph, f scene.Facet) (Address, error) {
	owner := f.Owner()
	if owner == nil || owner.Graph() != g || g.Find(owner.Path()) != owner {
		return Address{}, fmt.Errorf("%w: %s", ErrUnaddressable, scene.Describe(f))
	}
	kind, ok := c.kinds.NameOf(f)
	if !ok {
		return Address{}, fmt.Errorf("%w: %s", ErrUnknownFacet, scene.Describe(f))
	}
	index := 0
	for _, other := range owner.Facets() {
		if other == f {
			break
		}
		if reflect.TypeOf(other) == reflect.TypeOf(f) {
			index++
		}
	}
	return Address{Path: owner.Path(), Kind: kind, Index: index}, nil
}

// Save runs the before-save hooks, writes g to path and clears the dirty marker of every facet.
// A failing before-save hook leaves the file untouched.
func (c *Codec) Save(ctx context.Context, g *scene.Graph, path string) error {
	if c.hooks != nil {
		if err := c.hooks.Execute(ctx, hooks.BeforeSave, g, path); err != nil {
			return err
		}
	}

	data, err := c.Encode(g)
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}

	g.Walk(func(n *scene.Node) bool {
		for _, f := range n.Facets() {
			if d, ok := f.(scene.Dirtier); ok {
				d.ClearDirty()
			}
		}
		return true
	})
	c.logger.Debug("scene saved", zap.String("path", path), zap.Int("nodes", g.NodeCount()))

	if c.hooks != nil {
		return c.hooks.Execute(ctx, hooks.AfterSave, g, path)
	}
	return nil
}

// writeFile replaces path through a temporary file in the same directory
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
