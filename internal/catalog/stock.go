package catalog

import (
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

// Targetable is the capability of facets that turrets and sentries can aim at
type Targetable interface {
	scene.Facet
	Alive() bool
	Priority() int
}

// Toggle lets a facet be disabled independently of its node
type Toggle struct {
	disabled bool
}

// Enabled reports whether the facet is enabled
func (t *Toggle) Enabled() bool { return !t.disabled }

// SetEnabled enables or disables the facet
func (t *Toggle) SetEnabled(on bool) { t.disabled = !on }

// Body is a physical body
type Body struct {
	scene.Base `yaml:"-"`

	Mass float64 `yaml:"mass,omitempty"`
}

// Collider attaches a collision shape to the nearest body above it
type Collider struct {
	scene.Base `yaml:"-"`
	Toggle     `yaml:"-"`

	Radius float64 `yaml:"radius,omitempty"`

	Body *Body `yaml:"-"`
}

// Team groups everything below it
type Team struct {
	scene.Base `yaml:"-"`

	Name string `yaml:"name,omitempty"`
}

// Health tracks hit points. Its team may be assigned from anywhere.
type Health struct {
	scene.Base `yaml:"-"`

	HP  int `yaml:"hp,omitempty"`
	Max int `yaml:"max,omitempty"`

	Team *Team `yaml:"-"`
}

// Alive reports whether any hit points are left
func (h *Health) Alive() bool { return h.HP > 0 }

// Priority ranks targets by maximum hit points
func (h *Health) Priority() int { return h.Max }

// Weapon deals damage for the team it is mounted under
type Weapon struct {
	scene.Base `yaml:"-"`
	Toggle     `yaml:"-"`

	Damage int `yaml:"damage,omitempty"`

	Team *Team `yaml:"-"`
}

// Turret aims the weapons mounted below it at a living target
type Turret struct {
	scene.Base `yaml:"-"`

	Range float64 `yaml:"range,omitempty"`

	Body    *Body                `yaml:"-"`
	Weapons []*Weapon            `yaml:"-"`
	Target  meta.Ref[Targetable] `yaml:"-"`
	Team    *Team                `yaml:"-"`
}

// Sentry is a turret that also watches every living target in the graph
type Sentry struct {
	Turret `yaml:",inline"`

	Scanner *Collider              `yaml:"-"`
	Watch   []meta.Ref[Targetable] `yaml:"-"`
}

// Spawner creates copies of a prefab. Its references are assigned by hand.
type Spawner struct {
	scene.Base `yaml:"-"`

	Interval float64 `yaml:"interval,omitempty"`

	Prefab  meta.Ref[Targetable] `yaml:"-"`
	Spawned []*Body              `yaml:"-"`
}

// Inventory holds the items stored below it, including hidden ones
type Inventory struct {
	scene.Base `yaml:"-"`

	Capacity int `yaml:"capacity,omitempty"`

	Items  []*Item `yaml:"-"`
	Holder *Health `yaml:"-"`
}

// Item is a stored object. It declares no references.
type Item struct {
	scene.Base `yaml:"-"`

	Name   string  `yaml:"name,omitempty"`
	Weight float64 `yaml:"weight,omitempty"`
}

func alive() meta.Filter {
	return meta.FilterFor(func(t Targetable) bool { return t.Alive() })
}

// Schemas returns the reference schemas of the stock kinds
func Schemas() []*meta.TypeSchema {
	return []*meta.TypeSchema{
		meta.Define(
			meta.One("body", meta.InAncestors(), func(c *Collider) **Body { return &c.Body }),
		),
		meta.Define(
			meta.One("team", meta.InAncestors(meta.Optional|meta.EditableAnywhere), func(h *Health) **Team { return &h.Team }),
		),
		meta.Define(
			meta.One("team", meta.InAncestors(meta.Editable), func(w *Weapon) **Team { return &w.Team }),
		),
		meta.Define(
			meta.One("body", meta.OnSelf(), func(t *Turret) **Body { return &t.Body }),
			meta.Many("weapons", meta.InDescendants(meta.ExcludeSelf), func(t *Turret) *[]*Weapon { return &t.Weapons }),
			meta.Indirect("target", meta.InGraph(meta.Optional).Filtered(alive()), func(t *Turret) *meta.Ref[Targetable] { return &t.Target }),
			meta.One("team", meta.InAncestors(), func(t *Turret) **Team { return &t.Team }),
		),
		meta.Extend(func(s *Sentry) *Turret { return &s.Turret },
			meta.One("scanner", meta.OnSelf(meta.Optional), func(s *Sentry) **Collider { return &s.Scanner }),
			meta.ManyIndirect("watch", meta.InGraph(meta.Optional|meta.IncludeInactive).Filtered(alive()), func(s *Sentry) *[]meta.Ref[Targetable] { return &s.Watch }),
		),
		meta.Define(
			meta.Indirect("prefab", meta.Anywhere(), func(s *Spawner) *meta.Ref[Targetable] { return &s.Prefab }),
			meta.Many("spawned", meta.Anywhere(meta.Optional), func(s *Spawner) *[]*Body { return &s.Spawned }),
		),
		meta.Define(
			meta.Many("items", meta.InDescendants(meta.Optional|meta.IncludeInactive), func(i *Inventory) *[]*Item { return &i.Items }),
			meta.One("holder", meta.InAncestors(meta.Optional|meta.ExcludeSelf), func(i *Inventory) **Health { return &i.Holder }),
		),
	}
}

// NewRegistry returns a registry holding the stock schemas
func NewRegistry() (*meta.Registry, error) {
	r := meta.NewRegistry()
	for _, s := range Schemas() {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	if err := r.ValidateAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultKinds returns the stock kind table. Kind names match the Go type names.
func DefaultKinds() *Kinds {
	return NewKinds().
		MustAdd("Body", func() scene.Facet { return &Body{} }).
		MustAdd("Collider", func() scene.Facet { return &Collider{} }).
		MustAdd("Team", func() scene.Facet { return &Team{} }).
		MustAdd("Health", func() scene.Facet { return &Health{} }).
		MustAdd("Weapon", func() scene.Facet { return &Weapon{} }).
		MustAdd("Turret", func() scene.Facet { return &Turret{} }).
		MustAdd("Sentry", func() scene.Facet { return &Sentry{} }).
		MustAdd("Spawner", func() scene.Facet { return &Spawner{} }).
		MustAdd("Inventory", func() scene.Facet { return &Inventory{} }).
		MustAdd("Item", func() scene.Facet { return &Item{} })
}
