package catalog

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

func TestKinds_AddAndNew(t *testing.T) {
	k := NewKinds()
	require.NoError(t, k.Add("Body", func() scene.Facet { return &Body{} }))

	f, err := k.New("Body")
	require.NoError(t, err)
	assert.IsType(t, &Body{}, f)

	name, ok := k.NameOf(&Body{})
	assert.True(t, ok)
	assert.Equal(t, "Body", name)

	typ, ok := k.TypeOf("Body")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*Body](), typ)

	_, err = k.New("Missing")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKinds_AddErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		factory Factory
		want    error
	}{
		{"empty name", "", func() scene.Facet { return &Item{} }, ErrEmptyKind},
		{"duplicate name", "Body", func() scene.Facet { return &Item{} }, ErrDuplicateKind},
		{"duplicate type", "Mass", func() scene.Facet { return &Body{} }, ErrDuplicateKind},
		{"nil facet", "Nothing", func() scene.Facet { return (*Item)(nil) }, ErrInvalidFactory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKinds().MustAdd("Body", func() scene.Facet { return &Body{} })
			assert.ErrorIs(t, k.Add(tt.kind, tt.factory), tt.want)
			assert.Equal(t, []string{"Body"}, k.Names())
		})
	}
}

func TestDefaultKinds_NamesMatchTypes(t *testing.T) {
	k := DefaultKinds()
	for _, name := range k.Names() {
		f, err := k.New(name)
		require.NoError(t, err)
		assert.Equal(t, name, scene.TypeName(f))
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 7, r.Count())

	fields := r.Scan(reflect.TypeFor[*Sentry]())
	names := make([]string, len(fields))
	for i, d := range fields {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"scanner", "watch", "body", "weapons", "target", "team"}, names)

	for _, d := range fields {
		assert.NoError(t, d.CheckConfigured(), d.String())
	}
}

// fort builds
//
//	fort (Team)
//	  tower (Body, Turret)
//	    barrel (Weapon)
//	    hidden [inactive] (Weapon)
//	  intruder (Health hp=5)
//	  corpse (Health hp=0)
func fort(t *testing.T) (*scene.Graph, *Turret, *Health) {
	t.Helper()
	g := scene.NewGraph("fort")
	root := scene.NewNode("fort")
	require.NoError(t, g.AddRoot(root))
	root.MustAttach(&Team{Name: "blue"})

	tower := scene.NewNode("tower")
	require.NoError(t, root.AddChild(tower))
	turret := &Turret{Range: 10}
	tower.MustAttach(&Body{Mass: 100}, turret)

	barrel := scene.NewNode("barrel")
	require.NoError(t, tower.AddChild(barrel))
	barrel.MustAttach(&Weapon{Damage: 3})

	hidden := scene.NewNode("hidden")
	hidden.SetActive(false)
	require.NoError(t, tower.AddChild(hidden))
	hidden.MustAttach(&Weapon{Damage: 9})

	intruder := scene.NewNode("intruder")
	require.NoError(t, root.AddChild(intruder))
	target := &Health{HP: 5, Max: 20}
	intruder.MustAttach(target)

	corpse := scene.NewNode("corpse")
	require.NoError(t, root.AddChild(corpse))
	corpse.MustAttach(&Health{HP: 0, Max: 80})
	return g, turret, target
}

func TestStock_TurretResolution(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	e := engine.New(r, engine.WithReporter(diag.Discard))
	g, turret, target := fort(t)

	ok, err := e.Validate(turret)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, turret.Body)
	assert.Equal(t, 100.0, turret.Body.Mass)
	require.Len(t, turret.Weapons, 1, "inactive weapons are skipped")
	assert.Equal(t, 3, turret.Weapons[0].Damage)
	assert.Same(t, target, turret.Target.Value())
	assert.Equal(t, "blue", turret.Team.Name)

	assert.True(t, e.BatchValidateAll(g))
}

func TestStock_WeaponKeepsAssignedTeam(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	e := engine.New(r, engine.WithReporter(diag.Discard))
	g, _, _ := fort(t)

	red := &Team{Name: "red"}
	scene.NewNode("elsewhere").MustAttach(red)
	barrel := g.MustFind("fort/tower/barrel")
	w := barrel.Facets()[0].(*Weapon)
	w.Team = red

	ok, err := e.Validate(w)
	require.NoError(t, err)
	assert.Same(t, red, w.Team, "editable values are kept")
	assert.False(t, ok, "but still validated against their relation")
}

func TestStock_SentryWatchesInactiveTargets(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	e := engine.New(r, engine.WithReporter(diag.Discard))
	g, _, target := fort(t)

	tower := g.MustFind("fort/tower")
	sentry := &Sentry{}
	post := scene.NewNode("post")
	require.NoError(t, tower.AddChild(post))
	post.MustAttach(&Body{}, sentry)
	gun := scene.NewNode("gun")
	require.NoError(t, post.AddChild(gun))
	gun.MustAttach(&Weapon{Damage: 1})

	sleeper := scene.NewNode("sleeper")
	sleeper.SetActive(false)
	require.NoError(t, g.MustFind("fort").AddChild(sleeper))
	dozing := &Health{HP: 1}
	sleeper.MustAttach(dozing)

	ok, err := e.Validate(sentry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, sentry.Scanner)
	require.Len(t, sentry.Watch, 2, "dead targets are filtered out")
	assert.Same(t, target, sentry.Watch[0].Value())
	assert.Same(t, dozing, sentry.Watch[1].Value())
	assert.Len(t, sentry.Weapons, 1)
	assert.Same(t, target, sentry.Target.Value())
}

func TestStock_InventoryAndSpawner(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	e := engine.New(r, engine.WithReporter(diag.Discard))

	player := scene.NewNode("player")
	hp := &Health{HP: 10}
	player.MustAttach(hp)
	bag := scene.NewNode("bag")
	require.NoError(t, player.AddChild(bag))
	inv := &Inventory{Capacity: 4}
	bag.MustAttach(inv)
	stash := scene.NewNode("stash")
	stash.SetActive(false)
	require.NoError(t, bag.AddChild(stash))
	gem := &Item{Name: "gem"}
	stash.MustAttach(gem)

	ok, err := e.Validate(inv)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []*Item{gem}, inv.Items)
	assert.Same(t, hp, inv.Holder)

	spawner := &Spawner{}
	player.MustAttach(spawner)
	report, err := e.Check(spawner, engine.CheckOptions{Resolve: true})
	require.NoError(t, err)
	assert.False(t, report.Passed, "the prefab must be assigned by hand")
	assert.Equal(t, 1, report.Diagnostics.CountKind(diag.MissingRequiredReference))

	spawner.Prefab = meta.NewRef[Targetable](hp)
	ok, err = e.Validate(spawner)
	require.NoError(t, err)
	assert.True(t, ok)
}
