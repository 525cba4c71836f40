package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

type Powered interface {
	Powered() bool
}

type cell struct {
	scene.Base
}

func (c *cell) Powered() bool { return true }

type lamp struct {
	scene.Base
	Cell    *cell
	Cells   []*cell
	Source  meta.Ref[Powered]
	Sources []meta.Ref[Powered]
	Raw     Powered
}

func fieldsOf(fields ...meta.Field[*lamp]) []*meta.Descriptor {
	return meta.NewRegistry().MustRegister(meta.Define(fields...)).ScanHost(&lamp{})
}

func cellField(t meta.Tag) meta.Field[*lamp] {
	return meta.One("cell", t, func(l *lamp) **cell { return &l.Cell })
}

func cellsField(t meta.Tag) meta.Field[*lamp] {
	return meta.Many("cells", t, func(l *lamp) *[]*cell { return &l.Cells })
}

// family is grand -> parent -> (host, sibling) -> host has child
type family struct {
	lamp *lamp

	grand, parent, host, sibling, child *scene.Node
}

func newFamily(t *testing.T) *family {
	t.Helper()
	f := &family{
		grand:   scene.NewNode("grand"),
		parent:  scene.NewNode("parent"),
		host:    scene.NewNode("host"),
		sibling: scene.NewNode("sibling"),
		child:   scene.NewNode("child"),
		lamp:    &lamp{},
	}
	require.NoError(t, f.grand.AddChild(f.parent))
	require.NoError(t, f.parent.AddChild(f.host))
	require.NoError(t, f.parent.AddChild(f.sibling))
	require.NoError(t, f.host.AddChild(f.child))
	f.host.MustAttach(f.lamp)
	return f
}

func (f *family) cellOn(n *scene.Node) *cell {
	c := &cell{}
	n.MustAttach(c)
	return c
}

func TestValidate_NilAndDetached(t *testing.T) {
	_, _, err := New().Validate(nil, nil)
	assert.ErrorIs(t, err, scene.ErrNilFacet)

	_, _, err = New().Validate(&lamp{}, nil)
	assert.ErrorIs(t, err, scene.ErrDetached)
}

func TestValidate_NoFields(t *testing.T) {
	f := newFamily(t)

	ok, list, err := New().Validate(f.lamp, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Equal(t, 1, list.Count())
	assert.Equal(t, diag.NoDeclaredReferences, list.Items[0].Kind)
	assert.Equal(t, diag.SeverityWarning, list.Items[0].Severity)
	assert.False(t, list.HasErrors())
}

func TestValidate_Missing(t *testing.T) {
	f := newFamily(t)

	ok, list, err := New().Validate(f.lamp, fieldsOf(cellField(meta.OnSelf()), cellsField(meta.InDescendants(meta.Optional))))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Equal(t, 1, list.Count())
	d := list.Items[0]
	assert.Equal(t, diag.MissingRequiredReference, d.Kind)
	assert.Equal(t, "cell", d.Field)
	assert.Equal(t, "lamp", d.Host)
	assert.Same(t, f.host, d.Node)
	assert.Equal(t, "grand/parent/host", d.NodePath())
}

func TestValidate_Containment(t *testing.T) {
	tests := []struct {
		name  string
		tag   meta.Tag
		place func(f *family) *scene.Node
		want  []diag.Kind
	}{
		{"self on self", meta.OnSelf(), func(f *family) *scene.Node { return f.host }, nil},
		{"self on parent", meta.OnSelf(), func(f *family) *scene.Node { return f.parent },
			[]diag.Kind{diag.WrongLocationReference}},
		{"ancestor on grand", meta.InAncestors(), func(f *family) *scene.Node { return f.grand }, nil},
		{"ancestor on self", meta.InAncestors(), func(f *family) *scene.Node { return f.host }, nil},
		{"ancestor on sibling", meta.InAncestors(), func(f *family) *scene.Node { return f.sibling },
			[]diag.Kind{diag.WrongLocationReference}},
		{"ancestor excluding self on self", meta.InAncestors(meta.ExcludeSelf), func(f *family) *scene.Node { return f.host },
			[]diag.Kind{diag.SelfExclusionViolation}},
		{"descendant on child", meta.InDescendants(), func(f *family) *scene.Node { return f.child }, nil},
		{"descendant on parent", meta.InDescendants(), func(f *family) *scene.Node { return f.parent },
			[]diag.Kind{diag.WrongLocationReference}},
		{"descendant excluding self on self", meta.InDescendants(meta.ExcludeSelf), func(f *family) *scene.Node { return f.host },
			[]diag.Kind{diag.SelfExclusionViolation}},
		{"graph anywhere", meta.InGraph(), func(f *family) *scene.Node { return f.sibling }, nil},
		{"unconstrained anywhere", meta.Anywhere(), func(f *family) *scene.Node { return f.sibling }, nil},
		{"self excluded and wrong", meta.OnSelf(meta.ExcludeSelf), func(f *family) *scene.Node { return f.parent },
			[]diag.Kind{diag.WrongLocationReference}},
		{"editable anywhere exempt", meta.OnSelf(meta.EditableAnywhere | meta.ExcludeSelf), func(f *family) *scene.Node { return f.sibling }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFamily(t)
			f.lamp.Cell = f.cellOn(tt.place(f))

			ok, list, err := New().Validate(f.lamp, fieldsOf(cellField(tt.tag)))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want) == 0, ok)

			var kinds []diag.Kind
			for _, d := range list.Items {
				kinds = append(kinds, d.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestValidate_CollectionElements(t *testing.T) {
	f := newFamily(t)
	good := f.cellOn(f.child)
	bad := f.cellOn(f.sibling)
	f.lamp.Cells = []*cell{good, nil, bad}

	ok, list, err := New().Validate(f.lamp, fieldsOf(cellsField(meta.InDescendants())))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Equal(t, 2, list.Count())
	assert.Equal(t, diag.MissingRequiredReference, list.Items[0].Kind)
	assert.Contains(t, list.Items[0].Detail, "element 1")
	assert.Equal(t, diag.WrongLocationReference, list.Items[1].Kind)
	assert.Contains(t, list.Items[1].Detail, "element 2")
}

func TestValidate_EmptyEditableAnywhereStillRequired(t *testing.T) {
	f := newFamily(t)

	ok, list, err := New().Validate(f.lamp, fieldsOf(cellField(meta.Anywhere(meta.EditableAnywhere))))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, list.CountKind(diag.MissingRequiredReference))
}

func TestValidate_Indirect(t *testing.T) {
	f := newFamily(t)
	f.lamp.Source = meta.NewRef[Powered](f.cellOn(f.sibling))
	f.lamp.Sources = []meta.Ref[Powered]{meta.NewRef[Powered](f.cellOn(f.grand))}

	ok, list, err := New().Validate(f.lamp, fieldsOf(
		meta.Indirect("source", meta.InAncestors(), func(l *lamp) *meta.Ref[Powered] { return &l.Source }),
		meta.ManyIndirect("sources", meta.InAncestors(), func(l *lamp) *[]meta.Ref[Powered] { return &l.Sources }),
	))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Equal(t, 1, list.Count())
	assert.Equal(t, "source", list.Items[0].Field)
	assert.Equal(t, diag.WrongLocationReference, list.Items[0].Kind)
}

func TestValidate_DiagnosticsInFieldOrder(t *testing.T) {
	f := newFamily(t)
	f.lamp.Cell = f.cellOn(f.sibling)

	_, list, err := New().Validate(f.lamp, fieldsOf(
		cellsField(meta.InDescendants()),
		cellField(meta.OnSelf()),
	))
	require.NoError(t, err)
	require.Equal(t, 2, list.Count())
	assert.Equal(t, "cells", list.Items[0].Field)
	assert.Equal(t, "cell", list.Items[1].Field)
}

func TestValidate_ConfigurationError(t *testing.T) {
	f := newFamily(t)

	ok, list, err := New().Validate(f.lamp, fieldsOf(
		cellField(meta.OnSelf()),
		meta.One("raw", meta.InAncestors(), func(l *lamp) *Powered { return &l.Raw }),
	))
	assert.ErrorIs(t, err, meta.ErrConfiguration)
	assert.False(t, ok)
	assert.Nil(t, list)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	f := newFamily(t)
	c := f.cellOn(f.parent)
	f.lamp.Cell = c

	_, _, err := New().Validate(f.lamp, fieldsOf(cellField(meta.OnSelf())))
	require.NoError(t, err)
	assert.Same(t, c, f.lamp.Cell)
	assert.False(t, f.lamp.IsDirty())
}

func TestContains(t *testing.T) {
	f := newFamily(t)
	onChild := f.cellOn(f.child)
	detached := &cell{}

	assert.True(t, Contains(meta.Descendant, f.host, onChild))
	assert.False(t, Contains(meta.Ancestor, f.host, onChild))
	assert.False(t, Contains(meta.Self, f.host, detached))
	assert.False(t, Contains(meta.Ancestor, f.host, detached))
	assert.True(t, Contains(meta.Graph, f.host, detached))
	assert.Panics(t, func() { Contains(meta.Relation(99), f.host, onChild) })
}
