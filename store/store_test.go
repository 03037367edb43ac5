package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
)

func named(name string) model.Attrs {
	return model.Attrs{model.AttrName: cty.StringVal(name)}
}

func TestNew_Bootstrap(t *testing.T) {
	s := New("Demo")

	root, ok := s.Resolve(s.Root())
	require.True(t, ok)
	assert.Equal(t, model.KindModel, root.Kind)
	assert.Equal(t, "Demo", root.Name())

	unit, ok := s.Resolve(s.DefaultUnit())
	require.True(t, ok)
	assert.Equal(t, model.KindStorageUnit, unit.Kind)
	assert.Equal(t, "Demo.xflow", unit.Name())

	for _, name := range PredefinedTypes {
		id, ok := s.FindPredefined(name)
		require.True(t, ok, "predefined %s missing", name)
		el, ok := s.Resolve(id)
		require.True(t, ok)
		assert.Equal(t, model.KindNamedType, el.Kind)
		assert.Equal(t, name, el.Name())
	}

	// Predefined types are not addressable declarations.
	assert.Empty(t, s.NamedElements())
}

func TestCreateElement(t *testing.T) {
	s := New("Demo")

	pkg, err := s.CreateElement(model.KindPackage, named("Lib"), s.Root())
	require.NoError(t, err)
	assert.True(t, pkg.Valid())

	el, ok := s.Resolve(pkg)
	require.True(t, ok)
	assert.Equal(t, s.Root(), el.Container)

	root, _ := s.Resolve(s.Root())
	assert.Contains(t, root.Children, pkg)

	_, err = s.CreateElement(model.KindPackage, named("Orphan"), model.ID(9999))
	assert.Error(t, err)
}

func TestResolve_ReturnsClone(t *testing.T) {
	s := New("Demo")
	pkg, err := s.CreateElement(model.KindPackage, named("Lib"), s.Root())
	require.NoError(t, err)

	el, _ := s.Resolve(pkg)
	el.Attrs[model.AttrName] = cty.StringVal("Tampered")
	el.Children = append(el.Children, model.ID(42))

	again, _ := s.Resolve(pkg)
	assert.Equal(t, "Lib", again.Name())
	assert.Empty(t, again.Children)
}

func TestLink(t *testing.T) {
	s := New("Demo")
	c, err := s.CreateElement(model.KindConstant, named("N"), s.Root())
	require.NoError(t, err)
	boolID, _ := s.FindPredefined("bool")

	require.NoError(t, s.Link(c, "type", boolID))

	el, _ := s.Resolve(c)
	assert.Equal(t, boolID, el.Ref("type"))

	// A role is written at most once.
	assert.Error(t, s.Link(c, "type", boolID))
	// Dangling targets are refused.
	assert.Error(t, s.Link(c, "other", model.ID(9999)))
}

func TestNamedElements(t *testing.T) {
	s := New("Demo")
	lib, err := s.CreateElement(model.KindPackage, named("Lib"), s.Root())
	require.NoError(t, err)
	_, err = s.CreateElement(model.KindNamedType, named("Point"), lib)
	require.NoError(t, err)
	_, err = s.CreateElement(model.KindConstant, named("Origin"), s.Root())
	require.NoError(t, err)

	names := s.NamedElements()
	paths := make([]string, 0, len(names))
	for _, ne := range names {
		paths = append(paths, ne.Path.String())
	}
	assert.ElementsMatch(t, []string{"Lib", "Lib::Point", "Origin"}, paths)
}

func TestUnits(t *testing.T) {
	s := New("Demo")
	unit, err := s.CreateUnit("geometry.xflow")
	require.NoError(t, err)

	// Idempotent per path.
	again, err := s.CreateUnit("geometry.xflow")
	require.NoError(t, err)
	assert.Equal(t, unit, again)

	pkg, err := s.CreateElement(model.KindPackage, named("Geometry"), s.Root())
	require.NoError(t, err)
	require.NoError(t, s.AssignUnit(pkg, unit))
	assert.Equal(t, unit, s.UnitOf(pkg))

	// Children inherit the unit through their containers.
	typ, err := s.CreateElement(model.KindNamedType, named("Point"), pkg)
	require.NoError(t, err)
	assert.Equal(t, unit, s.UnitOf(typ))
}

func TestCreatePresentation(t *testing.T) {
	s := New("Demo")
	op, err := s.CreateElement(model.KindOperator, named("Main"), s.Root())
	require.NoError(t, err)
	dg, err := s.CreateElement(model.KindNetDiagram, named("Main"), op)
	require.NoError(t, err)
	eq, err := s.CreateElement(model.KindEquation, nil, op)
	require.NoError(t, err)

	pos := model.Point{X: 100, Y: 200}
	size := model.Dim{W: 300, H: 150}
	require.NoError(t, s.CreatePresentation(eq, pos, size, dg))

	pe, ok := s.PresentationOf(eq)
	require.True(t, ok)
	assert.Equal(t, pos, pe.Pos)
	assert.Equal(t, size, pe.Size)
	assert.Len(t, s.Presentations(dg), 1)

	// One presentation entry per element.
	assert.Error(t, s.CreatePresentation(eq, pos, size, dg))
	// The diagram must actually be a diagram.
	assert.Error(t, s.CreatePresentation(eq, pos, size, op))
}

func TestSnapshot_Deterministic(t *testing.T) {
	build := func() *Store {
		s := New("Demo")
		pkg, _ := s.CreateElement(model.KindPackage, named("Lib"), s.Root())
		typ, _ := s.CreateElement(model.KindNamedType, named("Point"), pkg)
		boolID, _ := s.FindPredefined("bool")
		_ = s.Link(typ, "definition", boolID)
		return s
	}

	a, err := build().Snapshot()
	require.NoError(t, err)
	b, err := build().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
