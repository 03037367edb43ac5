package create

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowforge/build"
	"github.com/vk/flowforge/internal/testutil"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/tree"
)

func newCreator(t *testing.T, name string) *Creator {
	t.Helper()
	s, r := testutil.Model(t, name)
	return New(s, r)
}

func TestNamedType_Point(t *testing.T) {
	c := newCreator(t, "Geometry")
	ctx := context.Background()

	point, err := tree.Structure(
		tree.TypeField{Name: "x", Type: "float64"},
		tree.TypeField{Name: "y", Type: "float64"},
	)
	require.NoError(t, err)
	id, err := c.NamedType(ctx, c.store.Root(), "Point", point)
	require.NoError(t, err)

	el, ok := c.store.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, model.KindNamedType, el.Kind)
	assert.Equal(t, "Point", el.Name())
	assert.Equal(t, c.store.DefaultUnit(), el.Unit)

	// The structure body is owned by the type and linked as its type.
	body, ok := c.store.Resolve(el.Ref(build.RoleType))
	require.True(t, ok)
	assert.Equal(t, model.KindStructure, body.Kind)
	assert.Equal(t, id, body.Container)
	require.Len(t, body.Children, 2)

	// The new name resolves immediately.
	got, err := c.reg.LookupType("Point")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestNamedType_AliasOfPredefined(t *testing.T) {
	c := newCreator(t, "Alias")
	id, err := c.NamedType(context.Background(), c.store.Root(), "Speed", "float32")
	require.NoError(t, err)

	el, _ := c.store.Resolve(id)
	want, _ := c.store.FindPredefined("float32")
	assert.Equal(t, want, el.Ref(build.RoleType))
}

func TestNamedType_MissingFieldName(t *testing.T) {
	c := newCreator(t, "Broken")
	bad, err := tree.Structure(
		tree.TypeField{Name: "x", Type: "float64"},
		tree.TypeField{Name: "", Type: "float64"},
	)
	require.NoError(t, err)
	_, err = c.NamedType(context.Background(), c.store.Root(), "Bad", bad)
	require.Error(t, err)
	var verr *build.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "missing field", verr.Rule)
}

func TestPackageAndUnits(t *testing.T) {
	c := newCreator(t, "Units")
	ctx := context.Background()

	pkg, err := c.Package(ctx, c.store.Root(), "Sub", InUnit("sub.xflow"))
	require.NoError(t, err)
	el, _ := c.store.Resolve(pkg)
	unit, ok := c.store.FindUnit("sub.xflow")
	require.True(t, ok)
	assert.Equal(t, unit, el.Unit)

	t.Run("declarations inherit the package unit", func(t *testing.T) {
		id, err := c.Sensor(ctx, pkg, "temp", "float64")
		require.NoError(t, err)
		se, _ := c.store.Resolve(id)
		assert.Equal(t, unit, se.Unit)
	})

	t.Run("split packages are ambiguous", func(t *testing.T) {
		_, err := c.Constant(ctx, pkg, "Elsewhere", "int32", 1, InUnit("other.xflow"))
		require.NoError(t, err)

		_, err = c.Sensor(ctx, pkg, "pressure", "float64")
		require.Error(t, err)
		var aerr *AmbiguousOwnerError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, pkg, aerr.Owner)
		assert.Len(t, aerr.Units, 2)
	})

	t.Run("explicit unit resolves the ambiguity", func(t *testing.T) {
		id, err := c.Sensor(ctx, pkg, "pressure", "float64", InUnit("sub.xflow"))
		require.NoError(t, err)
		se, _ := c.store.Resolve(id)
		assert.Equal(t, unit, se.Unit)
	})

	t.Run("lookup by qualified path", func(t *testing.T) {
		id, err := c.reg.Lookup("Sub::temp")
		require.NoError(t, err)
		el, _ := c.store.Resolve(id)
		assert.Equal(t, "temp", el.Name())
	})
}

func TestEnumeration(t *testing.T) {
	c := newCreator(t, "Enums")
	ctx := context.Background()

	id, err := c.Enumeration(ctx, c.store.Root(), "Color", []string{"Red", "Green"})
	require.NoError(t, err)
	el, _ := c.store.Resolve(id)
	require.Len(t, el.Children, 2)

	require.NoError(t, c.AddEnumerationValues(ctx, id, []string{"Blue"}))
	el, _ = c.store.Resolve(id)
	require.Len(t, el.Children, 3)

	_, err = c.Enumeration(ctx, c.store.Root(), "Empty", nil)
	require.Error(t, err)
}

func TestConstantAndSensor(t *testing.T) {
	c := newCreator(t, "Globals")
	ctx := context.Background()

	id, err := c.Constant(ctx, c.store.Root(), "Pi", "float64", 3.14)
	require.NoError(t, err)
	el, _ := c.store.Resolve(id)
	assert.Equal(t, model.KindConstant, el.Kind)

	// Type link plus the owned value expression.
	f64, _ := c.store.FindPredefined("float64")
	assert.Equal(t, f64, el.Ref(build.RoleType))
	require.Len(t, el.Children, 1)
	val, _ := c.store.Resolve(el.Children[0])
	assert.Equal(t, model.KindConstValue, val.Kind)

	t.Run("constant usable in expressions", func(t *testing.T) {
		op, err := c.Operator(ctx, c.store.Root(), "Area")
		require.NoError(t, err)
		_, err = c.AddInputs(ctx, op, VarSpec{Name: "r", Type: "float64"})
		require.NoError(t, err)
		out, err := c.AddOutputs(ctx, op, VarSpec{Name: "a", Type: "float64"})
		require.NoError(t, err)

		pi, err := c.reg.Lookup("Pi")
		require.NoError(t, err)
		rhs, err := tree.Binary("*", pi, pi)
		require.NoError(t, err)
		_, err = c.AddEquation(ctx, op, model.Nil, []any{out[0]}, rhs)
		require.NoError(t, err)
	})
}

func TestOperatorFlags(t *testing.T) {
	c := newCreator(t, "Ops")
	ctx := context.Background()

	id, err := c.Operator(ctx, c.store.Root(), "Filter", Textual())
	require.NoError(t, err)
	el, _ := c.store.Resolve(id)
	assert.True(t, el.Attrs[model.AttrTextual].True())

	imp, err := c.Operator(ctx, c.store.Root(), "External", Imported())
	require.NoError(t, err)
	el, _ = c.store.Resolve(imp)
	assert.True(t, el.Attrs[model.AttrImported].True())

	t.Run("owner must be a package scope", func(t *testing.T) {
		_, err := c.Operator(ctx, id, "Nested")
		require.Error(t, err)
	})
}
