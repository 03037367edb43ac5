package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowforge/internal/testutil"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/tree"
)

func TestValidate_Rejections(t *testing.T) {
	s, r := testutil.Model(t, "Checks")
	op, diagram := testutil.Operator(t, s, "Main")
	x := testutil.Variable(t, s, op, "x", "int32")

	tgt := Target{Store: s, Session: r, Container: op, Diagram: diagram}

	t.Run("nil tree", func(t *testing.T) {
		_, err := Validate(context.Background(), nil, tgt)
		requireRule(t, err, "empty")
	})

	t.Run("missing container", func(t *testing.T) {
		bad := tgt
		bad.Container = model.ID(9999)
		n, nerr := tree.Resolve(1, tree.LitInt)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, bad)
		requireRule(t, err, "target")
	})

	t.Run("dangling reference", func(t *testing.T) {
		n, nerr := tree.Unary("-", model.ID(9999))
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "dangling reference")
	})

	t.Run("unknown name", func(t *testing.T) {
		n, nerr := tree.ResolveType("NoSuchType")
		require.NoError(t, nerr)
		_, err := ValidateType(context.Background(), n, tgt)
		requireRule(t, err, "unknown name")
	})

	t.Run("literal kind at root", func(t *testing.T) {
		bad := tgt
		bad.Expect = tree.LitBool
		n, nerr := tree.Resolve("42", tree.LitInt)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, bad)
		requireRule(t, err, "literal kind")
	})

	t.Run("literal kind under a boolean operator", func(t *testing.T) {
		lit, nerr := tree.Resolve("42", tree.LitInt)
		require.NoError(t, nerr)
		n, nerr := tree.Unary("!", lit)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "literal kind")
	})

	t.Run("literal kind in a conditional condition", func(t *testing.T) {
		lit, nerr := tree.Resolve("1", tree.LitInt)
		require.NoError(t, nerr)
		n, nerr := tree.IfThenElse(lit, 1, 2)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "literal kind")
	})

	t.Run("integer kind promotes to real", func(t *testing.T) {
		wide := tgt
		wide.Expect = tree.LitReal
		n, nerr := tree.Resolve("42", tree.LitInt)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, wide)
		require.NoError(t, err)
	})

	t.Run("iterator cannot stand alone", func(t *testing.T) {
		n, nerr := tree.Map(8)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "modifier position")
	})

	t.Run("shared sub-tree", func(t *testing.T) {
		shared, nerr := tree.Unary("-", x)
		require.NoError(t, nerr)
		left, nerr := tree.Unary("pre", shared)
		require.NoError(t, nerr)
		_, nerr = tree.Unary("pre", shared)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), left, tgt)
		requireRule(t, err, "shared")
	})

	t.Run("duplicate structure expression field", func(t *testing.T) {
		n, nerr := tree.DataStruct(
			tree.ExprField{Name: "x", Value: 1},
			tree.ExprField{Name: "x", Value: 2},
		)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "duplicate field")
	})

	t.Run("missing structure type field name", func(t *testing.T) {
		n, nerr := tree.Structure(tree.TypeField{Name: "", Type: "int32"})
		require.NoError(t, nerr)
		_, err := ValidateType(context.Background(), n, tgt)
		requireRule(t, err, "missing field")
	})

	t.Run("callee must be an operator", func(t *testing.T) {
		n, nerr := tree.Call(x, nil)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "callee kind")
	})

	t.Run("transition target must be a state", func(t *testing.T) {
		n, nerr := tree.TransitionTo(true, x, false, 1)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, tgt)
		requireRule(t, err, "target kind")
	})

	t.Run("geometry needs a diagram", func(t *testing.T) {
		bare := tgt
		bare.Diagram = model.Nil
		n, nerr := tree.WhenBranchNode("On", tree.At(450, 582))
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), n, bare)
		requireRule(t, err, "no diagram")
	})
}

func TestValidate_ResolvesNames(t *testing.T) {
	s, r := testutil.Model(t, "Names")
	op, _ := testutil.Operator(t, s, "Main")

	n, err := tree.ResolveType("float64")
	require.NoError(t, err)
	v, err := ValidateType(context.Background(), n, Target{Store: s, Session: r, Container: op})
	require.NoError(t, err)

	res, err := v.Materialize(context.Background())
	require.NoError(t, err)
	want, ok := s.FindPredefined("float64")
	require.True(t, ok)
	assert.Equal(t, want, res.Root)
	assert.Empty(t, res.Created)
}

func TestValidate_ConsumedTreeRejected(t *testing.T) {
	s, r := testutil.Model(t, "Consumed")
	op, _ := testutil.Operator(t, s, "Main")
	tgt := Target{Store: s, Session: r, Container: op}

	n, err := tree.Binary("+", 1, 2)
	require.NoError(t, err)
	v, err := Validate(context.Background(), n, tgt)
	require.NoError(t, err)
	_, err = v.Materialize(context.Background())
	require.NoError(t, err)

	_, err = Validate(context.Background(), n, tgt)
	requireRule(t, err, "consumed")

	t.Run("consumed sub-tree under a fresh parent", func(t *testing.T) {
		wrapped, nerr := tree.Unary("-", n)
		require.NoError(t, nerr)
		_, err := Validate(context.Background(), wrapped, tgt)
		requireRule(t, err, "consumed")
	})
}

func requireRule(t *testing.T, err error, rule string) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, rule, verr.Rule)
}
