package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowforge/model"
)

func TestStructure(t *testing.T) {
	t.Run("fields keep declaration order", func(t *testing.T) {
		n, err := Structure(
			TypeField{Name: "x", Type: "float64"},
			TypeField{Name: "y", Type: "float64"},
		)
		require.NoError(t, err)
		assert.Equal(t, NodeComposite, n.Kind())
		assert.Equal(t, CompStructure, n.Composite())
		require.Len(t, n.Fields(), 2)
		assert.Equal(t, "x", n.Fields()[0].Name)
		assert.Equal(t, "y", n.Fields()[1].Name)
	})

	t.Run("nested structure", func(t *testing.T) {
		inner, err := Structure(TypeField{Name: "re", Type: "float32"}, TypeField{Name: "im", Type: "float32"})
		require.NoError(t, err)
		outer, err := Structure(TypeField{Name: "z", Type: inner})
		require.NoError(t, err)
		assert.Same(t, inner, outer.FieldByName("z"))
	})

	t.Run("empty field list rejected", func(t *testing.T) {
		_, err := Structure()
		require.Error(t, err)
	})

	t.Run("bad field type rejected", func(t *testing.T) {
		_, err := Structure(TypeField{Name: "x", Type: 42})
		require.Error(t, err)
	})
}

func TestTable(t *testing.T) {
	t.Run("single dimension", func(t *testing.T) {
		n, err := Table(3, "int32")
		require.NoError(t, err)
		assert.Equal(t, CompTable, n.Composite())
		require.Len(t, n.Children(), 1)
		require.NotNil(t, n.FieldByName("of"))
		assert.Equal(t, NodeName, n.FieldByName("of").Kind())
	})

	t.Run("multi dimension", func(t *testing.T) {
		n, err := Table([]any{3, 4}, model.ID(8))
		require.NoError(t, err)
		require.Len(t, n.Children(), 2)
	})

	t.Run("dimension can reference a constant", func(t *testing.T) {
		n, err := Table(model.ID(5), "bool")
		require.NoError(t, err)
		assert.Equal(t, NodeRef, n.Children()[0].Kind())
	})

	t.Run("non-integer dimension rejected", func(t *testing.T) {
		_, err := Table(1.5, "int32")
		require.Error(t, err)
	})
}

func TestSized(t *testing.T) {
	t.Run("signed constant width", func(t *testing.T) {
		n, err := Sized(true, 16)
		require.NoError(t, err)
		assert.Equal(t, CompSized, n.Composite())
		assert.Equal(t, "signed", n.FieldByName("constraint").Spelling())
		require.NotNil(t, n.FieldByName("size"))
	})

	t.Run("unsigned", func(t *testing.T) {
		n, err := Sized(false, 8)
		require.NoError(t, err)
		assert.Equal(t, "unsigned", n.FieldByName("constraint").Spelling())
	})

	t.Run("width must be a machine width", func(t *testing.T) {
		_, err := Sized(true, 12)
		require.Error(t, err)
	})

	t.Run("non-literal width deferred to validation", func(t *testing.T) {
		n, err := Sized(true, model.ID(6))
		require.NoError(t, err)
		assert.Equal(t, NodeRef, n.FieldByName("size").Kind())
	})
}

func TestTransitionTrees(t *testing.T) {
	t.Run("triggered transition", func(t *testing.T) {
		n, err := TransitionTo(model.ID(4), model.ID(9), true, 1)
		require.NoError(t, err)
		assert.Equal(t, CompTransition, n.Composite())
		require.NotNil(t, n.FieldByName("trigger"))
		assert.Equal(t, model.ID(9), n.FieldByName("target").RefID())
	})

	t.Run("else transition has no trigger", func(t *testing.T) {
		n, err := TransitionTo(nil, model.ID(9), false, 2)
		require.NoError(t, err)
		assert.Nil(t, n.FieldByName("trigger"))
	})

	t.Run("nil target rejected", func(t *testing.T) {
		_, err := TransitionTo(true, model.Nil, false, 1)
		require.Error(t, err)
	})

	t.Run("fork nests transitions", func(t *testing.T) {
		a, err := TransitionTo(true, model.ID(9), false, 1)
		require.NoError(t, err)
		b, err := TransitionTo(nil, model.ID(10), false, 2)
		require.NoError(t, err)
		fork, err := TransitionFork(model.ID(4), 1, a, b)
		require.NoError(t, err)
		assert.Equal(t, CompFork, fork.Composite())
		require.Len(t, fork.Children(), 2)
	})

	t.Run("fork branch must be a transition tree", func(t *testing.T) {
		expr, err := Binary("+", 1, 2)
		require.NoError(t, err)
		_, err = TransitionFork(true, 1, expr)
		require.Error(t, err)
	})
}

func TestIfTrees(t *testing.T) {
	t.Run("decision over two actions", func(t *testing.T) {
		n, err := IfNode(model.ID(3), IfAction(), IfAction())
		require.NoError(t, err)
		assert.Equal(t, CompIfNode, n.Composite())
		assert.Equal(t, CompIfAction, n.FieldByName("then").Composite())
	})

	t.Run("nested decision", func(t *testing.T) {
		inner, err := IfNode(model.ID(3), IfAction(), IfAction())
		require.NoError(t, err)
		outer, err := IfNode(model.ID(4), inner, IfAction())
		require.NoError(t, err)
		assert.Same(t, inner, outer.FieldByName("then"))
	})

	t.Run("branches are required", func(t *testing.T) {
		_, err := IfNode(model.ID(3), IfAction(), nil)
		require.Error(t, err)
	})

	t.Run("branch must be an if tree", func(t *testing.T) {
		expr, err := Binary("+", 1, 2)
		require.NoError(t, err)
		_, err = IfNode(model.ID(3), expr, IfAction())
		require.Error(t, err)
	})
}

func TestWhenBranchNode(t *testing.T) {
	n, err := WhenBranchNode("Heating", At(450, 582))
	require.NoError(t, err)
	assert.Equal(t, CompWhenBranch, n.Composite())
	require.NotNil(t, n.Geometry())
	assert.True(t, n.Geometry().HasPos)
	assert.Equal(t, 450, n.Geometry().Pos.X)

	_, err = WhenBranchNode("not a pattern!")
	require.Error(t, err)
}
