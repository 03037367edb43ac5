package create

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowforge/build"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/tree"
)

func controlFixture(t *testing.T) (*Creator, model.ID, model.ID) {
	t.Helper()
	c := newCreator(t, "Control")
	ctx := context.Background()
	op, err := c.Operator(ctx, c.store.Root(), "Main")
	require.NoError(t, err)
	diagram, err := c.AddNetDiagram(ctx, op, "main")
	require.NoError(t, err)
	return c, op, diagram
}

func TestStateMachine(t *testing.T) {
	c, op, diagram := controlFixture(t)
	ctx := context.Background()
	_, err := c.AddInputs(ctx, op, VarSpec{Name: "on", Type: "bool"}, VarSpec{Name: "off", Type: "bool"})
	require.NoError(t, err)

	sm, err := c.AddStateMachine(ctx, op, diagram, "Mode")
	require.NoError(t, err)
	idle, err := c.AddState(ctx, sm, "Idle", true)
	require.NoError(t, err)
	run, err := c.AddState(ctx, sm, "Running", false)
	require.NoError(t, err)
	done, err := c.AddState(ctx, sm, "Done", false, Final())
	require.NoError(t, err)

	de, _ := c.store.Resolve(done)
	assert.True(t, de.Attrs[model.AttrFinal].True())
	ie, _ := c.store.Resolve(idle)
	assert.True(t, ie.Attrs[model.AttrInitial].True())

	t.Run("simple transition", func(t *testing.T) {
		onSig, err := tree.Name("on")
		require.NoError(t, err)
		tr, err := tree.TransitionTo(onSig, run, true, 1)
		require.NoError(t, err)
		id, err := c.AddTransition(ctx, idle, diagram, tr)
		require.NoError(t, err)
		el, _ := c.store.Resolve(id)
		assert.Equal(t, model.KindTransition, el.Kind)
		assert.Equal(t, run, el.Ref(build.RoleTarget))
		assert.Equal(t, idle, el.Container)
	})

	t.Run("forked transition", func(t *testing.T) {
		offSig, err := tree.Name("off")
		require.NoError(t, err)
		left, err := tree.TransitionTo(offSig, idle, false, 1)
		require.NoError(t, err)
		right, err := tree.TransitionTo(nil, done, false, 2)
		require.NoError(t, err)
		onSig, err := tree.Name("on")
		require.NoError(t, err)
		fork, err := tree.TransitionFork(onSig, 1, left, right)
		require.NoError(t, err)

		id, err := c.AddTransition(ctx, run, diagram, fork)
		require.NoError(t, err)
		el, _ := c.store.Resolve(id)
		assert.Equal(t, model.Nil, el.Ref(build.RoleTarget))

		var nested []model.ID
		for _, child := range el.Children {
			if ce, _ := c.store.Resolve(child); ce != nil && ce.Kind == model.KindTransition {
				nested = append(nested, child)
			}
		}
		require.Len(t, nested, 2)
		first, _ := c.store.Resolve(nested[0])
		assert.Equal(t, idle, first.Ref(build.RoleTarget))
	})

	t.Run("transition from a non-state", func(t *testing.T) {
		tr, err := tree.TransitionTo(true, idle, false, 1)
		require.NoError(t, err)
		_, err = c.AddTransition(ctx, op, diagram, tr)
		require.Error(t, err)
	})
}

func TestIfBlock(t *testing.T) {
	c, op, diagram := controlFixture(t)
	ctx := context.Background()
	ins, err := c.AddInputs(ctx, op, VarSpec{Name: "a", Type: "bool"}, VarSpec{Name: "b", Type: "bool"})
	require.NoError(t, err)

	inner, err := tree.IfNode(ins[1], tree.IfAction(), tree.IfAction())
	require.NoError(t, err)
	root, err := tree.IfNode(ins[0], inner, tree.IfAction())
	require.NoError(t, err)

	block, err := c.AddIfBlock(ctx, op, diagram, "choose", root)
	require.NoError(t, err)
	el, _ := c.store.Resolve(block)
	assert.Equal(t, model.KindIfBlock, el.Kind)
	require.Len(t, el.Children, 1)

	t.Run("branches are stacked without overlap", func(t *testing.T) {
		var frames []model.Rect
		var walk func(id model.ID)
		walk = func(id model.ID) {
			e, ok := c.store.Resolve(id)
			require.True(t, ok)
			if e.Kind == model.KindIfNode || e.Kind == model.KindIfAction {
				pe, ok := c.store.PresentationOf(id)
				require.True(t, ok, "%s %s has no presentation", e.Kind, id)
				frames = append(frames, model.Rect{Pos: pe.Pos, Size: pe.Size})
			}
			for _, child := range e.Children {
				walk(child)
			}
		}
		walk(block)
		require.Len(t, frames, 5)
		for i := range frames {
			for j := i + 1; j < len(frames); j++ {
				assert.False(t, frames[i].Overlaps(frames[j]), "frames %d and %d overlap", i, j)
			}
		}
	})

	t.Run("reused branch tree fails validation", func(t *testing.T) {
		action := tree.IfAction()
		first, err := tree.IfNode(ins[0], action, tree.IfAction())
		require.NoError(t, err)
		_, err = tree.IfNode(ins[1], action, tree.IfAction())
		require.NoError(t, err)

		_, err = c.AddIfBlock(ctx, op, diagram, "broken", first)
		require.Error(t, err)
		var verr *build.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "shared", verr.Rule)
	})
}

func TestWhenBlock(t *testing.T) {
	c, op, diagram := controlFixture(t)
	ctx := context.Background()
	_, err := c.Enumeration(ctx, c.store.Root(), "Mode", []string{"Off", "Low", "High"})
	require.NoError(t, err)
	ins, err := c.AddInputs(ctx, op, VarSpec{Name: "mode", Type: "Mode"})
	require.NoError(t, err)

	var branches []*tree.Node
	for _, pattern := range []string{"Off", "Low", "High"} {
		b, err := tree.WhenBranchNode(pattern)
		require.NoError(t, err)
		branches = append(branches, b)
	}

	block, err := c.AddWhenBlock(ctx, op, diagram, "by_mode", ins[0], branches)
	require.NoError(t, err)
	el, _ := c.store.Resolve(block)
	assert.Equal(t, model.KindWhenBlock, el.Kind)

	var placed []model.Rect
	for _, child := range el.Children {
		ce, _ := c.store.Resolve(child)
		if ce.Kind != model.KindWhenBranch {
			continue
		}
		pe, ok := c.store.PresentationOf(child)
		require.True(t, ok)
		placed = append(placed, model.Rect{Pos: pe.Pos, Size: pe.Size})
	}
	require.Len(t, placed, 3)
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			assert.False(t, placed[i].Overlaps(placed[j]))
		}
	}

	t.Run("empty branch list rejected", func(t *testing.T) {
		_, err := c.AddWhenBlock(ctx, op, diagram, "none", ins[0], nil)
		require.Error(t, err)
	})
}
