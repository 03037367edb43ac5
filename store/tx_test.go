package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowforge/model"
)

func TestTx_CommitAppliesEverything(t *testing.T) {
	s := New("Demo")
	before := s.Count()

	tx := s.Begin()
	typ, err := tx.CreateElement(model.KindNamedType, named("Point"), s.Root())
	require.NoError(t, err)
	st, err := tx.CreateElement(model.KindStructure, nil, typ)
	require.NoError(t, err)
	fx, err := tx.CreateElement(model.KindField, named("x"), st)
	require.NoError(t, err)
	f32, _ := s.FindPredefined("float32")
	require.NoError(t, tx.Link(fx, "type", f32))
	require.NoError(t, tx.Link(typ, "definition", st))

	// Nothing visible before commit.
	assert.Equal(t, before, s.Count())
	_, ok := s.Resolve(typ)
	assert.False(t, ok)

	tx.Commit()

	assert.Equal(t, before+3, s.Count())
	el, ok := s.Resolve(typ)
	require.True(t, ok)
	assert.Equal(t, st, el.Ref("definition"))
	assert.Equal(t, []model.ID{st}, el.Children)

	field, ok := s.Resolve(fx)
	require.True(t, ok)
	assert.Equal(t, f32, field.Ref("type"))
}

func TestTx_DiscardLeavesStoreUntouched(t *testing.T) {
	s := New("Demo")
	snapBefore, err := s.Snapshot()
	require.NoError(t, err)

	tx := s.Begin()
	typ, err := tx.CreateElement(model.KindNamedType, named("Point"), s.Root())
	require.NoError(t, err)
	_, err = tx.CreateElement(model.KindStructure, nil, typ)
	require.NoError(t, err)
	tx.Discard()

	snapAfter, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, string(snapBefore), string(snapAfter))
}

func TestTx_IDsNeverReused(t *testing.T) {
	s := New("Demo")

	tx := s.Begin()
	discarded, err := tx.CreateElement(model.KindNamedType, named("Ghost"), s.Root())
	require.NoError(t, err)
	tx.Discard()

	fresh, err := s.CreateElement(model.KindNamedType, named("Real"), s.Root())
	require.NoError(t, err)
	assert.Greater(t, fresh, discarded)
}

func TestTx_StagingChecks(t *testing.T) {
	s := New("Demo")
	committed, err := s.CreateElement(model.KindConstant, named("N"), s.Root())
	require.NoError(t, err)

	tx := s.Begin()
	// Unknown container.
	_, err = tx.CreateElement(model.KindStructure, nil, model.ID(9999))
	assert.Error(t, err)
	// Link source must be staged, not merely committed.
	boolID, _ := s.FindPredefined("bool")
	assert.Error(t, tx.Link(committed, "type", boolID))

	staged, err := tx.CreateElement(model.KindVariable, named("v"), s.Root())
	require.NoError(t, err)
	// Dangling link target.
	assert.Error(t, tx.Link(staged, "type", model.ID(9999)))
	// Duplicate role.
	require.NoError(t, tx.Link(staged, "type", boolID))
	assert.Error(t, tx.Link(staged, "type", boolID))
	tx.Discard()
}

func TestTx_FinishedTxRefusesWork(t *testing.T) {
	s := New("Demo")
	tx := s.Begin()
	tx.Commit()

	_, err := tx.CreateElement(model.KindPackage, named("Late"), s.Root())
	assert.Error(t, err)
}

func TestTx_PresentationForStagedElement(t *testing.T) {
	s := New("Demo")
	op, err := s.CreateElement(model.KindOperator, named("Main"), s.Root())
	require.NoError(t, err)
	dg, err := s.CreateElement(model.KindNetDiagram, named("Main"), op)
	require.NoError(t, err)

	tx := s.Begin()
	eq, err := tx.CreateElement(model.KindEquation, nil, op)
	require.NoError(t, err)
	require.NoError(t, tx.CreatePresentation(eq, model.Point{X: 1, Y: 2}, model.Dim{W: 3, H: 4}, dg))
	tx.Commit()

	pe, ok := s.PresentationOf(eq)
	require.True(t, ok)
	assert.Equal(t, dg, pe.Diagram)
}
