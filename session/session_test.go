package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/store"
)

func demoStore(t *testing.T) (*store.Store, model.ID) {
	t.Helper()
	s := store.New("Demo")
	lib, err := s.CreateElement(model.KindPackage, model.Attrs{model.AttrName: cty.StringVal("Lib")}, s.Root())
	require.NoError(t, err)
	typ, err := s.CreateElement(model.KindNamedType, model.Attrs{model.AttrName: cty.StringVal("Point")}, lib)
	require.NoError(t, err)
	return s, typ
}

func TestDeclareAndLookup(t *testing.T) {
	s, typ := demoStore(t)
	r := New()
	require.NoError(t, r.Declare(context.Background(), s))

	id, err := r.Lookup("Lib::Point")
	require.NoError(t, err)
	assert.Equal(t, typ, id)

	id, err = r.LookupType("Lib::Point")
	require.NoError(t, err)
	assert.Equal(t, typ, id)

	// Packages resolve as elements but not as types.
	_, err = r.Lookup("Lib")
	require.NoError(t, err)
	_, err = r.LookupType("Lib")
	var unknown *UnknownNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Lib", unknown.Name)
}

func TestPredefined(t *testing.T) {
	s, _ := demoStore(t)
	r := New()
	require.NoError(t, r.Declare(context.Background(), s))

	want, _ := s.FindPredefined("float32")
	id, err := r.Predefined("float32")
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = r.Predefined("float128")
	var unknown *UnknownNameError
	assert.ErrorAs(t, err, &unknown)
}

func TestInvalidate(t *testing.T) {
	s, _ := demoStore(t)
	r := New()
	require.NoError(t, r.Declare(context.Background(), s))
	r.Invalidate()

	assert.False(t, r.Declared())
	_, err := r.Lookup("Lib::Point")
	var unknown *UnknownNameError
	assert.ErrorAs(t, err, &unknown)
}

func TestRedeclareDropsStaleEntries(t *testing.T) {
	first, _ := demoStore(t)
	r := New()
	require.NoError(t, r.Declare(context.Background(), first))

	second := store.New("Other")
	_, err := second.CreateElement(model.KindConstant, model.Attrs{model.AttrName: cty.StringVal("Limit")}, second.Root())
	require.NoError(t, err)
	require.NoError(t, r.Declare(context.Background(), second))

	// Names from the first model must be gone.
	_, err = r.Lookup("Lib::Point")
	var unknown *UnknownNameError
	assert.ErrorAs(t, err, &unknown)

	_, err = r.Lookup("Limit")
	assert.NoError(t, err)
}

func TestLookupBeforeDeclare(t *testing.T) {
	r := New()
	_, err := r.Lookup("Anything")
	var unknown *UnknownNameError
	assert.ErrorAs(t, err, &unknown)
}
