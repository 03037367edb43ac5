// Package testutil holds shared test fixtures: a bootstrapped model store
// with a declared session, and a scaffolded operator to hang scope tests on.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/session"
	"github.com/vk/flowforge/store"
)

// Model returns a fresh store for a model of the given name and a session
// registry with the store declared.
func Model(t *testing.T, name string) (*store.Store, *session.Registry) {
	t.Helper()
	s := store.New(name)
	r := session.New()
	require.NoError(t, r.Declare(context.Background(), s))
	return s, r
}

// Operator creates a bare operator element under the model root, with a
// net diagram, and returns both. It bypasses the create package so that
// lower layers can be tested without it.
func Operator(t *testing.T, s *store.Store, name string) (op, diagram model.ID) {
	t.Helper()
	op, err := s.CreateElement(model.KindOperator,
		model.Attrs{model.AttrName: cty.StringVal(name)}, s.Root())
	require.NoError(t, err)
	diagram, err = s.CreateElement(model.KindNetDiagram, nil, op)
	require.NoError(t, err)
	return op, diagram
}

// Variable creates a variable element under a container, typed by a
// predefined type.
func Variable(t *testing.T, s *store.Store, container model.ID, name, typeName string) model.ID {
	t.Helper()
	id, err := s.CreateElement(model.KindVariable,
		model.Attrs{model.AttrName: cty.StringVal(name)}, container)
	require.NoError(t, err)
	tid, ok := s.FindPredefined(typeName)
	require.True(t, ok, "predefined type %s", typeName)
	require.NoError(t, s.Link(id, "type", tid))
	return id
}
