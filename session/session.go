// Package session holds the per-loaded-model name caches: declaration
// path to identity and predefined type name to identity. A registry is an
// explicit object with a declare/invalidate lifecycle, not ambient state;
// re-declaring a different model drops every cached entry before
// repopulating, so a reload can never serve stale cross-model lookups.
package session

import (
	"context"
	"fmt"

	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/store"
)

// UnknownNameError reports a lookup miss against the declared model.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("session: unknown name %q", e.Name)
}

// Registry caches name lookups for the currently declared model.
type Registry struct {
	reader     store.Reader
	elements   map[string]model.ID
	types      map[string]model.ID
	predefined map[string]model.ID
}

// New returns an empty registry. Nothing resolves until Declare is called.
func New() *Registry {
	return &Registry{}
}

// Declare walks the model once and populates the caches. Declaring on a
// registry that already holds a model invalidates it first.
func (r *Registry) Declare(ctx context.Context, reader store.Reader) error {
	logger := ctxlog.FromContext(ctx)
	if r.reader != nil {
		logger.Debug("Declare: invalidating previously declared model.")
		r.Invalidate()
	}

	elements := make(map[string]model.ID)
	types := make(map[string]model.ID)
	for _, ne := range reader.NamedElements() {
		key := ne.Path.String()
		if _, dup := elements[key]; dup {
			return fmt.Errorf("session: duplicate declaration path %q", key)
		}
		elements[key] = ne.ID
		el, ok := reader.Resolve(ne.ID)
		if !ok {
			return fmt.Errorf("session: model enumerates unknown element %s", ne.ID)
		}
		if el.Kind == model.KindNamedType || el.Kind == model.KindEnumeration {
			types[key] = ne.ID
		}
	}

	predefined := make(map[string]model.ID, len(store.PredefinedTypes))
	for _, name := range store.PredefinedTypes {
		id, ok := reader.FindPredefined(name)
		if !ok {
			return fmt.Errorf("session: model is missing predefined type %q", name)
		}
		predefined[name] = id
	}

	r.reader = reader
	r.elements = elements
	r.types = types
	r.predefined = predefined
	logger.Debug("Declare: registry populated.", "elements", len(elements), "types", len(types))
	return nil
}

// Declared reports whether a model is currently declared.
func (r *Registry) Declared() bool { return r.reader != nil }

// Reader returns the read surface of the declared model, or nil.
func (r *Registry) Reader() store.Reader { return r.reader }

// Lookup resolves a declaration path against the cache.
func (r *Registry) Lookup(path string) (model.ID, error) {
	if id, ok := r.elements[path]; ok {
		return id, nil
	}
	return model.Nil, &UnknownNameError{Name: path}
}

// LookupType resolves a path that must name a type declaration.
func (r *Registry) LookupType(path string) (model.ID, error) {
	if id, ok := r.types[path]; ok {
		return id, nil
	}
	return model.Nil, &UnknownNameError{Name: path}
}

// Predefined resolves a built-in type name.
func (r *Registry) Predefined(name string) (model.ID, error) {
	if id, ok := r.predefined[name]; ok {
		return id, nil
	}
	return model.Nil, &UnknownNameError{Name: name}
}

// Invalidate clears every cache. Lookups fail until the next Declare.
func (r *Registry) Invalidate() {
	r.reader = nil
	r.elements = nil
	r.types = nil
	r.predefined = nil
}
