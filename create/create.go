// Package create is the high-level construction surface of the module: it
// declares packages, types, constants, sensors, and operators, fills
// operator scopes with variables, equations, and control blocks, and keeps
// every new declaration owned by the right storage unit.
//
// Every operation resolves its inputs through the tree package, validates
// and materializes through the build package, and reads names through the
// session registry. Nothing here mutates the graph directly except through
// the store's primitives.
package create

import (
	"context"
	"fmt"

	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/session"
	"github.com/vk/flowforge/store"
)

// Creator binds the construction surface to one store and one session.
type Creator struct {
	store *store.Store
	reg   *session.Registry
}

// New returns a Creator over a store and its declared session.
func New(s *store.Store, r *session.Registry) *Creator {
	return &Creator{store: s, reg: r}
}

// Store exposes the underlying store, mostly for tests and snapshots.
func (c *Creator) Store() *store.Store { return c.store }

// Option tunes a declaration.
type Option func(*options)

type options struct {
	unitPath string
	textual  bool
	imported bool
	final    bool
}

// InUnit places the declaration in the storage unit with the given path,
// creating the unit on first use. Without it the unit is inherited from the
// owner.
func InUnit(path string) Option {
	return func(o *options) { o.unitPath = path }
}

// Textual marks an operator or equation as textual rather than graphical.
func Textual() Option {
	return func(o *options) { o.textual = true }
}

// Imported marks a type or operator as imported from outside the model.
func Imported() Option {
	return func(o *options) { o.imported = true }
}

// Final marks a state as final.
func Final() Option {
	return func(o *options) { o.final = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AmbiguousOwnerError reports a declaration whose owner spans several
// storage units with no explicit unit to disambiguate.
type AmbiguousOwnerError struct {
	Owner model.ID
	Units []model.ID
}

func (e *AmbiguousOwnerError) Error() string {
	return fmt.Sprintf("create: owner %s spans %d storage units; pass an explicit unit", e.Owner, len(e.Units))
}

// resolveUnit decides which storage unit owns a new declaration under
// owner. An explicit unit path always wins. Model-level declarations fall
// back to the model's default unit. Package-level declarations inherit the
// package's unit, unless the package's declarations are spread over several
// units, which is ambiguous.
func (c *Creator) resolveUnit(owner model.ID, o options) (model.ID, error) {
	if o.unitPath != "" {
		if id, ok := c.store.FindUnit(o.unitPath); ok {
			return id, nil
		}
		return c.store.CreateUnit(o.unitPath)
	}
	if owner == c.store.Root() {
		return c.store.DefaultUnit(), nil
	}

	seen := map[model.ID]bool{}
	var units []model.ID
	add := func(u model.ID) {
		if u.Valid() && !seen[u] {
			seen[u] = true
			units = append(units, u)
		}
	}
	add(c.store.UnitOf(owner))
	el, ok := c.store.Resolve(owner)
	if !ok {
		return model.Nil, fmt.Errorf("create: owner %s does not exist", owner)
	}
	for _, child := range el.Children {
		ce, ok := c.store.Resolve(child)
		if !ok || !ce.Kind.Declaration() {
			continue
		}
		add(c.store.UnitOf(child))
	}
	switch len(units) {
	case 0:
		return c.store.DefaultUnit(), nil
	case 1:
		return units[0], nil
	default:
		return model.Nil, &AmbiguousOwnerError{Owner: owner, Units: units}
	}
}

// declare creates a named declaration element under owner, assigns its
// storage unit, and refreshes the session so the new name resolves
// immediately.
func (c *Creator) declare(kind model.Kind, owner model.ID, attrs model.Attrs, o options) (model.ID, error) {
	unit, err := c.resolveUnit(owner, o)
	if err != nil {
		return model.Nil, err
	}
	id, err := c.store.CreateElement(kind, attrs, owner)
	if err != nil {
		return model.Nil, err
	}
	if err := c.store.AssignUnit(id, unit); err != nil {
		return model.Nil, err
	}
	return id, nil
}

// redeclare refreshes the session registry after the model surface
// changed. Until the next Declare, lookups of the new names would miss.
func (c *Creator) redeclare(ctx context.Context) error {
	if c.reg == nil {
		return nil
	}
	return c.reg.Declare(ctx, c.store)
}
