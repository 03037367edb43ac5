package create

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/build"
	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/tree"
)

// Package declares a sub-package under the model root or another package.
func (c *Creator) Package(ctx context.Context, owner model.ID, name string, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	o := buildOptions(opts)
	id, err := c.declare(model.KindPackage, owner, model.Attrs{model.AttrName: cty.StringVal(name)}, o)
	if err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("package declared", "name", name, "id", id.String())
	return id, c.redeclare(ctx)
}

// NamedType declares a named type from a type tree: a structure, array, or
// sized composition, an existing type, or a predefined name.
func (c *Creator) NamedType(ctx context.Context, owner model.ID, name string, typeTree any, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	o := buildOptions(opts)

	node, err := tree.ResolveType(typeTree)
	if err != nil {
		return model.Nil, err
	}
	attrs := model.Attrs{model.AttrName: cty.StringVal(name)}
	if o.imported {
		attrs[model.AttrImported] = cty.True
	}
	id, err := c.declare(model.KindNamedType, owner, attrs, o)
	if err != nil {
		return model.Nil, err
	}
	if err := c.materializeType(ctx, node, id); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("type declared", "name", name, "id", id.String())
	return id, c.redeclare(ctx)
}

// Enumeration declares an enumeration type with the given value names, in
// order.
func (c *Creator) Enumeration(ctx context.Context, owner model.ID, name string, values []string, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	if len(values) == 0 {
		return model.Nil, fmt.Errorf("create: enumeration %q needs at least one value", name)
	}
	o := buildOptions(opts)
	id, err := c.declare(model.KindEnumeration, owner, model.Attrs{model.AttrName: cty.StringVal(name)}, o)
	if err != nil {
		return model.Nil, err
	}
	if err := c.addEnumValues(id, values); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("enumeration declared", "name", name, "values", len(values))
	return id, c.redeclare(ctx)
}

// AddEnumerationValues appends values to an existing enumeration.
func (c *Creator) AddEnumerationValues(ctx context.Context, enum model.ID, values []string) error {
	el, ok := c.store.Resolve(enum)
	if !ok || el.Kind != model.KindEnumeration {
		return fmt.Errorf("create: %s is not an enumeration", enum)
	}
	if err := c.addEnumValues(enum, values); err != nil {
		return err
	}
	return c.redeclare(ctx)
}

func (c *Creator) addEnumValues(enum model.ID, values []string) error {
	for _, v := range values {
		_, err := c.store.CreateElement(model.KindConstant,
			model.Attrs{model.AttrName: cty.StringVal(v)}, enum)
		if err != nil {
			return err
		}
	}
	return nil
}

// Constant declares a constant with a type and a value expression.
func (c *Creator) Constant(ctx context.Context, owner model.ID, name string, typ any, value any, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	o := buildOptions(opts)

	typeNode, err := tree.ResolveType(typ)
	if err != nil {
		return model.Nil, err
	}
	valueNode, err := tree.Resolve(value, tree.LitAny)
	if err != nil {
		return model.Nil, err
	}
	id, err := c.declare(model.KindConstant, owner, model.Attrs{model.AttrName: cty.StringVal(name)}, o)
	if err != nil {
		return model.Nil, err
	}
	if err := c.materializeType(ctx, typeNode, id); err != nil {
		return model.Nil, err
	}
	v, err := build.Validate(ctx, valueNode, build.Target{Store: c.store, Session: c.reg, Container: id})
	if err != nil {
		return model.Nil, err
	}
	if _, err := v.Materialize(ctx); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("constant declared", "name", name, "id", id.String())
	return id, c.redeclare(ctx)
}

// Sensor declares a sensor: a typed global input of the model.
func (c *Creator) Sensor(ctx context.Context, owner model.ID, name string, typ any, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	o := buildOptions(opts)
	node, err := tree.ResolveType(typ)
	if err != nil {
		return model.Nil, err
	}
	id, err := c.declare(model.KindSensor, owner, model.Attrs{model.AttrName: cty.StringVal(name)}, o)
	if err != nil {
		return model.Nil, err
	}
	if err := c.materializeType(ctx, node, id); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("sensor declared", "name", name, "id", id.String())
	return id, c.redeclare(ctx)
}

// Operator declares an operator. Operators are graphical by default; the
// Textual option switches the whole operator body to textual form.
func (c *Creator) Operator(ctx context.Context, owner model.ID, name string, opts ...Option) (model.ID, error) {
	if err := c.checkOwner(owner, model.KindModel, model.KindPackage); err != nil {
		return model.Nil, err
	}
	o := buildOptions(opts)
	attrs := model.Attrs{model.AttrName: cty.StringVal(name)}
	if o.textual {
		attrs[model.AttrTextual] = cty.True
	}
	if o.imported {
		attrs[model.AttrImported] = cty.True
	}
	id, err := c.declare(model.KindOperator, owner, attrs, o)
	if err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("operator declared", "name", name, "id", id.String())
	return id, c.redeclare(ctx)
}

// checkOwner verifies the owner exists and has one of the allowed kinds.
func (c *Creator) checkOwner(owner model.ID, kinds ...model.Kind) error {
	el, ok := c.store.Resolve(owner)
	if !ok {
		return fmt.Errorf("create: owner %s does not exist", owner)
	}
	for _, k := range kinds {
		if el.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("create: owner %s is a %s, which cannot hold this declaration", owner, el.Kind)
}

// materializeType materializes a type tree under a typed element and links
// the element to the resulting type, wherever it lives.
func (c *Creator) materializeType(ctx context.Context, node *tree.Node, typed model.ID) error {
	v, err := build.ValidateType(ctx, node, build.Target{Store: c.store, Session: c.reg, Container: typed})
	if err != nil {
		return err
	}
	res, err := v.Materialize(ctx)
	if err != nil {
		return err
	}
	return c.store.Link(typed, build.RoleType, res.Root)
}
