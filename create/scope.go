package create

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/build"
	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/layout"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/tree"
)

// Variable roles within an operator interface.
const (
	RoleInput  = "input"
	RoleOutput = "output"
	RoleLocal  = "local"
	RoleSignal = "signal"
	RoleProbe  = "probe"
)

// VarSpec names one variable to add to a scope, typed by a type tree, an
// existing type, or a predefined name. Signals take no type.
type VarSpec struct {
	Name string
	Type any
}

// Terminator is the left-side marker that discards an output flow.
const Terminator = "_"

// AddInputs appends input variables to an operator's interface.
func (c *Creator) AddInputs(ctx context.Context, op model.ID, vars ...VarSpec) ([]model.ID, error) {
	return c.addVariables(ctx, op, RoleInput, vars)
}

// AddOutputs appends output variables to an operator's interface.
func (c *Creator) AddOutputs(ctx context.Context, op model.ID, vars ...VarSpec) ([]model.ID, error) {
	return c.addVariables(ctx, op, RoleOutput, vars)
}

// AddLocals appends local variables to an operator or action scope.
func (c *Creator) AddLocals(ctx context.Context, scope model.ID, vars ...VarSpec) ([]model.ID, error) {
	return c.addVariables(ctx, scope, RoleLocal, vars)
}

// AddSignals appends untyped signals to an operator or action scope.
func (c *Creator) AddSignals(ctx context.Context, scope model.ID, names ...string) ([]model.ID, error) {
	specs := make([]VarSpec, len(names))
	for i, n := range names {
		specs[i] = VarSpec{Name: n}
	}
	return c.addVariables(ctx, scope, RoleSignal, specs)
}

// AddProbes appends probe variables to an operator or action scope: typed
// flows observed by tooling without feeding any equation.
func (c *Creator) AddProbes(ctx context.Context, scope model.ID, vars ...VarSpec) ([]model.ID, error) {
	return c.addVariables(ctx, scope, RoleProbe, vars)
}

func (c *Creator) addVariables(ctx context.Context, scope model.ID, role string, vars []VarSpec) ([]model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)
	ids := make([]model.ID, 0, len(vars))
	for _, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("create: variable in %s has no name", scope)
		}
		var typeNode *tree.Node
		if role != RoleSignal {
			var err error
			typeNode, err = tree.ResolveType(v.Type)
			if err != nil {
				return nil, err
			}
		}
		id, err := c.store.CreateElement(model.KindVariable, model.Attrs{
			model.AttrName: cty.StringVal(v.Name),
			model.AttrRole: cty.StringVal(role),
		}, scope)
		if err != nil {
			return nil, err
		}
		if typeNode != nil {
			if err := c.materializeType(ctx, typeNode, id); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
		log.Debug("variable added", "scope", scope.String(), "role", role, "name", v.Name)
	}
	return ids, nil
}

// SetDefault attaches a default expression to a variable. Output and local
// variables evaluate their default when no equation defines them.
func (c *Creator) SetDefault(ctx context.Context, variable model.ID, expr any) error {
	return c.setVariableExpr(ctx, variable, "default", expr)
}

// SetLast attaches a last expression to a variable: the value read through
// the last operator before the variable's first definition.
func (c *Creator) SetLast(ctx context.Context, variable model.ID, expr any) error {
	return c.setVariableExpr(ctx, variable, "last", expr)
}

// setVariableExpr materializes an expression under the variable and tags
// the root with the role that tells default and last apart.
func (c *Creator) setVariableExpr(ctx context.Context, variable model.ID, role string, expr any) error {
	el, ok := c.store.Resolve(variable)
	if !ok || el.Kind != model.KindVariable {
		return fmt.Errorf("create: %s is not a variable", variable)
	}
	node, err := tree.Resolve(expr, tree.LitAny)
	if err != nil {
		return err
	}
	v, err := build.Validate(ctx, node, build.Target{Store: c.store, Session: c.reg, Container: variable})
	if err != nil {
		return err
	}
	res, err := v.Materialize(ctx)
	if err != nil {
		return err
	}
	return c.store.Link(variable, role, res.Root)
}

// AddAssertion adds a named boolean assertion to a scope, an assumption
// when assume is true and a guarantee otherwise. With a valid diagram the
// assertion is placed on the next free grid frame.
func (c *Creator) AddAssertion(ctx context.Context, scope, diagram model.ID, name string, expr any, assume bool) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	node, err := tree.Resolve(expr, tree.LitAny)
	if err != nil {
		return model.Nil, err
	}

	ordinal := c.countKind(scope, model.KindAssertion)
	as, err := c.store.CreateElement(model.KindAssertion, model.Attrs{
		model.AttrName:   cty.StringVal(name),
		model.AttrAssume: cty.BoolVal(assume),
	}, scope)
	if err != nil {
		return model.Nil, err
	}

	v, err := build.Validate(ctx, node, build.Target{
		Store:     c.store,
		Session:   c.reg,
		Container: as,
		Diagram:   diagram,
		Expect:    tree.LitBool,
	})
	if err != nil {
		return model.Nil, err
	}
	if _, err := v.Materialize(ctx); err != nil {
		return model.Nil, err
	}

	if diagram.Valid() {
		frame := layout.EquationFrame(ordinal, model.Rect{})
		if err := c.store.CreatePresentation(as, frame.Pos, frame.Size, diagram); err != nil {
			return model.Nil, err
		}
	}
	ctxlog.FromContext(ctx).Info("assertion added", "scope", scope.String(), "name", name)
	return as, nil
}

// AddNetDiagram adds a graphical diagram to an operator or action scope.
func (c *Creator) AddNetDiagram(ctx context.Context, scope model.ID, name string) (model.ID, error) {
	return c.addDiagram(ctx, scope, name, model.KindNetDiagram)
}

// AddTextDiagram adds a textual diagram to an operator or action scope.
func (c *Creator) AddTextDiagram(ctx context.Context, scope model.ID, name string) (model.ID, error) {
	return c.addDiagram(ctx, scope, name, model.KindTextDiagram)
}

func (c *Creator) addDiagram(ctx context.Context, scope model.ID, name string, kind model.Kind) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	id, err := c.store.CreateElement(kind, model.Attrs{model.AttrName: cty.StringVal(name)}, scope)
	if err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("diagram added", "scope", scope.String(), "name", name)
	return id, nil
}

// AddEquation defines flows in a scope: lefts take the value of the right
// expression. A left is an existing variable, a VarSpec declaring an
// internal variable on the fly, or the Terminator to discard that flow.
// With a valid diagram the equation is placed on the next free grid frame.
func (c *Creator) AddEquation(ctx context.Context, scope, diagram model.ID, lefts []any, right any) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	if len(lefts) == 0 {
		return model.Nil, fmt.Errorf("create: equation needs at least one left side")
	}

	rightNode, err := tree.Resolve(right, tree.LitAny)
	if err != nil {
		return model.Nil, err
	}

	ordinal := c.countKind(scope, model.KindEquation)
	eq, err := c.store.CreateElement(model.KindEquation, nil, scope)
	if err != nil {
		return model.Nil, err
	}

	for i, left := range lefts {
		target, err := c.resolveLeft(ctx, scope, left)
		if err != nil {
			return model.Nil, err
		}
		if err := c.store.Link(eq, fmt.Sprintf("left_%d", i), target); err != nil {
			return model.Nil, err
		}
	}

	v, err := build.Validate(ctx, rightNode, build.Target{Store: c.store, Session: c.reg, Container: eq, Diagram: diagram})
	if err != nil {
		return model.Nil, err
	}
	if _, err := v.Materialize(ctx); err != nil {
		return model.Nil, err
	}

	if diagram.Valid() {
		frame := layout.EquationFrame(ordinal, model.Rect{})
		if err := c.store.CreatePresentation(eq, frame.Pos, frame.Size, diagram); err != nil {
			return model.Nil, err
		}
	}
	ctxlog.FromContext(ctx).Info("equation added", "scope", scope.String(), "id", eq.String())
	return eq, nil
}

// resolveLeft turns one equation left side into a variable identity.
func (c *Creator) resolveLeft(ctx context.Context, scope model.ID, left any) (model.ID, error) {
	switch l := left.(type) {
	case model.ID:
		el, ok := c.store.Resolve(l)
		if !ok {
			return model.Nil, fmt.Errorf("create: left side %s does not exist", l)
		}
		if el.Kind != model.KindVariable {
			return model.Nil, fmt.Errorf("create: left side %s is a %s, not a variable", l, el.Kind)
		}
		return l, nil
	case string:
		if l != Terminator {
			return model.Nil, fmt.Errorf("create: left side %q is not a variable or the terminator", l)
		}
		return c.store.CreateElement(model.KindVariable, model.Attrs{
			model.AttrName: cty.StringVal(Terminator),
			model.AttrRole: cty.StringVal(RoleLocal),
		}, scope)
	case VarSpec:
		ids, err := c.AddLocals(ctx, scope, l)
		if err != nil {
			return model.Nil, err
		}
		return ids[0], nil
	default:
		return model.Nil, fmt.Errorf("create: unsupported left side %T", left)
	}
}

// AddEquationSet groups equations of one diagram into a named set.
func (c *Creator) AddEquationSet(ctx context.Context, diagram model.ID, name string, equations []model.ID) (model.ID, error) {
	dg, ok := c.store.Resolve(diagram)
	if !ok || (dg.Kind != model.KindNetDiagram && dg.Kind != model.KindTextDiagram) {
		return model.Nil, fmt.Errorf("create: %s is not a diagram", diagram)
	}
	set, err := c.store.CreateElement(model.KindEquationSet,
		model.Attrs{model.AttrName: cty.StringVal(name)}, diagram)
	if err != nil {
		return model.Nil, err
	}
	for i, eq := range equations {
		el, ok := c.store.Resolve(eq)
		if !ok || el.Kind != model.KindEquation {
			return model.Nil, fmt.Errorf("create: %s is not an equation", eq)
		}
		if err := c.store.Link(set, fmt.Sprintf("member_%d", i), eq); err != nil {
			return model.Nil, err
		}
	}
	return set, nil
}

// AddEdge draws an edge between the presentations of two elements on a
// diagram, usually the producing and consuming equations of a flow.
func (c *Creator) AddEdge(ctx context.Context, diagram, from, to model.ID) (model.ID, error) {
	for _, id := range []model.ID{from, to} {
		if _, ok := c.store.PresentationOf(id); !ok {
			return model.Nil, fmt.Errorf("create: element %s has no presentation on a diagram", id)
		}
	}
	edge, err := c.store.CreateElement(model.KindEdge, nil, diagram)
	if err != nil {
		return model.Nil, err
	}
	if err := c.store.Link(edge, "source", from); err != nil {
		return model.Nil, err
	}
	if err := c.store.Link(edge, "target", to); err != nil {
		return model.Nil, err
	}
	return edge, nil
}

// AddMissingEdges adds an edge for every producer/consumer pair of
// equations presented on the diagram that has no edge yet. Producers are
// the equations' left sides; consumers are found by walking each
// equation's expression for identifier references.
func (c *Creator) AddMissingEdges(ctx context.Context, diagram model.ID) ([]model.ID, error) {
	dg, ok := c.store.Resolve(diagram)
	if !ok || (dg.Kind != model.KindNetDiagram && dg.Kind != model.KindTextDiagram) {
		return nil, fmt.Errorf("create: %s is not a diagram", diagram)
	}

	// Producer map: variable -> defining equation on this diagram.
	producer := map[model.ID]model.ID{}
	var equations []model.ID
	for _, pe := range c.store.Presentations(diagram) {
		el, ok := c.store.Resolve(pe.Element)
		if !ok || el.Kind != model.KindEquation {
			continue
		}
		equations = append(equations, el.ID)
		for role, target := range el.Refs {
			if len(role) > 5 && role[:5] == "left_" {
				producer[target] = el.ID
			}
		}
	}

	// Existing edges, so reruns stay idempotent.
	type pair struct{ from, to model.ID }
	drawn := map[pair]bool{}
	for _, child := range dg.Children {
		if e, ok := c.store.Resolve(child); ok && e.Kind == model.KindEdge {
			drawn[pair{e.Ref("source"), e.Ref("target")}] = true
		}
	}

	var added []model.ID
	for _, eq := range equations {
		for _, used := range c.referenced(eq) {
			from, ok := producer[used]
			if !ok || from == eq {
				continue
			}
			p := pair{from, eq}
			if drawn[p] {
				continue
			}
			edge, err := c.AddEdge(ctx, diagram, from, eq)
			if err != nil {
				return added, err
			}
			drawn[p] = true
			added = append(added, edge)
		}
	}
	ctxlog.FromContext(ctx).Info("edges completed", "diagram", diagram.String(), "added", len(added))
	return added, nil
}

// referenced collects every element referenced by identifier expressions
// under root, depth first.
func (c *Creator) referenced(root model.ID) []model.ID {
	var out []model.ID
	var walk func(id model.ID)
	walk = func(id model.ID) {
		el, ok := c.store.Resolve(id)
		if !ok {
			return
		}
		if el.Kind == model.KindExprID {
			if target := el.Ref(build.RoleReference); target.Valid() {
				out = append(out, target)
			}
		}
		for _, child := range el.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// countKind counts direct children of a kind, used for placement ordinals.
func (c *Creator) countKind(container model.ID, kind model.Kind) int {
	el, ok := c.store.Resolve(container)
	if !ok {
		return 0
	}
	n := 0
	for _, child := range el.Children {
		if ce, ok := c.store.Resolve(child); ok && ce.Kind == kind {
			n++
		}
	}
	return n
}

// checkScope verifies the element can hold flows: an operator, a state, or
// an action body.
func (c *Creator) checkScope(scope model.ID) error {
	el, ok := c.store.Resolve(scope)
	if !ok {
		return fmt.Errorf("create: scope %s does not exist", scope)
	}
	switch el.Kind {
	case model.KindOperator, model.KindState, model.KindAction, model.KindIfAction, model.KindWhenBranch:
		return nil
	}
	return fmt.Errorf("create: %s is a %s, which cannot hold flows", scope, el.Kind)
}
