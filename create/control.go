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

// AddStateMachine adds a state machine to an operator or action scope.
func (c *Creator) AddStateMachine(ctx context.Context, scope, diagram model.ID, name string) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	sm, err := c.store.CreateElement(model.KindStateMachine,
		model.Attrs{model.AttrName: cty.StringVal(name)}, scope)
	if err != nil {
		return model.Nil, err
	}
	if diagram.Valid() {
		frame := layout.EquationFrame(c.countKind(scope, model.KindStateMachine)-1, model.Rect{})
		if err := c.store.CreatePresentation(sm, frame.Pos, frame.Size, diagram); err != nil {
			return model.Nil, err
		}
	}
	ctxlog.FromContext(ctx).Info("state machine added", "scope", scope.String(), "name", name)
	return sm, nil
}

// AddState adds a state to a state machine. The first state of a machine
// is usually its initial state; the flag is explicit either way.
func (c *Creator) AddState(ctx context.Context, sm model.ID, name string, initial bool, opts ...Option) (model.ID, error) {
	el, ok := c.store.Resolve(sm)
	if !ok || el.Kind != model.KindStateMachine {
		return model.Nil, fmt.Errorf("create: %s is not a state machine", sm)
	}
	o := buildOptions(opts)
	attrs := model.Attrs{
		model.AttrName:    cty.StringVal(name),
		model.AttrInitial: cty.BoolVal(initial),
	}
	if o.final {
		attrs[model.AttrFinal] = cty.True
	}
	state, err := c.store.CreateElement(model.KindState, attrs, sm)
	if err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("state added", "machine", sm.String(), "name", name, "initial", initial)
	return state, nil
}

// AddTransition materializes a transition tree out of a source state. The
// tree must come from TransitionTo or TransitionFork.
func (c *Creator) AddTransition(ctx context.Context, state, diagram model.ID, trans *tree.Node) (model.ID, error) {
	el, ok := c.store.Resolve(state)
	if !ok || el.Kind != model.KindState {
		return model.Nil, fmt.Errorf("create: %s is not a state", state)
	}
	if trans == nil || trans.Kind() != tree.NodeComposite ||
		(trans.Composite() != tree.CompTransition && trans.Composite() != tree.CompFork) {
		return model.Nil, fmt.Errorf("create: not a transition tree")
	}
	v, err := build.Validate(ctx, trans, build.Target{Store: c.store, Session: c.reg, Container: state, Diagram: diagram})
	if err != nil {
		return model.Nil, err
	}
	res, err := v.Materialize(ctx)
	if err != nil {
		return model.Nil, err
	}
	return res.Root, nil
}

// AddIfBlock adds an if block to a scope and materializes its decision
// tree. Decision nodes and actions without caller geometry are stacked
// vertically on the diagram, top to bottom in creation order.
func (c *Creator) AddIfBlock(ctx context.Context, scope, diagram model.ID, name string, ifTree *tree.Node) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	if ifTree == nil || ifTree.Composite() != tree.CompIfNode {
		return model.Nil, fmt.Errorf("create: not an if tree")
	}
	block, err := c.store.CreateElement(model.KindIfBlock,
		model.Attrs{model.AttrName: cty.StringVal(name)}, scope)
	if err != nil {
		return model.Nil, err
	}
	v, err := build.Validate(ctx, ifTree, build.Target{Store: c.store, Session: c.reg, Container: block, Diagram: diagram})
	if err != nil {
		return model.Nil, err
	}
	res, err := v.Materialize(ctx)
	if err != nil {
		return model.Nil, err
	}
	if err := c.placeBranches(diagram, res.Created, model.KindIfNode, model.KindIfAction); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("if block added", "scope", scope.String(), "name", name)
	return block, nil
}

// AddWhenBlock adds a when block switching on a selector expression, with
// one branch tree per pattern. Branches without caller geometry stack
// vertically from the standard branch anchor.
func (c *Creator) AddWhenBlock(ctx context.Context, scope, diagram model.ID, name string, selector any, branches []*tree.Node) (model.ID, error) {
	if err := c.checkScope(scope); err != nil {
		return model.Nil, err
	}
	if len(branches) == 0 {
		return model.Nil, fmt.Errorf("create: when block needs at least one branch")
	}
	for _, b := range branches {
		if b == nil || b.Composite() != tree.CompWhenBranch {
			return model.Nil, fmt.Errorf("create: not a when-branch tree")
		}
	}
	sel, err := tree.Resolve(selector, tree.LitAny)
	if err != nil {
		return model.Nil, err
	}

	block, err := c.store.CreateElement(model.KindWhenBlock,
		model.Attrs{model.AttrName: cty.StringVal(name)}, scope)
	if err != nil {
		return model.Nil, err
	}
	sv, err := build.Validate(ctx, sel, build.Target{Store: c.store, Session: c.reg, Container: block})
	if err != nil {
		return model.Nil, err
	}
	if _, err := sv.Materialize(ctx); err != nil {
		return model.Nil, err
	}

	var created []model.ID
	for _, b := range branches {
		bv, err := build.Validate(ctx, b, build.Target{Store: c.store, Session: c.reg, Container: block, Diagram: diagram})
		if err != nil {
			return model.Nil, err
		}
		res, err := bv.Materialize(ctx)
		if err != nil {
			return model.Nil, err
		}
		created = append(created, res.Created...)
	}
	if err := c.placeBranches(diagram, created, model.KindWhenBranch); err != nil {
		return model.Nil, err
	}
	ctxlog.FromContext(ctx).Info("when block added", "scope", scope.String(), "name", name, "branches", len(branches))
	return block, nil
}

// placeBranches gives every created branch element of the listed kinds a
// presentation, stacking the ones the caller did not place.
func (c *Creator) placeBranches(diagram model.ID, created []model.ID, kinds ...model.Kind) error {
	if !diagram.Valid() {
		return nil
	}
	wanted := map[model.Kind]bool{}
	for _, k := range kinds {
		wanted[k] = true
	}
	var unplaced []model.ID
	for _, id := range created {
		el, ok := c.store.Resolve(id)
		if !ok || !wanted[el.Kind] {
			continue
		}
		if _, ok := c.store.PresentationOf(id); !ok {
			unplaced = append(unplaced, id)
		}
	}
	frames := layout.BranchFrames(model.Rect{}, len(unplaced))
	for i, id := range unplaced {
		if err := c.store.CreatePresentation(id, frames[i].Pos, frames[i].Size, diagram); err != nil {
			return err
		}
	}
	return nil
}
