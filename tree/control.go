package tree

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
)

// Composition functions for transition trees and control-block branch
// trees. These nodes are diagram-bound: they accept optional geometry
// hints, and the layout package supplies deterministic defaults for
// whatever the caller leaves out.

// GeomOpt attaches caller-supplied geometry to a diagram-bound node.
type GeomOpt func(*Geom)

// At sets the position of the node's presentation entry.
func At(x, y int) GeomOpt {
	return func(g *Geom) {
		g.Pos = model.Point{X: x, Y: y}
		g.HasPos = true
	}
}

// WithSize sets the size of the node's presentation entry.
func WithSize(w, h int) GeomOpt {
	return func(g *Geom) {
		g.Size = model.Dim{W: w, H: h}
		g.HasSize = true
	}
}

func applyGeom(n *Node, opts []GeomOpt) {
	if len(opts) == 0 {
		return
	}
	g := &Geom{}
	for _, opt := range opts {
		opt(g)
	}
	n.geom = g
}

// TransitionTo returns a transition tree targeting an existing state.
// A nil trigger makes the transition unconditional (an else transition).
// Reset selects restart semantics on entry; priority orders outgoing
// transitions of the same source.
func TransitionTo(trigger any, state model.ID, reset bool, priority int, opts ...GeomOpt) (*Node, error) {
	if !state.Valid() {
		return nil, resolutionErr("transition", state, "nil target state")
	}
	n := &Node{kind: NodeComposite, comp: CompTransition}
	if trigger != nil {
		trig, err := Resolve(trigger, LitBool)
		if err != nil {
			return nil, err
		}
		trig.attach(n)
		n.fields = append(n.fields, Field{Name: "trigger", Child: trig})
	}
	target := &Node{kind: NodeRef, ref: state}
	target.attach(n)
	n.fields = append(n.fields,
		Field{Name: "target", Child: target},
		Field{Name: "reset", Child: leaf("", LitBool, cty.BoolVal(reset))},
		Field{Name: "priority", Child: leaf("", LitInt, cty.NumberIntVal(int64(priority)))},
	)
	applyGeom(n, opts)
	return n, nil
}

// TransitionFork returns a transition tree that forks into nested
// transitions instead of targeting a state directly. Every nested tree
// must be a transition tree.
func TransitionFork(trigger any, priority int, branches ...*Node) (*Node, error) {
	if len(branches) == 0 {
		return nil, resolutionErr("fork", branches, "needs at least one branch")
	}
	for _, b := range branches {
		if b == nil || b.comp != CompTransition && b.comp != CompFork {
			return nil, resolutionErr("fork", b, "branch is not a transition tree")
		}
	}
	n := &Node{kind: NodeComposite, comp: CompFork, children: branches}
	if trigger != nil {
		trig, err := Resolve(trigger, LitBool)
		if err != nil {
			return nil, err
		}
		trig.attach(n)
		n.fields = append(n.fields, Field{Name: "trigger", Child: trig})
	}
	n.fields = append(n.fields,
		Field{Name: "priority", Child: leaf("", LitInt, cty.NumberIntVal(int64(priority)))},
	)
	attachAll(n, branches)
	return n, nil
}

// IfNode returns a decision node of an if-block tree. Then and else are
// themselves if-trees: either nested decisions or leaf actions.
func IfNode(cond any, then, els *Node, opts ...GeomOpt) (*Node, error) {
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	if then == nil || els == nil {
		return nil, resolutionErr("if node", cond, "then and else branches are both required")
	}
	for _, branch := range []*Node{then, els} {
		if branch.comp != CompIfNode && branch.comp != CompIfAction {
			return nil, resolutionErr("if node", branch, "branch is not an if tree")
		}
	}
	n := &Node{kind: NodeComposite, comp: CompIfNode}
	c.attach(n)
	then.attach(n)
	els.attach(n)
	n.fields = []Field{
		{Name: "expression", Child: c},
		{Name: "then", Child: then},
		{Name: "else", Child: els},
	}
	applyGeom(n, opts)
	return n, nil
}

// IfAction returns a leaf action of an if-block tree: an empty scope the
// caller fills with equations after materialization.
func IfAction(opts ...GeomOpt) *Node {
	n := &Node{kind: NodeComposite, comp: CompIfAction}
	applyGeom(n, opts)
	return n
}

// WhenBranchNode returns one branch of a when block, keyed by a pattern
// literal or identifier.
func WhenBranchNode(pattern any, opts ...GeomOpt) (*Node, error) {
	p, err := Resolve(pattern, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeComposite, comp: CompWhenBranch}
	p.attach(n)
	n.fields = []Field{{Name: "pattern", Child: p}}
	applyGeom(n, opts)
	return n, nil
}
