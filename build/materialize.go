package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/layout"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/store"
	"github.com/vk/flowforge/tree"
)

// Reference roles written by the materializer.
const (
	RoleReference = "reference" // expression identifier to its element
	RoleOperator  = "operator"  // call to its callee
	RoleType      = "type"      // typed element to its type
	RoleTarget    = "target"    // transition to its target state
	RoleModifier  = "modifier"  // operator or call to its higher-order modifier
)

// Result reports what a materialization created.
type Result struct {
	// Root is the canonical identity of the tree's root. For a type tree
	// that is a plain reference, Root is the referenced element and nothing
	// was created.
	Root model.ID
	// Created lists every created element in creation order, Root included
	// when the root created one.
	Created []model.ID
}

// MaterializationError reports a failed materialization. The store is
// unchanged; the tree is consumed.
type MaterializationError struct {
	Node *tree.Node
	Err  error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialize: %v", e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// Materialize turns the validated tree into graph elements. All elements,
// links, and presentations are staged on one transaction; the single commit
// is the last step and cannot fail. On any staging error the transaction is
// discarded and the store keeps its exact prior state.
//
// The tree is consumed either way. A Validated can materialize only once.
func (v *Validated) Materialize(ctx context.Context) (Result, error) {
	log := ctxlog.FromContext(ctx)

	if v.state != stateValidated {
		return Result{}, &MaterializationError{Node: v.root, Err: errors.New("tree already consumed")}
	}
	// The same tree can sit behind two Validated values. The node marks are
	// the ground truth, the state field only tracks this Validated.
	if v.root.Consumed() {
		v.state = stateFailed
		return Result{}, &MaterializationError{Node: v.root, Err: errors.New("tree already consumed")}
	}
	v.state = stateMaterializing

	tx := v.tgt.Store.Begin()
	m := &emitter{v: v, tx: tx}

	var root model.ID
	var err error
	if v.asType {
		root, err = m.emitType(v.root, v.tgt.Container)
	} else {
		root, err = m.emit(v.root, v.tgt.Container)
	}
	if err != nil {
		tx.Discard()
		v.state = stateFailed
		v.root.MarkConsumed()
		log.Debug("materialization discarded", "error", err)
		return Result{}, &MaterializationError{Node: v.root, Err: err}
	}

	tx.Commit()
	v.state = stateMaterialized
	v.root.MarkConsumed()
	log.Debug("tree materialized", "root", root.String(), "created", len(m.created))
	return Result{Root: root, Created: m.created}, nil
}

// emitter stages one tree onto one transaction.
type emitter struct {
	v       *Validated
	tx      *store.Tx
	created []model.ID
}

func (m *emitter) create(kind model.Kind, attrs model.Attrs, container model.ID) (model.ID, error) {
	id, err := m.tx.CreateElement(kind, attrs, container)
	if err != nil {
		return model.Nil, err
	}
	m.created = append(m.created, id)
	return id, nil
}

// emit stages an expression, transition, or control node and its subtree.
// Containment is written parent first; cross-references are flushed by the
// transaction only after every element exists.
func (m *emitter) emit(n *tree.Node, container model.ID) (model.ID, error) {
	var id model.ID
	var err error

	switch n.Kind() {
	case tree.NodeLeaf:
		id, err = m.emitLeaf(n, container)

	case tree.NodeRef:
		id, err = m.emitIdentifier(n.RefID(), container)

	case tree.NodeName:
		id, err = m.emitIdentifier(m.v.names[n], container)

	case tree.NodeOperator:
		attrs := model.Attrs{model.AttrOperator: cty.NumberIntVal(int64(n.OpID()))}
		id, err = m.create(model.KindExprCall, attrs, container)
		if err != nil {
			return model.Nil, err
		}
		for _, c := range n.Children() {
			if _, err = m.emit(c, id); err != nil {
				return model.Nil, err
			}
		}
		if typ := n.FieldByName("type"); typ != nil {
			if err = m.emitTypeField(typ, id); err != nil {
				return model.Nil, err
			}
		}
		if err = m.emitModifiers(n, id); err != nil {
			return model.Nil, err
		}

	case tree.NodeCall:
		attrs := model.Attrs{model.AttrInstSplit: cty.NumberIntVal(int64(n.InstArgsAt()))}
		if n.Name() != "" {
			attrs[model.AttrName] = cty.StringVal(n.Name())
		}
		id, err = m.create(model.KindExprCall, attrs, container)
		if err != nil {
			return model.Nil, err
		}
		if err = m.tx.Link(id, RoleOperator, n.RefID()); err != nil {
			return model.Nil, err
		}
		for _, c := range n.Children() {
			if _, err = m.emit(c, id); err != nil {
				return model.Nil, err
			}
		}
		if err = m.emitModifiers(n, id); err != nil {
			return model.Nil, err
		}

	case tree.NodeComposite:
		id, err = m.emitControl(n, container)

	default:
		return model.Nil, fmt.Errorf("cannot materialize %s node", n.Kind())
	}
	if err != nil {
		return model.Nil, err
	}

	if err := m.present(n, id); err != nil {
		return model.Nil, err
	}
	return id, nil
}

func (m *emitter) emitLeaf(n *tree.Node, container model.ID) (model.ID, error) {
	_, kind := n.Lit()
	attrs := model.Attrs{
		model.AttrValue:   cty.StringVal(spellingOf(n)),
		model.AttrLitKind: cty.StringVal(kind.String()),
	}
	return m.create(model.KindConstValue, attrs, container)
}

// emitModifiers stages a higher-order chain: the owner links to its first
// modifier, each modifier to the next. Modifiers nest under their
// predecessor, the way wrapping applications would.
func (m *emitter) emitModifiers(n *tree.Node, owner model.ID) error {
	for _, mod := range n.Modifiers() {
		mid, err := m.emit(mod, owner)
		if err != nil {
			return err
		}
		if err := m.tx.Link(owner, RoleModifier, mid); err != nil {
			return err
		}
		owner = mid
	}
	return nil
}

// emitTypeField stages the type operand of a structured-value operator as
// a type reference, not a value.
func (m *emitter) emitTypeField(typ *tree.Node, container model.ID) error {
	id, err := m.create(model.KindExprType, nil, container)
	if err != nil {
		return err
	}
	ref, err := m.emitType(typ, id)
	if err != nil {
		return err
	}
	return m.tx.Link(id, RoleType, ref)
}

func (m *emitter) emitIdentifier(target model.ID, container model.ID) (model.ID, error) {
	id, err := m.create(model.KindExprID, nil, container)
	if err != nil {
		return model.Nil, err
	}
	if err := m.tx.Link(id, RoleReference, target); err != nil {
		return model.Nil, err
	}
	return id, nil
}

// emitType stages a type tree. Plain references stage nothing: the caller
// links the returned identity under whatever role its element uses.
func (m *emitter) emitType(n *tree.Node, container model.ID) (model.ID, error) {
	switch n.Kind() {
	case tree.NodeRef:
		return n.RefID(), nil
	case tree.NodeName:
		return m.v.names[n], nil
	case tree.NodeComposite:
		switch n.Composite() {
		case tree.CompStructure:
			return m.emitStructure(n, container)
		case tree.CompTable:
			return m.emitTable(n, container)
		case tree.CompSized:
			return m.emitSized(n, container)
		}
	}
	return model.Nil, fmt.Errorf("cannot materialize %s node as a type", n.Kind())
}

func (m *emitter) emitStructure(n *tree.Node, container model.ID) (model.ID, error) {
	id, err := m.create(model.KindStructure, nil, container)
	if err != nil {
		return model.Nil, err
	}
	for _, f := range n.Fields() {
		fid, err := m.create(model.KindField, model.Attrs{model.AttrName: cty.StringVal(f.Name)}, id)
		if err != nil {
			return model.Nil, err
		}
		ftype, err := m.emitType(f.Child, fid)
		if err != nil {
			return model.Nil, err
		}
		if err := m.tx.Link(fid, RoleType, ftype); err != nil {
			return model.Nil, err
		}
	}
	return id, nil
}

func (m *emitter) emitTable(n *tree.Node, container model.ID) (model.ID, error) {
	id, err := m.create(model.KindTable, nil, container)
	if err != nil {
		return model.Nil, err
	}
	for _, dim := range n.Children() {
		if _, err := m.emit(dim, id); err != nil {
			return model.Nil, err
		}
	}
	elem, err := m.emitType(n.FieldByName("of"), id)
	if err != nil {
		return model.Nil, err
	}
	if err := m.tx.Link(id, RoleType, elem); err != nil {
		return model.Nil, err
	}
	return id, nil
}

func (m *emitter) emitSized(n *tree.Node, container model.ID) (model.ID, error) {
	signed := n.FieldByName("constraint").Spelling() == "signed"
	id, err := m.create(model.KindSized, model.Attrs{model.AttrSigned: cty.BoolVal(signed)}, container)
	if err != nil {
		return model.Nil, err
	}
	if _, err := m.emit(n.FieldByName("size"), id); err != nil {
		return model.Nil, err
	}
	return id, nil
}

// emitControl stages transition and control-block trees.
func (m *emitter) emitControl(n *tree.Node, container model.ID) (model.ID, error) {
	switch n.Composite() {
	case tree.CompTransition, tree.CompFork:
		attrs := model.Attrs{
			model.AttrPriority: fieldValue(n, "priority"),
		}
		if reset := n.FieldByName("reset"); reset != nil {
			v, _ := reset.Lit()
			attrs[model.AttrReset] = v
		}
		id, err := m.create(model.KindTransition, attrs, container)
		if err != nil {
			return model.Nil, err
		}
		if trig := n.FieldByName("trigger"); trig != nil {
			if _, err := m.emit(trig, id); err != nil {
				return model.Nil, err
			}
		}
		if target := n.FieldByName("target"); target != nil {
			if err := m.tx.Link(id, RoleTarget, target.RefID()); err != nil {
				return model.Nil, err
			}
		}
		// Forked branches nest under their parent transition.
		for _, branch := range n.Children() {
			if _, err := m.emit(branch, id); err != nil {
				return model.Nil, err
			}
		}
		return id, nil

	case tree.CompIfNode:
		id, err := m.create(model.KindIfNode, nil, container)
		if err != nil {
			return model.Nil, err
		}
		for _, name := range []string{"expression", "then", "else"} {
			if _, err := m.emit(n.FieldByName(name), id); err != nil {
				return model.Nil, err
			}
		}
		return id, nil

	case tree.CompIfAction:
		act, err := m.create(model.KindIfAction, nil, container)
		if err != nil {
			return model.Nil, err
		}
		// The empty scope callers fill with equations afterwards.
		if _, err := m.create(model.KindAction, nil, act); err != nil {
			return model.Nil, err
		}
		return act, nil

	case tree.CompWhenBranch:
		id, err := m.create(model.KindWhenBranch, nil, container)
		if err != nil {
			return model.Nil, err
		}
		if _, err := m.emit(n.FieldByName("pattern"), id); err != nil {
			return model.Nil, err
		}
		if _, err := m.create(model.KindAction, nil, id); err != nil {
			return model.Nil, err
		}
		return id, nil
	}
	return model.Nil, fmt.Errorf("cannot materialize %s composite in expression position", n.Composite())
}

// present stages the presentation of a diagram-bound node, filling in the
// deterministic defaults for whatever the caller left out.
func (m *emitter) present(n *tree.Node, id model.ID) error {
	g := n.Geometry()
	if g == nil {
		return nil
	}
	pos := layout.DefaultOrigin()
	if g.HasPos {
		pos = g.Pos
	}
	size := layout.DefaultSize()
	if g.HasSize {
		size = g.Size
	}
	return m.tx.CreatePresentation(id, pos, size, m.v.tgt.Diagram)
}

// spellingOf renders a leaf for persistence, falling back to the cty value
// for leaves composed without a source spelling.
func spellingOf(n *tree.Node) string {
	if s := n.Spelling(); s != "" {
		return s
	}
	val, _ := n.Lit()
	switch val.Type() {
	case cty.Bool:
		if val.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		return val.AsBigFloat().Text('f', -1)
	case cty.String:
		return val.AsString()
	}
	return ""
}

func fieldValue(n *tree.Node, name string) cty.Value {
	child := n.FieldByName(name)
	if child == nil {
		return cty.NilVal
	}
	v, _ := child.Lit()
	return v
}
