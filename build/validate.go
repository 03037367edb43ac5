package build

import (
	"context"
	"fmt"

	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/session"
	"github.com/vk/flowforge/store"
	"github.com/vk/flowforge/tree"
)

// Target names where a tree materializes: the store and session it runs
// against, the container element that will own the tree's root, and the
// diagram receiving presentations for diagram-bound nodes. Expect
// constrains the literal kind of an expression tree's root, LitAny for no
// constraint.
type Target struct {
	Store     *store.Store
	Session   *session.Registry
	Container model.ID
	Diagram   model.ID
	Expect    tree.LitKind
}

// ValidationError reports the first rule a tree breaks. Node is the
// offending node within the tree, not necessarily the root.
type ValidationError struct {
	Node   *tree.Node
	Rule   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %s: %s", e.Rule, e.Detail)
}

func invalid(n *tree.Node, rule, format string, args ...any) error {
	return &ValidationError{Node: n, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// treeState tracks a tree through the pipeline. Materializing is observable
// only from within a Materialize call; externally a tree is validated,
// materialized, or failed.
type treeState int

const (
	stateValidated treeState = iota
	stateMaterializing
	stateMaterialized
	stateFailed
)

// Validated is a tree that passed validation against a target, ready to
// materialize exactly once.
type Validated struct {
	root   *tree.Node
	tgt    Target
	asType bool
	state  treeState

	// names holds the session resolutions made during validation, so the
	// materializer never resolves a name a second time.
	names map[*tree.Node]model.ID
}

// Validate checks an expression, transition, or control-block tree against
// a target. It reads the store and session but never writes.
func Validate(ctx context.Context, root *tree.Node, tgt Target) (*Validated, error) {
	return validate(ctx, root, tgt, false)
}

// ValidateType checks a type tree against a target. Type trees link to
// referenced types instead of wrapping them, so they validate under their
// own field contracts.
func ValidateType(ctx context.Context, root *tree.Node, tgt Target) (*Validated, error) {
	return validate(ctx, root, tgt, true)
}

func validate(ctx context.Context, root *tree.Node, tgt Target, asType bool) (*Validated, error) {
	log := ctxlog.FromContext(ctx)

	if root == nil {
		return nil, invalid(nil, "empty", "no tree")
	}
	if tgt.Store == nil {
		return nil, invalid(root, "target", "no store")
	}
	if !tgt.Container.Valid() {
		return nil, invalid(root, "target", "no container element")
	}
	if _, ok := tgt.Store.Resolve(tgt.Container); !ok {
		return nil, invalid(root, "target", "container %s does not exist", tgt.Container)
	}
	if tgt.Diagram.Valid() {
		if _, ok := tgt.Store.Resolve(tgt.Diagram); !ok {
			return nil, invalid(root, "target", "diagram %s does not exist", tgt.Diagram)
		}
	}
	v := &Validated{root: root, tgt: tgt, asType: asType, names: map[*tree.Node]model.ID{}}
	if err := v.check(root, tgt.Expect, false); err != nil {
		return nil, err
	}

	log.Debug("tree validated", "container", tgt.Container.String(), "type", asType)
	return v, nil
}

// check validates one node and recurses. expect constrains the literal
// kind admissible at this position; asModifier marks nodes reached through
// a modifier chain, where only higher-order operators are legal.
func (v *Validated) check(n *tree.Node, expect tree.LitKind, asModifier bool) error {
	if n == nil {
		return invalid(n, "empty", "nil node in tree")
	}
	if n.Shared() {
		return invalid(n, "shared", "node is attached under two parents; build a separate tree per use")
	}
	if n.Consumed() {
		return invalid(n, "consumed", "node was already materialized and cannot be reused")
	}
	if asModifier && n.Kind() != tree.NodeOperator {
		return invalid(n, "modifier", "modifier must be a higher-order operator, got %s", n.Kind())
	}

	switch n.Kind() {
	case tree.NodeLeaf:
		_, kind := n.Lit()
		if !kind.Compatible(expect) {
			return invalid(n, "literal kind", "%s literal %q where %s expected", kind, n.Spelling(), expect)
		}

	case tree.NodeRef:
		if _, ok := v.tgt.Store.Resolve(n.RefID()); !ok {
			return invalid(n, "dangling reference", "element %s does not exist", n.RefID())
		}

	case tree.NodeName:
		id, err := v.resolveName(n.Name())
		if err != nil {
			return invalid(n, "unknown name", "%v", err)
		}
		v.names[n] = id

	case tree.NodeOperator:
		if n.OpID().Modifier() != asModifier {
			if asModifier {
				return invalid(n, "modifier", "%s is not a higher-order modifier", n.OpID())
			}
			return invalid(n, "modifier position", "%s modifies an operator or call and cannot stand alone", n.OpID())
		}
		if err := v.checkOperator(n); err != nil {
			return err
		}

	case tree.NodeCall:
		elem, ok := v.tgt.Store.Resolve(n.RefID())
		if !ok {
			return invalid(n, "dangling reference", "callee %s does not exist", n.RefID())
		}
		if elem.Kind != model.KindOperator {
			return invalid(n, "callee kind", "callee %s is a %s, not an operator", n.RefID(), elem.Kind)
		}

	case tree.NodeComposite:
		if err := v.checkComposite(n); err != nil {
			return err
		}

	default:
		return invalid(n, "node kind", "unhandled node kind %s", n.Kind())
	}

	if n.Geometry() != nil && !v.tgt.Diagram.Valid() {
		return invalid(n, "no diagram", "node carries geometry but the target names no diagram")
	}

	for i, c := range n.Children() {
		if err := v.check(c, operandExpect(n, i), false); err != nil {
			return err
		}
	}
	for _, f := range n.Fields() {
		if err := v.check(f.Child, tree.LitAny, false); err != nil {
			return err
		}
	}
	for _, m := range n.Modifiers() {
		if n.Kind() != tree.NodeOperator && n.Kind() != tree.NodeCall {
			return invalid(n, "modifier position", "%s cannot carry modifiers", n.Kind())
		}
		if err := v.check(m, tree.LitAny, true); err != nil {
			return err
		}
	}
	return nil
}

// operandExpect returns the literal kind an operator demands of the
// operand at index i, LitAny where the position is unconstrained or the
// parent is not an operator application.
func operandExpect(n *tree.Node, i int) tree.LitKind {
	if n.Kind() != tree.NodeOperator {
		return tree.LitAny
	}
	argc := len(n.Children())
	switch n.OpID() {
	case tree.OpNot, tree.OpAnd, tree.OpOr, tree.OpXor, tree.OpSharp:
		return tree.LitBool
	case tree.OpLnot, tree.OpLand, tree.OpLor, tree.OpLxor,
		tree.OpLsl, tree.OpLsr, tree.OpDiv, tree.OpMod:
		return tree.LitInt
	case tree.OpReal2Int:
		return tree.LitReal
	case tree.OpInt2Real:
		return tree.LitInt
	case tree.OpIf:
		if i == 0 {
			return tree.LitBool
		}
	case tree.OpFby:
		// Children are flows, the delay, then as many inits as flows.
		if argc%2 == 1 && i == (argc-1)/2 {
			return tree.LitInt
		}
	case tree.OpTimes:
		if i == 0 {
			return tree.LitInt
		}
	case tree.OpSlice, tree.OpTranspose:
		if i == 1 || i == 2 {
			return tree.LitInt
		}
	case tree.OpScalarToVector:
		if i == argc-1 {
			return tree.LitInt
		}
	case tree.OpMap, tree.OpMapI, tree.OpFold, tree.OpFoldI:
		return tree.LitInt
	case tree.OpMapFold, tree.OpMapFoldI:
		return tree.LitInt
	case tree.OpFoldW, tree.OpFoldWI:
		if i == 0 {
			return tree.LitInt
		}
		return tree.LitBool
	case tree.OpMapW, tree.OpMapWI:
		switch i {
		case 0:
			return tree.LitInt
		case 1:
			return tree.LitBool
		}
	case tree.OpMapFoldW, tree.OpMapFoldWI:
		switch i {
		case 0, 1:
			return tree.LitInt
		case 2:
			return tree.LitBool
		}
	case tree.OpActivate, tree.OpActivateNoInit, tree.OpRestart:
		if i == 0 {
			return tree.LitBool
		}
	}
	return tree.LitAny
}

// resolveName resolves a symbolic name: predefined types first, then the
// lexical scope around the target container, then the declared model paths.
func (v *Validated) resolveName(name string) (model.ID, error) {
	if v.tgt.Session != nil {
		if id, err := v.tgt.Session.Predefined(name); err == nil {
			return id, nil
		}
	} else if id, ok := v.tgt.Store.FindPredefined(name); ok {
		return id, nil
	}

	// Lexical scope: the nearest enclosing element with a matching named
	// child wins, so operator variables shadow model declarations.
	for scope := v.tgt.Container; scope.Valid(); {
		el, ok := v.tgt.Store.Resolve(scope)
		if !ok {
			break
		}
		for _, child := range el.Children {
			if ce, ok := v.tgt.Store.Resolve(child); ok && ce.Name() == name {
				return child, nil
			}
		}
		scope = el.Container
	}

	if v.tgt.Session != nil {
		return v.tgt.Session.Lookup(name)
	}
	return model.Nil, &session.UnknownNameError{Name: name}
}

func (v *Validated) checkOperator(n *tree.Node) error {
	op := n.OpID()
	argc := len(n.Children())
	if want := op.Arity(); want >= 0 {
		if argc != want {
			return invalid(n, "arity", "%s expects %d operands, got %d", op, want, argc)
		}
	} else if argc < op.MinArity() {
		return invalid(n, "arity", "%s expects at least %d operands, got %d", op, op.MinArity(), argc)
	}

	switch op {
	case tree.OpIf:
		if (argc-1)%2 != 0 {
			return invalid(n, "arity", "conditional needs a condition and matching then/else flows, got %d operands", argc)
		}
	case tree.OpMake, tree.OpFlatten:
		if n.FieldByName("type") == nil {
			return invalid(n, "missing field", "%s has no type", op)
		}
	case tree.OpCase:
		if (argc-1)%2 != 0 {
			return invalid(n, "arity", "case needs a selector and pattern/value pairs, got %d operands", argc)
		}
	case tree.OpBldStruct:
		if argc%2 != 0 {
			return invalid(n, "arity", "structure expression needs label/value pairs, got %d operands", argc)
		}
		seen := map[string]bool{}
		for i := 0; i < argc; i += 2 {
			label := n.Children()[i]
			_, kind := label.Lit()
			if label.Kind() != tree.NodeLeaf || kind != tree.LitIdent {
				return invalid(label, "field label", "structure label must be an identifier")
			}
			if seen[label.Spelling()] {
				return invalid(label, "duplicate field", "field %q given twice", label.Spelling())
			}
			seen[label.Spelling()] = true
		}
	case tree.OpPrj:
		for _, step := range n.Children()[1:] {
			if step.Kind() == tree.NodeLeaf {
				_, kind := step.Lit()
				if kind == tree.LitIdent || kind == tree.LitInt {
					continue
				}
			}
			if step.Kind() == tree.NodeRef {
				continue
			}
			return invalid(step, "projection path", "path element must be a field label or an integer index")
		}
	}
	return nil
}

func (v *Validated) checkComposite(n *tree.Node) error {
	switch n.Composite() {
	case tree.CompStructure:
		if len(n.Fields()) == 0 {
			return invalid(n, "empty structure", "structure type needs at least one field")
		}
		seen := map[string]bool{}
		for _, f := range n.Fields() {
			if f.Name == "" {
				return invalid(f.Child, "missing field", "structure field has no name")
			}
			if seen[f.Name] {
				return invalid(f.Child, "duplicate field", "field %q given twice", f.Name)
			}
			seen[f.Name] = true
		}

	case tree.CompTable:
		if len(n.Children()) == 0 {
			return invalid(n, "missing field", "array type needs at least one dimension")
		}
		if n.FieldByName("of") == nil {
			return invalid(n, "missing field", "array type has no element type")
		}

	case tree.CompSized:
		if n.FieldByName("constraint") == nil || n.FieldByName("size") == nil {
			return invalid(n, "missing field", "sized type needs a constraint and a size")
		}

	case tree.CompTransition:
		target := n.FieldByName("target")
		if target == nil {
			return invalid(n, "missing field", "transition has no target state")
		}
		elem, ok := v.tgt.Store.Resolve(target.RefID())
		if !ok {
			return invalid(target, "dangling reference", "target state %s does not exist", target.RefID())
		}
		if elem.Kind != model.KindState {
			return invalid(target, "target kind", "transition target %s is a %s, not a state", target.RefID(), elem.Kind)
		}

	case tree.CompFork:
		if len(n.Children()) == 0 {
			return invalid(n, "missing field", "fork needs at least one nested transition")
		}

	case tree.CompIfNode:
		for _, name := range []string{"expression", "then", "else"} {
			if n.FieldByName(name) == nil {
				return invalid(n, "missing field", "decision node has no %s", name)
			}
		}

	case tree.CompIfAction, tree.CompWhenBranch:
		// No field contract beyond construction.

	default:
		return invalid(n, "composite kind", "unhandled composite %s", n.Composite())
	}
	return nil
}
