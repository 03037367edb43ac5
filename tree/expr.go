package tree

import (
	"github.com/vk/flowforge/model"
)

// Composition functions for expression trees. Each enforces the local
// shape rule of its operator at construction time; the exhaustive check is
// the validator's.

// Unary returns the application of a unary operator: - | + | ! | int |
// real | lnot | pre.
func Unary(op string, operand any) (*Node, error) {
	code, ok := unaryOps[op]
	if !ok {
		return nil, resolutionErr("unary", op, "not a unary operator")
	}
	child, err := Resolve(operand, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: code, children: []*Node{child}}
	attachAll(n, n.children)
	return n, nil
}

// Binary returns the application of a binary operator.
func Binary(op string, left, right any) (*Node, error) {
	code, ok := binaryOps[op]
	if !ok {
		return nil, resolutionErr("binary", op, "not a binary operator")
	}
	l, err := Resolve(left, LitAny)
	if err != nil {
		return nil, err
	}
	r, err := Resolve(right, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: code, children: []*Node{l, r}}
	attachAll(n, n.children)
	return n, nil
}

// Nary returns the application of an associative operator to two or more
// operands.
func Nary(op string, operands ...any) (*Node, error) {
	code, ok := naryOps[op]
	if !ok {
		return nil, resolutionErr("nary", op, "not an n-ary operator")
	}
	if len(operands) < 2 {
		return nil, resolutionErr("nary", op, "needs at least two operands, got %d", len(operands))
	}
	children := make([]*Node, 0, len(operands))
	for _, operand := range operands {
		c, err := Resolve(operand, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	n := &Node{kind: NodeOperator, op: code, children: children}
	attachAll(n, n.children)
	return n, nil
}

// IfThenElse returns a conditional expression. Then and else accept either
// one extended reference or a list, for multi-flow conditionals.
func IfThenElse(cond, then, els any) (*Node, error) {
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	thens, err := ResolveList(then, LitAny)
	if err != nil {
		return nil, err
	}
	elses, err := ResolveList(els, LitAny)
	if err != nil {
		return nil, err
	}
	if len(thens) != len(elses) {
		return nil, resolutionErr("if", "then/else", "branch flow counts differ: %d vs %d", len(thens), len(elses))
	}
	children := append([]*Node{c}, append(thens, elses...)...)
	n := &Node{kind: NodeOperator, op: OpIf, children: children}
	attachAll(n, n.children)
	return n, nil
}

// CasePair is one pattern/value branch of a Case expression.
type CasePair struct {
	Pattern any
	Value   any
}

// Case returns a case expression over a selector. There must be at least
// one branch; patterns are literals or identifiers.
func Case(selector any, pairs []CasePair) (*Node, error) {
	if len(pairs) == 0 {
		return nil, resolutionErr("case", selector, "needs at least one branch")
	}
	sel, err := Resolve(selector, LitAny)
	if err != nil {
		return nil, err
	}
	children := []*Node{sel}
	for _, p := range pairs {
		pattern, err := Resolve(p.Pattern, LitAny)
		if err != nil {
			return nil, err
		}
		value, err := Resolve(p.Value, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, pattern, value)
	}
	n := &Node{kind: NodeOperator, op: OpCase, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Fby returns a delayed flow: flows followed-by inits after delay cycles.
func Fby(flows any, delay any, inits any) (*Node, error) {
	fs, err := ResolveList(flows, LitAny)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(delay, LitInt)
	if err != nil {
		return nil, err
	}
	is, err := ResolveList(inits, LitAny)
	if err != nil {
		return nil, err
	}
	if len(fs) != len(is) {
		return nil, resolutionErr("fby", "flows/inits", "flow and init counts differ: %d vs %d", len(fs), len(is))
	}
	children := append(append([]*Node{}, fs...), d)
	children = append(children, is...)
	n := &Node{kind: NodeOperator, op: OpFby, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Pre returns the previous-cycle value of a flow.
func Pre(flow any) (*Node, error) {
	return Unary("pre", flow)
}

// Init returns a flow initialized by another: init followed by flow.
func Init(flow any, init any) (*Node, error) {
	return Binary("->", init, flow)
}

// ExprField is one labeled value of a structure expression.
type ExprField struct {
	Name  string
	Value any
}

// DataStruct returns a structure expression from labeled values. Labels
// are carried as identifier leaves, the encoding used by projections.
func DataStruct(fields ...ExprField) (*Node, error) {
	if len(fields) == 0 {
		return nil, resolutionErr("data struct", fields, "needs at least one field")
	}
	children := make([]*Node, 0, 2*len(fields))
	for _, f := range fields {
		label, err := Resolve(f.Name, LitIdent)
		if err != nil {
			return nil, err
		}
		value, err := Resolve(f.Value, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, label, value)
	}
	n := &Node{kind: NodeOperator, op: OpBldStruct, children: children}
	attachAll(n, n.children)
	return n, nil
}

// DataArray returns an array expression from its elements.
func DataArray(elements ...any) (*Node, error) {
	if len(elements) == 0 {
		return nil, resolutionErr("data array", elements, "needs at least one element")
	}
	children := make([]*Node, 0, len(elements))
	for _, e := range elements {
		c, err := Resolve(e, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	n := &Node{kind: NodeOperator, op: OpBldVector, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Projection returns the projection of a flow along a path of field
// labels (strings) and array indexes (integers).
func Projection(flow any, path ...any) (*Node, error) {
	if len(path) == 0 {
		return nil, resolutionErr("projection", flow, "needs at least one path element")
	}
	f, err := Resolve(flow, LitAny)
	if err != nil {
		return nil, err
	}
	children := []*Node{f}
	for _, step := range path {
		var c *Node
		switch step.(type) {
		case string:
			c, err = Resolve(step, LitIdent)
		default:
			c, err = Resolve(step, LitInt)
		}
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	n := &Node{kind: NodeOperator, op: OpPrj, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Call returns a call to a user operator. The callee is an existing
// operator element; args and instance args accept one extended reference
// or a list each.
func Call(operator model.ID, args any, instArgs ...any) (*Node, error) {
	if !operator.Valid() {
		return nil, resolutionErr("call", operator, "nil operator identity")
	}
	var children []*Node
	if args != nil {
		nodes, err := ResolveList(args, LitAny)
		if err != nil {
			return nil, err
		}
		children = nodes
	}
	n := &Node{kind: NodeCall, ref: operator, children: children}
	// Instance args follow the regular args; instSplit records the
	// boundary so the materializer can split them again.
	n.instSplit = len(children)
	for _, a := range instArgs {
		c, err := Resolve(a, LitAny)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	attachAll(n, n.children)
	return n, nil
}

// InstArgsAt returns the index where instance arguments begin in a
// NodeCall's children.
func (n *Node) InstArgsAt() int { return n.instSplit }
