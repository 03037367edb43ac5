package tree

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseText parses a textual expression into an expression tree. The
// grammar is HCL's expression syntax: literals, names, arithmetic and
// comparison operators, conditionals, `[...]` arrays, `{...}` structures,
// projections (`point.x`, `row[2]`), and calls to the named predefined
// operators (`pre(x)`, `fby(x, 1, 0)`).
//
// Names stay symbolic; they are resolved against the session registry at
// validation time like any other extended reference.
func ParseText(src string) (*Node, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expr", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, resolutionErr("parse", src, "%v", diags.Error())
	}
	return foldExpr(expr)
}

// foldExpr folds one HCL AST node into a tree node.
func foldExpr(expr hclsyntax.Expression) (*Node, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return foldLiteral(e.Val)

	case *hclsyntax.TemplateExpr:
		// Quoted strings parse as single-part templates.
		if len(e.Parts) == 1 {
			if lit, ok := e.Parts[0].(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
				return parseToken(lit.Val.AsString(), LitAny)
			}
		}
		return nil, resolutionErr("parse", "template", "string interpolation is not an expression")

	case *hclsyntax.ScopeTraversalExpr:
		return foldTraversal(e.Traversal)

	case *hclsyntax.ParenthesesExpr:
		return foldExpr(e.Expression)

	case *hclsyntax.UnaryOpExpr:
		operand, err := foldExpr(e.Val)
		if err != nil {
			return nil, err
		}
		var op Op
		switch e.Op {
		case hclsyntax.OpNegate:
			op = OpNeg
		case hclsyntax.OpLogicalNot:
			op = OpNot
		default:
			return nil, resolutionErr("parse", "unary", "unsupported unary operator")
		}
		n := &Node{kind: NodeOperator, op: op, children: []*Node{operand}}
		attachAll(n, n.children)
		return n, nil

	case *hclsyntax.BinaryOpExpr:
		return foldBinary(e)

	case *hclsyntax.ConditionalExpr:
		cond, err := foldExpr(e.Condition)
		if err != nil {
			return nil, err
		}
		t, err := foldExpr(e.TrueResult)
		if err != nil {
			return nil, err
		}
		f, err := foldExpr(e.FalseResult)
		if err != nil {
			return nil, err
		}
		n := &Node{kind: NodeOperator, op: OpIf, children: []*Node{cond, t, f}}
		attachAll(n, n.children)
		return n, nil

	case *hclsyntax.FunctionCallExpr:
		return foldCall(e)

	case *hclsyntax.TupleConsExpr:
		elems := make([]any, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			c, err := foldExpr(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, c)
		}
		return DataArray(elems...)

	case *hclsyntax.ObjectConsExpr:
		fields := make([]ExprField, 0, len(e.Items))
		for _, item := range e.Items {
			name, err := objectKey(item.KeyExpr)
			if err != nil {
				return nil, err
			}
			value, err := foldExpr(item.ValueExpr)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ExprField{Name: name, Value: value})
		}
		return DataStruct(fields...)

	case *hclsyntax.IndexExpr:
		coll, err := foldExpr(e.Collection)
		if err != nil {
			return nil, err
		}
		key, err := foldExpr(e.Key)
		if err != nil {
			return nil, err
		}
		n := &Node{kind: NodeOperator, op: OpPrj, children: []*Node{coll, key}}
		attachAll(n, n.children)
		return n, nil

	case *hclsyntax.RelativeTraversalExpr:
		base, err := foldExpr(e.Source)
		if err != nil {
			return nil, err
		}
		return foldProjection(base, e.Traversal)

	default:
		return nil, resolutionErr("parse", fmt.Sprintf("%T", expr), "unsupported expression form")
	}
}

func foldLiteral(v cty.Value) (*Node, error) {
	switch v.Type() {
	case cty.Bool:
		if v.True() {
			return leaf("true", LitBool, cty.True), nil
		}
		return leaf("false", LitBool, cty.False), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return leaf(bf.Text('f', -1), LitInt, v), nil
		}
		return leaf(bf.Text('g', -1), LitReal, v), nil
	case cty.String:
		return parseToken(v.AsString(), LitAny)
	}
	return nil, resolutionErr("parse", v.Type().FriendlyName(), "unsupported literal type")
}

// foldTraversal maps a name, or a dotted projection rooted at a name,
// into the tree.
func foldTraversal(tr hcl.Traversal) (*Node, error) {
	root := &Node{kind: NodeName, name: tr.RootName()}
	if len(tr) == 1 {
		return root, nil
	}
	return foldProjection(root, tr[1:])
}

func foldProjection(base *Node, steps hcl.Traversal) (*Node, error) {
	children := []*Node{base}
	for _, step := range steps {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			children = append(children, leaf(s.Name, LitIdent, cty.StringVal(s.Name)))
		case hcl.TraverseIndex:
			if s.Key.Type() != cty.Number {
				return nil, resolutionErr("parse", "index", "array index must be an integer")
			}
			idx, _ := s.Key.AsBigFloat().Int64()
			children = append(children, leaf(fmt.Sprintf("%d", idx), LitInt, cty.NumberIntVal(idx)))
		default:
			return nil, resolutionErr("parse", "traversal", "unsupported projection step")
		}
	}
	n := &Node{kind: NodeOperator, op: OpPrj, children: children}
	attachAll(n, n.children)
	return n, nil
}

var hclBinaryOps = map[*hclsyntax.Operation]Op{
	hclsyntax.OpAdd:                OpPlus,
	hclsyntax.OpSubtract:           OpSub,
	hclsyntax.OpMultiply:           OpMul,
	hclsyntax.OpDivide:             OpSlash,
	hclsyntax.OpModulo:             OpMod,
	hclsyntax.OpEqual:              OpEqual,
	hclsyntax.OpNotEqual:           OpNotEq,
	hclsyntax.OpLessThan:           OpLess,
	hclsyntax.OpLessThanOrEqual:    OpLessEq,
	hclsyntax.OpGreaterThan:        OpGreat,
	hclsyntax.OpGreaterThanOrEqual: OpGreatEq,
	hclsyntax.OpLogicalAnd:         OpAnd,
	hclsyntax.OpLogicalOr:          OpOr,
}

func foldBinary(e *hclsyntax.BinaryOpExpr) (*Node, error) {
	op, ok := hclBinaryOps[e.Op]
	if !ok {
		return nil, resolutionErr("parse", "binary", "unsupported binary operator")
	}
	l, err := foldExpr(e.LHS)
	if err != nil {
		return nil, err
	}
	r, err := foldExpr(e.RHS)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: op, children: []*Node{l, r}}
	attachAll(n, n.children)
	return n, nil
}

// callOps are the predefined operators reachable by name from text.
var callOps = map[string]Op{
	"pre":  OpPre,
	"fby":  OpFby,
	"int":  OpReal2Int,
	"real": OpInt2Real,
	"land": OpLand,
	"lor":  OpLor,
	"lxor": OpLxor,
	"lnot": OpLnot,
}

func foldCall(e *hclsyntax.FunctionCallExpr) (*Node, error) {
	op, ok := callOps[e.Name]
	if !ok {
		return nil, resolutionErr("parse", e.Name, "unknown operator")
	}
	children := make([]*Node, 0, len(e.Args))
	for _, arg := range e.Args {
		c, err := foldExpr(arg)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	if want := op.Arity(); want >= 0 && len(children) != want {
		return nil, resolutionErr("parse", e.Name, "expects %d operands, got %d", want, len(children))
	}
	if len(children) < op.MinArity() {
		return nil, resolutionErr("parse", e.Name, "expects at least %d operands, got %d", op.MinArity(), len(children))
	}
	n := &Node{kind: NodeOperator, op: op, children: children}
	attachAll(n, n.children)
	return n, nil
}

func objectKey(keyExpr hclsyntax.Expression) (string, error) {
	if wrapped, ok := keyExpr.(*hclsyntax.ObjectConsKeyExpr); ok {
		switch k := wrapped.Wrapped.(type) {
		case *hclsyntax.ScopeTraversalExpr:
			if len(k.Traversal) == 1 {
				return k.Traversal.RootName(), nil
			}
		case *hclsyntax.TemplateExpr:
			if len(k.Parts) == 1 {
				if lit, ok := k.Parts[0].(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
					return lit.Val.AsString(), nil
				}
			}
		}
	}
	return "", resolutionErr("parse", "object key", "field names must be simple identifiers")
}
