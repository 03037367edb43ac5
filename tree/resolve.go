package tree

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
)

// ResolutionError reports a caller value that cannot be interpreted as an
// extended reference under the expected kind.
type ResolutionError struct {
	Context string
	Value   any
	Reason  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: cannot resolve %v: %s", e.Context, e.Value, e.Reason)
}

func resolutionErr(context string, value any, format string, args ...any) error {
	return &ResolutionError{Context: context, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// Resolve normalizes a caller-supplied value into a canonical expression
// node. Accepted shapes, exhaustively:
//
//   - *Node: a nested, unmaterialized sub-tree, passed through,
//   - model.ID: an existing element, carried by identity,
//   - bool, int, int64, float64: Go literals,
//   - string: a literal spelling interpreted under want.
//
// Resolve is pure: it never touches the store and never guesses an
// ambiguous token (the caller's expected kind decides).
func Resolve(v any, want LitKind) (*Node, error) {
	switch x := v.(type) {
	case *Node:
		if x == nil {
			return nil, resolutionErr("resolve", v, "nil sub-tree")
		}
		return x, nil
	case model.ID:
		if !x.Valid() {
			return nil, resolutionErr("resolve", v, "nil element identity")
		}
		return &Node{kind: NodeRef, ref: x}, nil
	case bool:
		if !LitBool.Compatible(want) {
			return nil, resolutionErr("resolve", v, "bool literal where %s expected", want)
		}
		if x {
			return leaf("true", LitBool, cty.True), nil
		}
		return leaf("false", LitBool, cty.False), nil
	case int:
		return resolveInt(int64(x), want)
	case int64:
		return resolveInt(x, want)
	case float64:
		if !LitReal.Compatible(want) {
			return nil, resolutionErr("resolve", v, "float literal where %s expected", want)
		}
		f := new(big.Float).SetFloat64(x)
		return leaf(f.Text('g', -1), LitReal, cty.NumberVal(f)), nil
	case string:
		n, err := parseToken(x, want)
		if err != nil {
			return nil, resolutionErr("resolve", v, "%v", err)
		}
		return n, nil
	case nil:
		return nil, resolutionErr("resolve", v, "nil value")
	default:
		return nil, resolutionErr("resolve", v, "unsupported type %T", v)
	}
}

func resolveInt(x int64, want LitKind) (*Node, error) {
	kind := LitInt
	if want == LitReal {
		kind = LitReal
	}
	if !kind.Compatible(want) {
		return nil, resolutionErr("resolve", x, "integer literal where %s expected", want)
	}
	v := cty.NumberIntVal(x)
	return leaf(v.AsBigFloat().Text('f', -1), kind, v), nil
}

// ResolveList normalizes either a single extended reference or a slice of
// them; operators that accept an arbitrary number of input flows take
// both.
func ResolveList(v any, want LitKind) ([]*Node, error) {
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return nil, resolutionErr("resolve", v, "empty tree list")
		}
		nodes := make([]*Node, 0, len(x))
		for _, item := range x {
			n, err := Resolve(item, want)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	case []*Node:
		if len(x) == 0 {
			return nil, resolutionErr("resolve", v, "empty tree list")
		}
		return x, nil
	default:
		n, err := Resolve(v, want)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	}
}

// Name returns a symbolic reference to a declared or predefined element by
// name or qualified path. The name stays symbolic until validation resolves
// it against the session registry.
func Name(name string) (*Node, error) {
	if _, err := model.ParsePath(name); err != nil {
		return nil, resolutionErr("name", name, "%v", err)
	}
	return &Node{kind: NodeName, name: name}, nil
}

// ResolveType normalizes a caller-supplied value into a canonical type
// node. Accepted shapes: *Node (a type sub-tree), model.ID (an existing
// type), or a string naming a predefined type. Predefined names stay
// symbolic until validation; ResolveType does not consult the registry.
func ResolveType(v any) (*Node, error) {
	switch x := v.(type) {
	case *Node:
		if x == nil {
			return nil, resolutionErr("resolve type", v, "nil sub-tree")
		}
		return x, nil
	case model.ID:
		if !x.Valid() {
			return nil, resolutionErr("resolve type", v, "nil element identity")
		}
		return &Node{kind: NodeRef, ref: x}, nil
	case string:
		if !isIdentSpelling(x) {
			return nil, resolutionErr("resolve type", v, "not a type name")
		}
		return &Node{kind: NodeName, name: x}, nil
	case nil:
		return nil, resolutionErr("resolve type", v, "nil value")
	default:
		return nil, resolutionErr("resolve type", v, "unsupported type %T", v)
	}
}
