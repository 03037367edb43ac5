package tree

import "github.com/zclconf/go-cty/cty"

// Composition functions for type trees.

// TypeField is one named field of a structure type.
type TypeField struct {
	Name string
	Type any
}

// Structure returns the type tree for a structure with the given named
// fields, in order. The field list must be non-empty; duplicate and
// missing names are the validator's to report.
func Structure(fields ...TypeField) (*Node, error) {
	if len(fields) == 0 {
		return nil, resolutionErr("structure", fields, "needs at least one field")
	}
	n := &Node{kind: NodeComposite, comp: CompStructure}
	for _, f := range fields {
		child, err := ResolveType(f.Type)
		if err != nil {
			return nil, err
		}
		child.attach(n)
		n.fields = append(n.fields, Field{Name: f.Name, Child: child})
	}
	return n, nil
}

// Table returns the type tree for a (multi-dimensional) array. Dimensions
// accept one extended reference or a list of them; each dimension is an
// integer expression.
func Table(dims any, elem any) (*Node, error) {
	dimNodes, err := ResolveList(dims, LitInt)
	if err != nil {
		return nil, err
	}
	elemNode, err := ResolveType(elem)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeComposite, comp: CompTable, children: dimNodes}
	elemNode.attach(n)
	n.fields = []Field{{Name: "of", Child: elemNode}}
	attachAll(n, dimNodes)
	return n, nil
}

// validSizes are the accepted widths of a sized integer type.
var validSizes = map[int64]bool{8: true, 16: true, 32: true, 64: true}

// Sized returns the type tree for a signed or unsigned sized integer
// type. A constant size must be one of 8, 16, 32, 64; a non-literal size
// expression is checked downstream.
func Sized(signed bool, size any) (*Node, error) {
	sz, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	if sz.kind == NodeLeaf {
		v, _ := sz.val.AsBigFloat().Int64()
		if !validSizes[v] {
			return nil, resolutionErr("sized", size, "size must be 8, 16, 32, or 64")
		}
	}
	sign := "unsigned"
	if signed {
		sign = "signed"
	}
	constraint := leaf(sign, LitIdent, cty.StringVal(sign))
	n := &Node{kind: NodeComposite, comp: CompSized}
	sz.attach(n)
	constraint.attach(n)
	n.fields = []Field{
		{Name: "constraint", Child: constraint},
		{Name: "size", Child: sz},
	}
	return n, nil
}
