package tree

// Composition functions for the array and structured-value operators.

// Slice returns the sub-array of an array between two indexes, inclusive.
func Slice(array any, start any, end any) (*Node, error) {
	a, err := Resolve(array, LitAny)
	if err != nil {
		return nil, err
	}
	s, err := Resolve(start, LitInt)
	if err != nil {
		return nil, err
	}
	e, err := Resolve(end, LitInt)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: OpSlice, children: []*Node{a, s, e}}
	attachAll(n, n.children)
	return n, nil
}

// Concat returns the concatenation of two or more arrays.
func Concat(arrays ...any) (*Node, error) {
	if len(arrays) < 2 {
		return nil, resolutionErr("concat", arrays, "needs at least two arrays, got %d", len(arrays))
	}
	children := make([]*Node, 0, len(arrays))
	for _, a := range arrays {
		c, err := Resolve(a, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	n := &Node{kind: NodeOperator, op: OpConcat, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Reverse returns an array with its elements in reverse order.
func Reverse(array any) (*Node, error) {
	a, err := Resolve(array, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: OpReverse, children: []*Node{a}}
	attachAll(n, n.children)
	return n, nil
}

// Transpose returns a matrix with two of its dimensions exchanged.
func Transpose(array any, dim1 any, dim2 any) (*Node, error) {
	a, err := Resolve(array, LitAny)
	if err != nil {
		return nil, err
	}
	d1, err := Resolve(dim1, LitInt)
	if err != nil {
		return nil, err
	}
	d2, err := Resolve(dim2, LitInt)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: OpTranspose, children: []*Node{a, d1, d2}}
	attachAll(n, n.children)
	return n, nil
}

// Times returns a counted activation: true for number cycles after each
// activation of the flow.
func Times(number any, flow any) (*Node, error) {
	c, err := Resolve(number, LitInt)
	if err != nil {
		return nil, err
	}
	f, err := Resolve(flow, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: OpTimes, children: []*Node{c, f}}
	attachAll(n, n.children)
	return n, nil
}

// ProjectionDynamic returns a projection with a runtime path and a
// default value for when the path falls outside the flow. Path elements
// accept one extended reference or a list.
func ProjectionDynamic(flow any, path any, def any) (*Node, error) {
	f, err := Resolve(flow, LitAny)
	if err != nil {
		return nil, err
	}
	steps, err := ResolveList(path, LitAny)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(def, LitAny)
	if err != nil {
		return nil, err
	}
	children := append([]*Node{f}, steps...)
	children = append(children, d)
	n := &Node{kind: NodeOperator, op: OpPrjDyn, children: children}
	attachAll(n, n.children)
	return n, nil
}

// ChangeIth returns a copy of a flow with the element at the given path
// replaced by a value. Path elements accept one extended reference or a
// list.
func ChangeIth(flow any, path any, value any) (*Node, error) {
	f, err := Resolve(flow, LitAny)
	if err != nil {
		return nil, err
	}
	steps, err := ResolveList(path, LitAny)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(value, LitAny)
	if err != nil {
		return nil, err
	}
	children := append([]*Node{f}, steps...)
	children = append(children, v)
	n := &Node{kind: NodeOperator, op: OpChangeIth, children: children}
	attachAll(n, n.children)
	return n, nil
}

// Make returns a structured value of a named type built from its ordered
// component values. The type rides as the node's "type" field and
// materializes as a type reference, not a value.
func Make(typ any, values ...any) (*Node, error) {
	if len(values) == 0 {
		return nil, resolutionErr("make", typ, "needs at least one value")
	}
	t, err := ResolveType(typ)
	if err != nil {
		return nil, err
	}
	children := make([]*Node, 0, len(values))
	for _, v := range values {
		c, err := Resolve(v, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	n := &Node{kind: NodeOperator, op: OpMake, children: children}
	attachAll(n, n.children)
	t.attach(n)
	n.fields = []Field{{Name: "type", Child: t}}
	return n, nil
}

// Flatten returns the ordered component values of a structured value of a
// named type. The inverse of Make.
func Flatten(typ any, value any) (*Node, error) {
	t, err := ResolveType(typ)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(value, LitAny)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: NodeOperator, op: OpFlatten, children: []*Node{v}}
	attachAll(n, n.children)
	t.attach(n)
	n.fields = []Field{{Name: "type", Child: t}}
	return n, nil
}

// ScalarToVector returns an array built by replicating scalars. The size
// rides as the last operand, after the values.
func ScalarToVector(size any, values ...any) (*Node, error) {
	if len(values) == 0 {
		return nil, resolutionErr("scalar to vector", size, "needs at least one value")
	}
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	children := make([]*Node, 0, len(values)+1)
	for _, v := range values {
		c, err := Resolve(v, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	children = append(children, s)
	n := &Node{kind: NodeOperator, op: OpScalarToVector, children: children}
	attachAll(n, n.children)
	return n, nil
}
