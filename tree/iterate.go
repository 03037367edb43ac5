package tree

// Composition functions for higher-order modifiers. Each returns a
// modifier node; Modify attaches a chain of them to an operator
// application or a call, outermost first.

// Modify attaches higher-order modifiers to an operator or call node and
// returns it. Each modifier must come from one of the constructors in
// this file; modifiers compose in order, the first applying last.
func Modify(n *Node, mods ...*Node) (*Node, error) {
	if n == nil {
		return nil, resolutionErr("modify", n, "nil target")
	}
	if n.kind != NodeOperator && n.kind != NodeCall {
		return nil, resolutionErr("modify", n, "target must be an operator application or a call, got %s", n.kind)
	}
	if len(mods) == 0 {
		return nil, resolutionErr("modify", n, "needs at least one modifier")
	}
	for _, m := range mods {
		if m == nil {
			return nil, resolutionErr("modify", n, "nil modifier")
		}
		if m.kind != NodeOperator || !m.op.Modifier() {
			return nil, resolutionErr("modify", m, "not a higher-order modifier")
		}
		m.attach(n)
		n.modifiers = append(n.modifiers, m)
	}
	return n, nil
}

// modifier builds an iterator or activation modifier node.
func modifier(op Op, children ...*Node) *Node {
	n := &Node{kind: NodeOperator, op: op, children: children}
	attachAll(n, n.children)
	return n
}

// Map returns an iteration modifier applying the operator element-wise
// over arrays of the given size.
func Map(size any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpMap, s), nil
}

// MapI returns an indexed element-wise iteration modifier.
func MapI(size any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapI, s), nil
}

// Fold returns an accumulating iteration modifier.
func Fold(size any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpFold, s), nil
}

// FoldI returns an indexed accumulating iteration modifier.
func FoldI(size any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpFoldI, s), nil
}

// MapFold returns an iteration modifier that both maps and folds, with
// acc accumulators threaded through the iteration.
func MapFold(size any, acc any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	a, err := Resolve(acc, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapFold, s, a), nil
}

// MapFoldI returns an indexed map-and-fold iteration modifier.
func MapFoldI(size any, acc any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	a, err := Resolve(acc, LitInt)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapFoldI, s, a), nil
}

// FoldW returns a conditional fold modifier: the iteration stops when the
// operator's exit condition goes false.
func FoldW(size any, cond any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	return modifier(OpFoldW, s, c), nil
}

// FoldWI returns an indexed conditional fold modifier.
func FoldWI(size any, cond any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	return modifier(OpFoldWI, s, c), nil
}

// MapW returns a conditional map modifier: def fills the elements not
// reached before the exit condition went false.
func MapW(size any, cond any, def any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(def, LitAny)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapW, s, c, d), nil
}

// MapWI returns an indexed conditional map modifier.
func MapWI(size any, cond any, def any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(def, LitAny)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapWI, s, c, d), nil
}

// MapFoldW returns a conditional map-and-fold modifier.
func MapFoldW(size any, acc any, cond any, def any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	a, err := Resolve(acc, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(def, LitAny)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapFoldW, s, a, c, d), nil
}

// MapFoldWI returns an indexed conditional map-and-fold modifier.
func MapFoldWI(size any, acc any, cond any, def any) (*Node, error) {
	s, err := Resolve(size, LitInt)
	if err != nil {
		return nil, err
	}
	a, err := Resolve(acc, LitInt)
	if err != nil {
		return nil, err
	}
	c, err := Resolve(cond, LitBool)
	if err != nil {
		return nil, err
	}
	d, err := Resolve(def, LitAny)
	if err != nil {
		return nil, err
	}
	return modifier(OpMapFoldWI, s, a, c, d), nil
}

// Activate returns a clocked activation modifier: the operator runs on
// the cycles where every is true and its outputs hold the given initial
// values before the first activation.
func Activate(every any, inits ...any) (*Node, error) {
	e, err := Resolve(every, LitBool)
	if err != nil {
		return nil, err
	}
	children := []*Node{e}
	for _, v := range inits {
		c, err := Resolve(v, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return modifier(OpActivate, children...), nil
}

// ActivateNoInit returns a clocked activation modifier whose outputs hold
// the given default values on the cycles where every is false.
func ActivateNoInit(every any, defaults ...any) (*Node, error) {
	e, err := Resolve(every, LitBool)
	if err != nil {
		return nil, err
	}
	children := []*Node{e}
	for _, v := range defaults {
		c, err := Resolve(v, LitAny)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return modifier(OpActivateNoInit, children...), nil
}

// Restart returns a modifier that resets the operator's state on the
// cycles where every is true.
func Restart(every any) (*Node, error) {
	e, err := Resolve(every, LitBool)
	if err != nil {
		return nil, err
	}
	return modifier(OpRestart, e), nil
}
