package tree

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
)

// NodeKind is the tagged variant of a tree node.
type NodeKind int

const (
	NodeInvalid NodeKind = iota
	// NodeLeaf is a typed literal.
	NodeLeaf
	// NodeRef is an existing, already-materialized element, carried by
	// identity and never copied.
	NodeRef
	// NodeName is a predefined type name, resolved against the session
	// registry at validation time, not before.
	NodeName
	// NodeOperator is a predefined operator applied to ordered children.
	NodeOperator
	// NodeCall is a call to a user operator (the callee is a NodeRef or a
	// path resolved at validation time).
	NodeCall
	// NodeComposite maps field names to children, order-preserving.
	NodeComposite
)

var nodeKindNames = map[NodeKind]string{
	NodeInvalid:   "invalid",
	NodeLeaf:      "leaf",
	NodeRef:       "ref",
	NodeName:      "name",
	NodeOperator:  "operator",
	NodeCall:      "call",
	NodeComposite: "composite",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// CompKind distinguishes the composite shapes. Each composite kind has a
// fixed field contract enforced by the validator.
type CompKind int

const (
	CompNone CompKind = iota
	CompStructure
	CompTable
	CompSized
	CompTransition
	CompFork
	CompIfNode
	CompIfAction
	CompWhenBranch
)

var compKindNames = map[CompKind]string{
	CompNone:       "none",
	CompStructure:  "structure",
	CompTable:      "table",
	CompSized:      "sized",
	CompTransition: "transition",
	CompFork:       "fork",
	CompIfNode:     "if_node",
	CompIfAction:   "if_action",
	CompWhenBranch: "when_branch",
}

func (k CompKind) String() string {
	if name, ok := compKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Field is one named child of a composite node.
type Field struct {
	Name  string
	Child *Node
}

// Geom carries caller-supplied geometry for diagram-bound nodes. Nodes
// without a Geom get deterministic defaults from the layout package.
type Geom struct {
	Pos     model.Point
	Size    model.Dim
	HasPos  bool
	HasSize bool
}

// Node is the unlinked precursor of zero or one graph element. Nodes are
// exclusively owned by the caller until consumed by a materialization.
type Node struct {
	kind NodeKind
	comp CompKind

	// Leaf payload.
	val      cty.Value
	lk       LitKind
	spelling string

	// Ref payload.
	ref model.ID

	// Name payload, also the label of labeled expressions.
	name string

	op        Op
	children  []*Node
	fields    []Field
	instSplit int

	// modifiers chain higher-order constructs onto operator and call
	// nodes, outermost first.
	modifiers []*Node

	geom *Geom

	// parent tracks first attachment; a second attachment marks the node
	// shared so the validator can refuse the tree.
	parent *Node
	shared bool
	// consumed is set when a materialization (successful or failed) ate
	// the tree.
	consumed bool
}

// Kind returns the node's variant tag.
func (n *Node) Kind() NodeKind { return n.kind }

// Composite returns the composite shape, or CompNone.
func (n *Node) Composite() CompKind { return n.comp }

// OpID returns the operator of a NodeOperator.
func (n *Node) OpID() Op { return n.op }

// Children returns the ordered children of operator, call, and sequence
// composites. Callers must not mutate the slice.
func (n *Node) Children() []*Node { return n.children }

// Fields returns the named fields of a composite, in declaration order.
func (n *Node) Fields() []Field { return n.fields }

// FieldByName returns the named child, or nil.
func (n *Node) FieldByName(name string) *Node {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Child
		}
	}
	return nil
}

// Lit returns the literal payload and kind of a NodeLeaf.
func (n *Node) Lit() (cty.Value, LitKind) { return n.val, n.lk }

// Spelling returns the source spelling of a NodeLeaf literal.
func (n *Node) Spelling() string { return n.spelling }

// RefID returns the identity carried by a NodeRef.
func (n *Node) RefID() model.ID { return n.ref }

// Name returns the symbolic name of a NodeName, or the instance name of a
// NodeCall.
func (n *Node) Name() string { return n.name }

// Modifiers returns the higher-order constructs attached to an operator
// or call node, outermost first.
func (n *Node) Modifiers() []*Node { return n.modifiers }

// Geometry returns the caller-supplied geometry hint, or nil.
func (n *Node) Geometry() *Geom { return n.geom }

// Shared reports whether the node was attached under two parents.
func (n *Node) Shared() bool { return n.shared }

// Consumed reports whether the node was already fed to a materialization.
func (n *Node) Consumed() bool { return n.consumed }

// MarkConsumed is called by the build package when a tree reaches a
// terminal state. A consumed tree is not retryable.
func (n *Node) MarkConsumed() {
	n.consumed = true
	for _, c := range n.children {
		c.MarkConsumed()
	}
	for _, f := range n.fields {
		if f.Child != nil {
			f.Child.MarkConsumed()
		}
	}
	for _, m := range n.modifiers {
		m.MarkConsumed()
	}
}

// attach records n as a child of parent, flagging re-attachment instead of
// failing: the single-owner violation is reported by the validator, where
// the whole tree can be named.
func (n *Node) attach(parent *Node) {
	if n.parent != nil {
		n.shared = true
		return
	}
	n.parent = parent
}

func attachAll(parent *Node, nodes []*Node) {
	for _, n := range nodes {
		n.attach(parent)
	}
}
