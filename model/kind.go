package model

// Kind distinguishes the structural role of an element in the model graph.
type Kind int

const (
	// KindInvalid is the zero Kind and never names a real element.
	KindInvalid Kind = iota

	// Declarations.
	KindModel
	KindPackage
	KindStorageUnit
	KindNamedType
	KindEnumeration
	KindConstant
	KindSensor
	KindOperator

	// Type structure.
	KindStructure
	KindField
	KindTable
	KindSized

	// Data flow.
	KindVariable
	KindEquation
	KindEquationSet
	KindAssertion
	KindConstValue
	KindExprID
	KindExprCall
	KindExprType

	// Control flow.
	KindStateMachine
	KindState
	KindTransition
	KindIfBlock
	KindIfNode
	KindIfAction
	KindAction
	KindWhenBlock
	KindWhenBranch

	// Presentation containers.
	KindNetDiagram
	KindTextDiagram
	KindEdge
)

var kindNames = map[Kind]string{
	KindInvalid:      "invalid",
	KindModel:        "model",
	KindPackage:      "package",
	KindStorageUnit:  "storage_unit",
	KindNamedType:    "named_type",
	KindEnumeration:  "enumeration",
	KindConstant:     "constant",
	KindSensor:       "sensor",
	KindOperator:     "operator",
	KindStructure:    "structure",
	KindField:        "field",
	KindTable:        "table",
	KindSized:        "sized",
	KindVariable:     "variable",
	KindEquation:     "equation",
	KindEquationSet:  "equation_set",
	KindAssertion:    "assertion",
	KindConstValue:   "const_value",
	KindExprID:       "expr_id",
	KindExprCall:     "expr_call",
	KindExprType:     "expr_type",
	KindStateMachine: "state_machine",
	KindState:        "state",
	KindTransition:   "transition",
	KindIfBlock:      "if_block",
	KindIfNode:       "if_node",
	KindIfAction:     "if_action",
	KindAction:       "action",
	KindWhenBlock:    "when_block",
	KindWhenBranch:   "when_branch",
	KindNetDiagram:   "net_diagram",
	KindTextDiagram:  "text_diagram",
	KindEdge:         "edge",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Declaration reports whether elements of this kind are top-level
// declarations, i.e. they are owned by a storage unit and addressable by a
// model path.
func (k Kind) Declaration() bool {
	switch k {
	case KindPackage, KindNamedType, KindEnumeration, KindConstant, KindSensor, KindOperator:
		return true
	}
	return false
}
