package tree

// Op identifies a predefined operator of the dataflow language. The
// numeric values match the persisted operator codes of the model format
// and must not be renumbered.
type Op int

const (
	OpNone           Op = 1
	OpAnd            Op = 2
	OpOr             Op = 3
	OpXor            Op = 4
	OpNot            Op = 5
	OpSharp          Op = 6
	OpPlus           Op = 7
	OpSub            Op = 8
	OpNeg            Op = 9
	OpMul            Op = 10
	OpReal2Int       Op = 11
	OpInt2Real       Op = 12
	OpSlash          Op = 14
	OpDiv            Op = 15
	OpMod            Op = 16
	OpPrj            Op = 18
	OpChangeIth      Op = 19
	OpLess           Op = 20
	OpLessEq         Op = 21
	OpGreat          Op = 22
	OpGreatEq        Op = 23
	OpEqual          Op = 24
	OpNotEq          Op = 25
	OpPre            Op = 26
	OpFollow         Op = 29
	OpFby            Op = 30
	OpIf             Op = 31
	OpCase           Op = 32
	OpBldStruct      Op = 34
	OpMap            Op = 35
	OpFold           Op = 36
	OpMapFold        Op = 37
	OpMapI           Op = 38
	OpFoldI          Op = 39
	OpScalarToVector Op = 40
	OpBldVector      Op = 41
	OpPrjDyn         Op = 42
	OpMake           Op = 43
	OpFlatten        Op = 44
	OpReverse        Op = 46
	OpTranspose      Op = 47
	OpTimes          Op = 49
	OpSlice          Op = 51
	OpConcat         Op = 52
	OpActivate       Op = 53
	OpRestart        Op = 54
	OpFoldW          Op = 55
	OpFoldWI         Op = 56
	OpActivateNoInit Op = 57
	OpPos            Op = 60
	OpMapW           Op = 61
	OpMapWI          Op = 62
	OpMapFoldI       Op = 64
	OpMapFoldW       Op = 65
	OpMapFoldWI      Op = 66
	OpLand           Op = 67
	OpLor            Op = 68
	OpLxor           Op = 69
	OpLnot           Op = 70
	OpLsl            Op = 71
	OpLsr            Op = 72
)

var opNames = map[Op]string{
	OpNone:           "none",
	OpAnd:            "&",
	OpOr:             "|",
	OpXor:            "^",
	OpNot:            "!",
	OpSharp:          "#",
	OpPlus:           "+",
	OpSub:            "-",
	OpNeg:            "neg",
	OpMul:            "*",
	OpReal2Int:       "int",
	OpInt2Real:       "real",
	OpSlash:          "/",
	OpDiv:            ":",
	OpMod:            "%",
	OpPrj:            "prj",
	OpChangeIth:      "change_ith",
	OpLess:           "<",
	OpLessEq:         "<=",
	OpGreat:          ">",
	OpGreatEq:        ">=",
	OpEqual:          "=",
	OpNotEq:          "<>",
	OpPre:            "pre",
	OpFollow:         "->",
	OpFby:            "fby",
	OpIf:             "if",
	OpCase:           "case",
	OpBldStruct:      "bld_struct",
	OpMap:            "map",
	OpFold:           "fold",
	OpMapFold:        "mapfold",
	OpMapI:           "mapi",
	OpFoldI:          "foldi",
	OpScalarToVector: "scalar_to_vector",
	OpBldVector:      "bld_vector",
	OpPrjDyn:         "prj_dyn",
	OpMake:           "make",
	OpFlatten:        "flatten",
	OpReverse:        "reverse",
	OpTranspose:      "transpose",
	OpTimes:          "times",
	OpSlice:          "slice",
	OpConcat:         "concat",
	OpActivate:       "activate",
	OpRestart:        "restart",
	OpFoldW:          "foldw",
	OpFoldWI:         "foldwi",
	OpActivateNoInit: "activate_noinit",
	OpPos:            "pos",
	OpMapW:           "mapw",
	OpMapWI:          "mapwi",
	OpMapFoldI:       "mapfoldi",
	OpMapFoldW:       "mapfoldw",
	OpMapFoldWI:      "mapfoldwi",
	OpLand:           "land",
	OpLor:            "lor",
	OpLxor:           "lxor",
	OpLnot:           "lnot",
	OpLsl:            "<<",
	OpLsr:            ">>",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Spellings accepted by the unary, binary, and n-ary composition
// functions. Mirrors the operator table of the source language.
var unaryOps = map[string]Op{
	"-":    OpNeg,
	"+":    OpPos,
	"!":    OpNot,
	"int":  OpReal2Int,
	"real": OpInt2Real,
	"lnot": OpLnot,
	"pre":  OpPre,
}

var binaryOps = map[string]Op{
	"&":    OpAnd,
	"|":    OpOr,
	"^":    OpXor,
	"#":    OpSharp,
	"+":    OpPlus,
	"-":    OpSub,
	"*":    OpMul,
	"/":    OpSlash,
	":":    OpDiv,
	"%":    OpMod,
	"<":    OpLess,
	"<=":   OpLessEq,
	">":    OpGreat,
	">=":   OpGreatEq,
	"=":    OpEqual,
	"<>":   OpNotEq,
	"land": OpLand,
	"lor":  OpLor,
	"lxor": OpLxor,
	"<<":   OpLsl,
	">>":   OpLsr,
	"->":   OpFollow,
}

var naryOps = map[string]Op{
	"&": OpAnd,
	"|": OpOr,
	"^": OpXor,
	"#": OpSharp,
	"+": OpPlus,
	"*": OpMul,
}

// iteratorOps are the higher-order constructs accepted as call modifiers.
var iteratorOps = map[Op]bool{
	OpMap:            true,
	OpMapI:           true,
	OpFold:           true,
	OpFoldI:          true,
	OpMapFold:        true,
	OpMapFoldI:       true,
	OpFoldW:          true,
	OpFoldWI:         true,
	OpMapW:           true,
	OpMapWI:          true,
	OpMapFoldW:       true,
	OpMapFoldWI:      true,
	OpActivate:       true,
	OpActivateNoInit: true,
	OpRestart:        true,
}

// Modifier reports whether the operator is a higher-order construct that
// attaches to a call rather than standing as an expression of its own.
func (op Op) Modifier() bool { return iteratorOps[op] }

// Arity returns the operand count an operator requires, or -1 for
// variadic operators. The validator re-checks this on the full tree.
func (op Op) Arity() int {
	switch op {
	case OpNeg, OpPos, OpNot, OpLnot, OpReal2Int, OpInt2Real, OpPre,
		OpReverse, OpFlatten, OpRestart, OpMap, OpMapI, OpFold, OpFoldI:
		return 1
	case OpAnd, OpOr, OpXor, OpSharp, OpPlus, OpMul:
		// Also usable n-ary; 2 is the minimum.
		return -1
	case OpSub, OpSlash, OpDiv, OpMod, OpLess, OpLessEq, OpGreat, OpGreatEq,
		OpEqual, OpNotEq, OpLand, OpLor, OpLxor, OpLsl, OpLsr,
		OpTimes, OpMapFold, OpMapFoldI, OpFoldW, OpFoldWI:
		return 2
	case OpSlice, OpTranspose, OpMapW, OpMapWI:
		return 3
	case OpMapFoldW, OpMapFoldWI:
		return 4
	default:
		return -1
	}
}

// MinArity returns the smallest operand count a variadic operator accepts.
// For fixed operators it equals Arity.
func (op Op) MinArity() int {
	if a := op.Arity(); a >= 0 {
		return a
	}
	switch op {
	case OpFby, OpIf:
		// fby: flow, delay, initial value; if: condition plus branch pairs
		return 3
	case OpCase:
		// selector plus at least one label/value pair
		return 3
	case OpPrj:
		// flow plus at least one index or field label
		return 2
	case OpPrjDyn, OpChangeIth:
		// flow, at least one path element, default or replacement value
		return 3
	case OpBldStruct, OpBldVector, OpMake, OpActivate, OpActivateNoInit:
		return 1
	case OpScalarToVector:
		// at least one value plus the trailing size
		return 2
	default:
		return 2
	}
}
