package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		kind NodeKind
		op   Op
	}{
		{name: "integer literal", src: "42", kind: NodeLeaf},
		{name: "real literal", src: "2.5", kind: NodeLeaf},
		{name: "bool literal", src: "true", kind: NodeLeaf},
		{name: "name", src: "speed", kind: NodeName},
		{name: "negation", src: "-speed", kind: NodeOperator, op: OpNeg},
		{name: "sum", src: "a + b", kind: NodeOperator, op: OpPlus},
		{name: "comparison", src: "a <= b", kind: NodeOperator, op: OpLessEq},
		{name: "logical and", src: "a && b", kind: NodeOperator, op: OpAnd},
		{name: "conditional", src: "c ? 1 : 2", kind: NodeOperator, op: OpIf},
		{name: "parentheses", src: "(a + b) * c", kind: NodeOperator, op: OpMul},
		{name: "field projection", src: "point.x", kind: NodeOperator, op: OpPrj},
		{name: "index projection", src: "row[2]", kind: NodeOperator, op: OpPrj},
		{name: "array", src: "[1, 2, 3]", kind: NodeOperator, op: OpBldVector},
		{name: "structure", src: "{x = 1, y = 2}", kind: NodeOperator, op: OpBldStruct},
		{name: "pre call", src: "pre(speed)", kind: NodeOperator, op: OpPre},
		{name: "fby call", src: "fby(speed, 1, 0)", kind: NodeOperator, op: OpFby},
		{name: "cast", src: "real(n)", kind: NodeOperator, op: OpInt2Real},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := ParseText(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, n.Kind())
			if tc.kind == NodeOperator {
				assert.Equal(t, tc.op, n.OpID())
			}
		})
	}
}

func TestParseText_Shapes(t *testing.T) {
	t.Run("projection path keeps order", func(t *testing.T) {
		n, err := ParseText("pose.position[1]")
		require.NoError(t, err)
		require.Len(t, n.Children(), 3)
		assert.Equal(t, NodeName, n.Children()[0].Kind())
		assert.Equal(t, "position", n.Children()[1].Spelling())
		_, kind := n.Children()[2].Lit()
		assert.Equal(t, LitInt, kind)
	})

	t.Run("structure labels become ident leaves", func(t *testing.T) {
		n, err := ParseText("{x = a, y = b}")
		require.NoError(t, err)
		require.Len(t, n.Children(), 4)
		assert.Equal(t, "x", n.Children()[0].Spelling())
		assert.Equal(t, NodeName, n.Children()[1].Kind())
	})

	t.Run("fby arity checked", func(t *testing.T) {
		_, err := ParseText("fby(speed, 1)")
		require.Error(t, err)
	})

	t.Run("unknown function rejected", func(t *testing.T) {
		_, err := ParseText("sqrt(x)")
		require.Error(t, err)
	})

	t.Run("syntax error reported", func(t *testing.T) {
		_, err := ParseText("a + ")
		require.Error(t, err)
		var rerr *ResolutionError
		assert.ErrorAs(t, err, &rerr)
	})
}
