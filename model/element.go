// Package model defines the persisted shape of a dataflow-model graph: the
// elements, their identities, containment, cross-references, and the
// geometry records binding elements to diagrams.
//
// Elements form a strict ownership tree (every element has exactly one
// container) overlaid with named weak cross-references (identity plus
// lookup, never ownership). Both halves are mutated exclusively through the
// store package; nothing in this package performs graph mutation.
package model

import (
	"github.com/zclconf/go-cty/cty"
)

// Attrs is the attribute bag of an element: a name, a literal payload, a
// state flag. Values are cty values so that literal payloads stay typed all
// the way from tree construction to persistence.
type Attrs map[string]cty.Value

// Well-known attribute keys.
const (
	AttrName      = "name"       // cty.String
	AttrValue     = "value"      // literal spelling, cty.String
	AttrLitKind   = "lit_kind"   // literal kind tag, cty.String
	AttrInitial   = "initial"    // cty.Bool, states
	AttrFinal     = "final"      // cty.Bool, states
	AttrPriority  = "priority"   // cty.Number, transitions
	AttrSigned    = "signed"     // cty.Bool, sized types
	AttrImported  = "imported"   // cty.Bool, imported types and operators
	AttrTextual   = "textual"    // cty.Bool, textual operators and equations
	AttrOperator  = "operator"   // cty.Number, predefined operator code on expression calls
	AttrReset     = "reset"      // cty.Bool, transitions
	AttrInstSplit = "inst_split" // cty.Number, operand count before instance arguments
	AttrRole      = "role"       // cty.String, variable role: input, output, local, signal, probe
	AttrAssume    = "assume"     // cty.Bool, assertions: assumption or guarantee
)

// Element is one materialized node of the model graph.
type Element struct {
	// ID is assigned exactly once at creation and never reused.
	ID ID
	// Kind is fixed at creation.
	Kind Kind
	// Attrs holds the scalar payload of the element.
	Attrs Attrs
	// Container is the single owning parent. Only the model root has a nil
	// container.
	Container ID
	// Children is the ordered sequence of owned sub-elements.
	Children []ID
	// Refs holds the named weak cross-references, e.g. "type" on a variable
	// or "reference" on an expression identifier. Targets always exist at
	// the moment the reference is written.
	Refs map[string]ID
	// Unit is the storage unit owning the element, set for top-level
	// declarations only.
	Unit ID
}

// Name returns the name attribute, or "" when the element is anonymous.
func (e *Element) Name() string {
	v, ok := e.Attrs[AttrName]
	if !ok || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

// Ref returns the target of a named cross-reference, or Nil when unset.
func (e *Element) Ref(role string) ID {
	if e.Refs == nil {
		return Nil
	}
	return e.Refs[role]
}

// Clone returns a deep copy of the element. The store hands out clones so
// that callers can never mutate arena state behind its back.
func (e *Element) Clone() *Element {
	dup := &Element{
		ID:        e.ID,
		Kind:      e.Kind,
		Container: e.Container,
		Unit:      e.Unit,
	}
	if e.Attrs != nil {
		dup.Attrs = make(Attrs, len(e.Attrs))
		for k, v := range e.Attrs {
			dup.Attrs[k] = v
		}
	}
	if e.Children != nil {
		dup.Children = append([]ID(nil), e.Children...)
	}
	if e.Refs != nil {
		dup.Refs = make(map[string]ID, len(e.Refs))
		for k, v := range e.Refs {
			dup.Refs[k] = v
		}
	}
	return dup
}
