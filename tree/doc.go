// Package tree builds the unlinked, in-memory precursors of graph
// elements: expression trees, type trees, transition trees, and
// control-block branch trees.
//
// Trees are assembled bottom-up through composition functions (Binary,
// Structure, TransitionTo, ...) that accept extended references: a
// sub-tree, the ID of an existing element, a Go literal, or a predefined
// type name, interchangeably. Resolve and ResolveType normalize those
// loose inputs into canonical nodes; the set of accepted shapes is closed.
//
// Nothing in this package touches the graph store. Construction enforces
// only cheap local shape rules (exact arity for fixed operators, non-empty
// field lists); the exhaustive check is the build package's validator.
// A tree is owned by its caller until passed to the materializer, which
// consumes it: nodes must not appear under two parents and a tree must not
// be materialized twice. Violations are reported by the validator rather
// than silently duplicated.
package tree
