// Package build turns finished trees into graph elements. The pipeline has
// exactly two passes over a tree:
//
//  1. Validate walks the whole tree pre-order without touching the store,
//     checking arity, field contracts, literal fit, reference resolution,
//     and the single-owner discipline. It fails fast with a single
//     ValidationError naming the offending node and the broken rule.
//  2. Materialize walks the validated tree post-order, staging every
//     element on one store transaction so children exist before anything
//     references them. Commit is the final step and cannot fail; any
//     staging error discards the transaction and the store is left exactly
//     as it was.
//
// A tree fed to Materialize is consumed whether the pass succeeds or fails.
// Retrying requires building a fresh tree: the failed one may hold
// references that were only valid against the discarded staging state.
package build
