// Package store provides the in-memory graph store for one loaded
// dataflow model: an arena of elements addressed by monotonically
// increasing IDs, plus the creation primitives the materializer composes
// into a pseudo-transaction.
//
// # Characteristics
//
//   - One store per loaded model. The store owns the model root, the
//     predefined types, and the storage units.
//   - IDs are assigned once and never reused, which keeps persisted
//     cross-references stable across a save/reload cycle.
//   - Reads hand out clones; arena state is only mutated through
//     CreateElement, Link, CreatePresentation, and Tx.Commit.
//
// # Transactions
//
// Begin returns a Tx that stages creations and links without touching the
// arena. All structural checks happen while staging; Commit merely applies
// the staged operations and cannot fail. Discarding a Tx leaves the arena
// byte-for-byte unchanged, which is what grants the materializer its
// all-or-nothing guarantee.
//
// The store is intentionally not thread-safe: the subsystem assumes a
// single mutation stream per loaded model.
package store
