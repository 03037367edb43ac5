package model

import "fmt"

// ID identifies an element within the arena of a loaded model. IDs are
// assigned by the store, strictly increasing, and never reused, which is
// what makes them safe to persist as weak cross-references.
type ID int64

// Nil is the zero ID. No element ever carries it.
const Nil ID = 0

// Valid reports whether the ID could name an element.
func (id ID) Valid() bool {
	return id > Nil
}

// String renders the ID in the form used by logs and error messages.
func (id ID) String() string {
	if id == Nil {
		return "#nil"
	}
	return fmt.Sprintf("#%d", int64(id))
}
