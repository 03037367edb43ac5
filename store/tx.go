package store

import (
	"fmt"

	"github.com/vk/flowforge/model"
)

// Tx stages element creations, links, and presentation entries without
// touching the arena. Every structural check runs while staging, so Commit
// is a pure apply step with no error path. A discarded Tx leaves the store
// exactly as it was, including reserved IDs: identities are never reused,
// even for elements that were staged and thrown away.
type Tx struct {
	store *Store
	done  bool

	staged map[model.ID]*model.Element
	// order preserves staging order so containment lists come out
	// deterministic at commit.
	order []model.ID
	links []stagedLink
	pres  []model.Presentation
}

type stagedLink struct {
	src    model.ID
	role   string
	target model.ID
}

// Begin opens a staging transaction against the store.
func (s *Store) Begin() *Tx {
	return &Tx{
		store:  s,
		staged: make(map[model.ID]*model.Element),
	}
}

// exists reports whether an ID names a committed or staged element.
func (tx *Tx) exists(id model.ID) bool {
	if _, ok := tx.staged[id]; ok {
		return true
	}
	_, ok := tx.store.elements[id]
	return ok
}

// lookup returns the committed or staged element for structural checks.
func (tx *Tx) lookup(id model.ID) (*model.Element, bool) {
	if el, ok := tx.staged[id]; ok {
		return el, true
	}
	el, ok := tx.store.elements[id]
	return el, ok
}

// CreateElement stages a new element owned by container. The container may
// itself be staged. The returned ID is final: it is the identity the
// element will carry once committed.
func (tx *Tx) CreateElement(kind model.Kind, attrs model.Attrs, container model.ID) (model.ID, error) {
	if tx.done {
		return model.Nil, fmt.Errorf("store: transaction already finished")
	}
	if kind == model.KindInvalid {
		return model.Nil, fmt.Errorf("store: cannot create element of invalid kind")
	}
	if !tx.exists(container) {
		return model.Nil, fmt.Errorf("store: container %s not found", container)
	}
	tx.store.next++
	el := &model.Element{
		ID:        tx.store.next,
		Kind:      kind,
		Attrs:     attrs,
		Container: container,
	}
	tx.staged[el.ID] = el
	tx.order = append(tx.order, el.ID)
	return el.ID, nil
}

// Link stages a named weak cross-reference. The source must be staged in
// this transaction: committed elements are never relinked by a
// materialization pass. The target may be staged or already committed.
func (tx *Tx) Link(id model.ID, role string, target model.ID) error {
	if tx.done {
		return fmt.Errorf("store: transaction already finished")
	}
	if _, ok := tx.staged[id]; !ok {
		return fmt.Errorf("store: link source %s is not staged in this transaction", id)
	}
	if !tx.exists(target) {
		return fmt.Errorf("store: link target %s not found", target)
	}
	if role == "" {
		return fmt.Errorf("store: link role cannot be empty")
	}
	for _, l := range tx.links {
		if l.src == id && l.role == role {
			return fmt.Errorf("store: element %s already carries reference %q", id, role)
		}
	}
	tx.links = append(tx.links, stagedLink{src: id, role: role, target: target})
	return nil
}

// CreatePresentation stages a geometry record for a staged element.
func (tx *Tx) CreatePresentation(id model.ID, pos model.Point, size model.Dim, diagram model.ID) error {
	if tx.done {
		return fmt.Errorf("store: transaction already finished")
	}
	if _, ok := tx.staged[id]; !ok {
		return fmt.Errorf("store: presented element %s is not staged in this transaction", id)
	}
	dg, ok := tx.lookup(diagram)
	if !ok {
		return fmt.Errorf("store: diagram %s not found", diagram)
	}
	if dg.Kind != model.KindNetDiagram && dg.Kind != model.KindTextDiagram {
		return fmt.Errorf("store: element %s is a %s, not a diagram", diagram, dg.Kind)
	}
	for _, pe := range tx.pres {
		if pe.Element == id {
			return fmt.Errorf("store: element %s already has a staged presentation entry", id)
		}
	}
	tx.pres = append(tx.pres, model.Presentation{Element: id, Diagram: diagram, Pos: pos, Size: size})
	return nil
}

// Commit applies every staged operation to the arena. It cannot fail: all
// structural checks were performed while staging, and the arena is only
// touched here, in one uninterrupted sweep.
func (tx *Tx) Commit() {
	if tx.done {
		return
	}
	tx.done = true

	// First pass: register elements, children before parents is irrelevant
	// here since containment is by ID.
	for _, id := range tx.order {
		el := tx.staged[id]
		tx.store.elements[id] = el
		tx.store.order = append(tx.store.order, id)
	}
	// Second pass: append each element to its container's child list in
	// staging order.
	for _, id := range tx.order {
		el := tx.staged[id]
		if parent, ok := tx.store.elements[el.Container]; ok && el.Container != model.Nil {
			parent.Children = append(parent.Children, id)
		}
	}
	// Third pass: flush the buffered links.
	for _, l := range tx.links {
		el := tx.store.elements[l.src]
		if el.Refs == nil {
			el.Refs = make(map[string]model.ID)
		}
		el.Refs[l.role] = l.target
	}
	// Last pass: presentation entries, now that every presented element
	// exists.
	for _, pe := range tx.pres {
		tx.store.presentations[pe.Diagram] = append(tx.store.presentations[pe.Diagram], pe)
		tx.store.presOwner[pe.Element] = pe.Diagram
	}
}

// Discard drops the staged operations. The arena is untouched; only the ID
// counter has advanced.
func (tx *Tx) Discard() {
	tx.done = true
	tx.staged = nil
	tx.order = nil
	tx.links = nil
	tx.pres = nil
}
