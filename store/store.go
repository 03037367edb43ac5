package store

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowforge/model"
)

// PredefinedTypes lists the built-in type names bootstrapped into every
// store, in declaration order.
var PredefinedTypes = []string{
	"bool", "char",
	"int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64",
	"float32", "float64",
}

// NamedElement pairs a declaration path with the identity it resolves to.
type NamedElement struct {
	Path model.Path
	ID   model.ID
}

// Reader is the read-only surface of the store consumed by the session
// registry and the validator.
type Reader interface {
	// Resolve returns a clone of the element, or false if the ID is unknown.
	Resolve(id model.ID) (*model.Element, bool)
	// NamedElements enumerates every addressable declaration of the model.
	NamedElements() []NamedElement
	// FindPredefined returns the identity of a built-in type by name.
	FindPredefined(name string) (model.ID, bool)
}

// Store is the arena of one loaded model.
type Store struct {
	elements map[model.ID]*model.Element
	// order keeps creation order for deterministic enumeration.
	order []model.ID
	next  model.ID

	// presentations are kept per diagram, in creation order; presOwner
	// maps a presented element back to its diagram.
	presentations map[model.ID][]model.Presentation
	presOwner     map[model.ID]model.ID

	root        model.ID
	defaultUnit model.ID
	predefined  map[string]model.ID
	units       map[string]model.ID
}

// New creates a store holding an empty model with the given name, its
// default storage unit, and the predefined types.
func New(modelName string) *Store {
	s := &Store{
		elements:      make(map[model.ID]*model.Element),
		presentations: make(map[model.ID][]model.Presentation),
		presOwner:     make(map[model.ID]model.ID),
		predefined:    make(map[string]model.ID),
		units:         make(map[string]model.ID),
	}

	root := s.newElement(model.KindModel, model.Attrs{model.AttrName: cty.StringVal(modelName)}, model.Nil)
	s.root = root.ID

	unit, err := s.CreateUnit(modelName + ".xflow")
	if err != nil {
		panic(fmt.Sprintf("store: bootstrap unit: %v", err))
	}
	s.defaultUnit = unit

	for _, name := range PredefinedTypes {
		el := s.newElement(model.KindNamedType, model.Attrs{
			model.AttrName: cty.StringVal(name),
			"predefined":   cty.True,
		}, s.root)
		s.predefined[name] = el.ID
	}
	return s
}

// Root returns the identity of the model root element.
func (s *Store) Root() model.ID { return s.root }

// DefaultUnit returns the storage unit that holds model-level declarations
// when the caller does not name one.
func (s *Store) DefaultUnit() model.ID { return s.defaultUnit }

// Count returns the number of elements in the arena, presentation entries
// excluded.
func (s *Store) Count() int { return len(s.elements) }

// newElement allocates an element, attaches it to its container, and
// registers it in the arena. Callers have already validated the inputs.
func (s *Store) newElement(kind model.Kind, attrs model.Attrs, container model.ID) *model.Element {
	s.next++
	el := &model.Element{
		ID:        s.next,
		Kind:      kind,
		Attrs:     attrs,
		Container: container,
	}
	s.elements[el.ID] = el
	s.order = append(s.order, el.ID)
	if parent, ok := s.elements[container]; ok {
		parent.Children = append(parent.Children, el.ID)
	}
	return el
}

// CreateElement creates a single element owned by container. This is the
// atomic creation primitive; the materializer never calls it directly but
// goes through a Tx.
func (s *Store) CreateElement(kind model.Kind, attrs model.Attrs, container model.ID) (model.ID, error) {
	if kind == model.KindInvalid {
		return model.Nil, fmt.Errorf("store: cannot create element of invalid kind")
	}
	if _, ok := s.elements[container]; !ok {
		return model.Nil, fmt.Errorf("store: container %s not found", container)
	}
	return s.newElement(kind, attrs, container).ID, nil
}

// Link writes the named weak cross-reference role from id to target. Both
// endpoints must exist and a role is written at most once per element.
func (s *Store) Link(id model.ID, role string, target model.ID) error {
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("store: link source %s not found", id)
	}
	if _, ok := s.elements[target]; !ok {
		return fmt.Errorf("store: link target %s not found", target)
	}
	if role == "" {
		return fmt.Errorf("store: link role cannot be empty")
	}
	if el.Refs == nil {
		el.Refs = make(map[string]model.ID)
	}
	if _, dup := el.Refs[role]; dup {
		return fmt.Errorf("store: element %s already carries reference %q", id, role)
	}
	el.Refs[role] = target
	return nil
}

// CreatePresentation records the geometry binding an element to a diagram.
// The element must already exist; presentation entries never precede the
// element they present.
func (s *Store) CreatePresentation(id model.ID, pos model.Point, size model.Dim, diagram model.ID) error {
	if _, ok := s.elements[id]; !ok {
		return fmt.Errorf("store: presented element %s not found", id)
	}
	dg, ok := s.elements[diagram]
	if !ok {
		return fmt.Errorf("store: diagram %s not found", diagram)
	}
	if dg.Kind != model.KindNetDiagram && dg.Kind != model.KindTextDiagram {
		return fmt.Errorf("store: element %s is a %s, not a diagram", diagram, dg.Kind)
	}
	if _, dup := s.presOwner[id]; dup {
		return fmt.Errorf("store: element %s already has a presentation entry", id)
	}
	s.presentations[diagram] = append(s.presentations[diagram], model.Presentation{
		Element: id,
		Diagram: diagram,
		Pos:     pos,
		Size:    size,
	})
	s.presOwner[id] = diagram
	return nil
}

// Resolve returns a clone of the element so the arena cannot be mutated
// behind the store's back.
func (s *Store) Resolve(id model.ID) (*model.Element, bool) {
	el, ok := s.elements[id]
	if !ok {
		return nil, false
	}
	return el.Clone(), true
}

// Presentations returns the presentation entries of a diagram in creation
// order.
func (s *Store) Presentations(diagram model.ID) []model.Presentation {
	return append([]model.Presentation(nil), s.presentations[diagram]...)
}

// PresentationOf returns the presentation entry of an element, if any.
func (s *Store) PresentationOf(id model.ID) (model.Presentation, bool) {
	diagram, ok := s.presOwner[id]
	if !ok {
		return model.Presentation{}, false
	}
	for _, pe := range s.presentations[diagram] {
		if pe.Element == id {
			return pe, true
		}
	}
	return model.Presentation{}, false
}

// FindPredefined returns the identity of a built-in type.
func (s *Store) FindPredefined(name string) (model.ID, bool) {
	id, ok := s.predefined[name]
	return id, ok
}

// NamedElements walks the declaration tree once and returns every
// addressable declaration with its path. Predefined types are excluded;
// they are served by FindPredefined.
func (s *Store) NamedElements() []NamedElement {
	var out []NamedElement
	var walk func(id model.ID, prefix model.Path)
	walk = func(id model.ID, prefix model.Path) {
		el := s.elements[id]
		for _, child := range el.Children {
			c := s.elements[child]
			if !c.Kind.Declaration() {
				continue
			}
			if c.Attrs["predefined"] == cty.True {
				continue
			}
			p := prefix.Child(c.Name())
			out = append(out, NamedElement{Path: p, ID: child})
			if c.Kind == model.KindPackage {
				walk(child, p)
			}
		}
	}
	walk(s.root, model.Path{})
	return out
}

// CreateUnit adds a storage unit for the given file path, or returns the
// existing one. Units live outside the declaration tree and own files, not
// elements.
func (s *Store) CreateUnit(path string) (model.ID, error) {
	if path == "" {
		return model.Nil, fmt.Errorf("store: unit path cannot be empty")
	}
	if id, ok := s.units[path]; ok {
		return id, nil
	}
	s.next++
	el := &model.Element{
		ID:    s.next,
		Kind:  model.KindStorageUnit,
		Attrs: model.Attrs{model.AttrName: cty.StringVal(path)},
	}
	s.elements[el.ID] = el
	s.order = append(s.order, el.ID)
	s.units[path] = el.ID
	return el.ID, nil
}

// FindUnit returns the unit owning the given file path, if any.
func (s *Store) FindUnit(path string) (model.ID, bool) {
	id, ok := s.units[path]
	return id, ok
}

// AssignUnit makes a storage unit own a top-level declaration.
func (s *Store) AssignUnit(id, unit model.ID) error {
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("store: element %s not found", id)
	}
	u, ok := s.elements[unit]
	if !ok || u.Kind != model.KindStorageUnit {
		return fmt.Errorf("store: %s is not a storage unit", unit)
	}
	el.Unit = unit
	return nil
}

// UnitOf returns the storage unit owning an element, walking containers up
// to the first explicit assignment. Returns Nil for elements below no unit.
func (s *Store) UnitOf(id model.ID) model.ID {
	for id.Valid() {
		el, ok := s.elements[id]
		if !ok {
			return model.Nil
		}
		if el.Unit.Valid() {
			return el.Unit
		}
		id = el.Container
	}
	return model.Nil
}

// unitPaths returns the unit file paths in sorted order; used by Snapshot.
func (s *Store) unitPaths() []string {
	paths := make([]string, 0, len(s.units))
	for p := range s.units {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
