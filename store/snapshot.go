package store

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/flowforge/model"
)

// snapElem is the serialized form of one arena element. Fields are plain
// strings and sorted slices so the dump is stable across runs.
type snapElem struct {
	ID        int64      `yaml:"id"`
	Kind      string     `yaml:"kind"`
	Container int64      `yaml:"container,omitempty"`
	Unit      int64      `yaml:"unit,omitempty"`
	Attrs     [][2]string `yaml:"attrs,omitempty"`
	Children  []int64    `yaml:"children,omitempty"`
	Refs      [][2]string `yaml:"refs,omitempty"`
}

type snapPres struct {
	Element int64 `yaml:"element"`
	Diagram int64 `yaml:"diagram"`
	X       int   `yaml:"x"`
	Y       int   `yaml:"y"`
	W       int   `yaml:"w"`
	H       int   `yaml:"h"`
}

type snapshot struct {
	Elements      []snapElem `yaml:"elements"`
	Presentations []snapPres `yaml:"presentations,omitempty"`
	Units         []string   `yaml:"units,omitempty"`
}

// Snapshot serializes the whole arena into a deterministic YAML document.
// Two stores with the same history produce byte-identical snapshots, which
// is what the atomicity tests compare before and after a failed
// materialization.
func (s *Store) Snapshot() ([]byte, error) {
	doc := snapshot{Units: s.unitPaths()}

	for _, id := range s.order {
		el := s.elements[id]
		se := snapElem{
			ID:        int64(el.ID),
			Kind:      el.Kind.String(),
			Container: int64(el.Container),
			Unit:      int64(el.Unit),
		}
		for _, child := range el.Children {
			se.Children = append(se.Children, int64(child))
		}
		for _, k := range sortedKeys(el.Attrs) {
			se.Attrs = append(se.Attrs, [2]string{k, renderValue(el.Attrs[k])})
		}
		roles := make([]string, 0, len(el.Refs))
		for role := range el.Refs {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			se.Refs = append(se.Refs, [2]string{role, el.Refs[role].String()})
		}
		doc.Elements = append(doc.Elements, se)
	}

	diagrams := make([]model.ID, 0, len(s.presentations))
	for dg := range s.presentations {
		diagrams = append(diagrams, dg)
	}
	sort.Slice(diagrams, func(i, j int) bool { return diagrams[i] < diagrams[j] })
	for _, dg := range diagrams {
		for _, pe := range s.presentations[dg] {
			doc.Presentations = append(doc.Presentations, snapPres{
				Element: int64(pe.Element),
				Diagram: int64(pe.Diagram),
				X:       pe.Pos.X,
				Y:       pe.Pos.Y,
				W:       pe.Size.W,
				H:       pe.Size.H,
			})
		}
	}

	return yaml.Marshal(doc)
}

func sortedKeys(attrs model.Attrs) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderValue spells a cty value the way it would appear in the model
// source: bare scalars, no type decoration.
func renderValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		return v.AsBigFloat().Text('g', -1)
	}
	return fmt.Sprintf("%#v", v)
}
