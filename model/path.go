package model

import (
	"fmt"
	"regexp"
	"strings"
)

// A Path names a top-level declaration by its position in the package
// tree, e.g. `Lib::Geometry::Point`. Paths are the keys of the session
// registry and the addressing scheme used by batch scripts; elements
// themselves are always referenced by ID once resolved.

// PathSep separates the segments of a canonical path.
const PathSep = "::"

// segmentRegex validates a single path segment: an identifier as accepted
// by the persisted model format.
var segmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Path is the structured representation of a declaration path.
type Path struct {
	Segments []string
}

// ParsePath creates a Path from its canonical string representation.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}
	var p Path
	for _, seg := range strings.Split(raw, PathSep) {
		if !segmentRegex.MatchString(seg) {
			return Path{}, fmt.Errorf("invalid path segment %q in %q", seg, raw)
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

// MustParsePath is ParsePath for paths known valid at compile time.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Child returns a new path extended by one segment.
func (p Path) Child(name string) Path {
	segs := make([]string, 0, len(p.Segments)+1)
	segs = append(segs, p.Segments...)
	return Path{Segments: append(segs, name)}
}

// Leaf returns the last segment, the declaration's own name.
func (p Path) Leaf() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// String serializes the path into its canonical representation.
func (p Path) String() string {
	return strings.Join(p.Segments, PathSep)
}

// Equal checks two paths segment by segment.
func (p Path) Equal(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i, seg := range p.Segments {
		if other.Segments[i] != seg {
			return false
		}
	}
	return true
}
