package model

// Graphical coordinates are expressed in 1/100th of a millimeter, matching
// the unit used by the persisted diagram format.

// Point is a diagram position.
type Point struct {
	X int
	Y int
}

// Dim is a diagram size.
type Dim struct {
	W int
	H int
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Pos  Point
	Size Dim
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() int { return r.Pos.X + r.Size.W }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Pos.Y + r.Size.H }

// Overlaps reports whether two rectangles share any interior area. Edges
// that merely touch do not count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Pos.X < o.Right() && o.Pos.X < r.Right() &&
		r.Pos.Y < o.Bottom() && o.Pos.Y < r.Bottom()
}

// Presentation is the geometry record binding an element to its rendering
// in a diagram. It is created only after the element it presents exists.
type Presentation struct {
	// Element is a weak back-reference to the presented element.
	Element ID
	// Diagram is the owning diagram.
	Diagram ID
	Pos     Point
	Size    Dim
}
