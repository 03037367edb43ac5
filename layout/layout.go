// Package layout computes deterministic default placement for diagram
// presentations. All coordinates are in 1/100 mm, the unit of the persisted
// geometry records. The functions here are pure: same inputs, same frames,
// no randomness and no store access.
package layout

import (
	"github.com/vk/flowforge/model"
)

// Placement constants, in 1/100 mm.
const (
	// NodeW and NodeH are the default footprint of a placed node.
	NodeW = 80
	NodeH = 80

	// BranchStartX and BranchStartY anchor the first branch body of a
	// control block.
	BranchStartX = 450
	BranchStartY = 582

	// BranchGap separates stacked branch bodies vertically.
	BranchGap = 100

	// EquationGapX and EquationGapY separate gridded equations.
	EquationGapX = 300
	EquationGapY = 200

	// EquationsPerRow bounds the equation grid width.
	EquationsPerRow = 4
)

// DefaultSize returns the footprint used when a caller supplies no size.
func DefaultSize() model.Dim {
	return model.Dim{W: NodeW, H: NodeH}
}

// DefaultOrigin returns the anchor used when a caller supplies no position.
func DefaultOrigin() model.Point {
	return model.Point{X: BranchStartX, Y: BranchStartY}
}

// BranchFrames splits a block frame into n branch bodies stacked
// vertically. The frames are pairwise non-overlapping, cover the block
// width, and depend only on the inputs. n must be positive; a zero block
// falls back to the default branch anchor and footprint.
func BranchFrames(block model.Rect, n int) []model.Rect {
	if n <= 0 {
		return nil
	}
	if block.Size.W == 0 || block.Size.H == 0 {
		block = model.Rect{
			Pos:  DefaultOrigin(),
			Size: model.Dim{W: NodeW, H: n*NodeH + (n-1)*BranchGap},
		}
	}
	// Divide the height across branches, gaps between them.
	avail := block.Size.H - (n-1)*BranchGap
	if avail < n {
		avail = n
	}
	each := avail / n
	frames := make([]model.Rect, n)
	for i := range frames {
		frames[i] = model.Rect{
			Pos:  model.Point{X: block.Pos.X, Y: block.Pos.Y + i*(each+BranchGap)},
			Size: model.Dim{W: block.Size.W, H: each},
		}
	}
	return frames
}

// EquationFrame grids the ordinal-th equation of a scope inside a frame,
// row-major with EquationsPerRow columns. Ordinals start at zero.
func EquationFrame(ordinal int, within model.Rect) model.Rect {
	if ordinal < 0 {
		ordinal = 0
	}
	col := ordinal % EquationsPerRow
	row := ordinal / EquationsPerRow
	origin := within.Pos
	if within.Size.W == 0 && within.Size.H == 0 {
		origin = DefaultOrigin()
	}
	return model.Rect{
		Pos: model.Point{
			X: origin.X + col*(NodeW+EquationGapX),
			Y: origin.Y + row*(NodeH+EquationGapY),
		},
		Size: DefaultSize(),
	}
}
