// Implements an abstract representation of
// svg shapes as paths, which can then be consumed
// by a fill driver (see svgraster) for hit testing.
package svgpath

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/math/fixed"
)

// Adder is implemented by types that accumulate path commands,
// such as Path itself or a rasterx.Filler.
type Adder interface {
	// Start starts a new curve at the given point.
	Start(a fixed.Point26_6)
	// Line adds a line segment to the path
	Line(b fixed.Point26_6)
	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)
	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)
	// Closes the path to the start point if closeLoop is true
	Stop(closeLoop bool)
}

type pathCommand uint8

// Human readable path constants
const (
	pathMoveTo pathCommand = iota
	pathLineTo
	pathQuadTo
	pathCubicTo
	pathClose
)

// Operation groups the different SVG commands
type Operation interface {
	command() pathCommand
	// points returns the control and end points of the operation
	points() []fixed.Point26_6
}

type MoveTo fixed.Point26_6

type LineTo fixed.Point26_6

type QuadTo [2]fixed.Point26_6

type CubicTo [3]fixed.Point26_6

type Close struct{}

func (MoveTo) command() pathCommand  { return pathMoveTo }
func (LineTo) command() pathCommand  { return pathLineTo }
func (QuadTo) command() pathCommand  { return pathQuadTo }
func (CubicTo) command() pathCommand { return pathCubicTo }
func (Close) command() pathCommand   { return pathClose }

func (op MoveTo) points() []fixed.Point26_6  { return []fixed.Point26_6{fixed.Point26_6(op)} }
func (op LineTo) points() []fixed.Point26_6  { return []fixed.Point26_6{fixed.Point26_6(op)} }
func (op QuadTo) points() []fixed.Point26_6  { return op[:] }
func (op CubicTo) points() []fixed.Point26_6 { return op[:] }
func (Close) points() []fixed.Point26_6      { return nil }

// Path describes a sequence of basic SVG operations.
// Higher-level shapes are reduced to a path.
type Path []Operation

func fmtPoint(p fixed.Point26_6) string {
	return fmt.Sprintf("%4.3f,%4.3f", float32(p.X)/64, float32(p.Y)/64)
}

// ToSVGPath returns a string representation of the path
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = "M" + fmtPoint(fixed.Point26_6(op))
		case LineTo:
			chunks[i] = "L" + fmtPoint(fixed.Point26_6(op))
		case QuadTo:
			chunks[i] = "Q" + fmtPoint(op[0]) + "," + fmtPoint(op[1])
		case CubicTo:
			chunks[i] = "C" + fmtPoint(op[0]) + "," + fmtPoint(op[1]) + "," + fmtPoint(op[2])
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// Start starts a new curve at the given point.
func (p *Path) Start(a fixed.Point26_6) {
	*p = append(*p, MoveTo{a.X, a.Y})
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(b fixed.Point26_6) {
	*p = append(*p, LineTo{b.X, b.Y})
}

// QuadBezier adds a quadratic segment to the current curve.
func (p *Path) QuadBezier(b, c fixed.Point26_6) {
	*p = append(*p, QuadTo{b, c})
}

// CubeBezier adds a cubic segment to the current curve.
func (p *Path) CubeBezier(b, c, d fixed.Point26_6) {
	*p = append(*p, CubicTo{b, c, d})
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}

// AddTo adds the Path p to q.
func (p Path) AddTo(q Adder) {
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			q.Stop(false) // implicit close if currently in path
			q.Start(fixed.Point26_6(op))
		case LineTo:
			q.Line(fixed.Point26_6(op))
		case QuadTo:
			q.QuadBezier(op[0], op[1])
		case CubicTo:
			q.CubeBezier(op[0], op[1], op[2])
		case Close:
			q.Stop(true)
		}
	}
	q.Stop(false)
}

// Transform returns a copy of p with every point mapped by m.
func (p Path) Transform(m Matrix2D) Path {
	out := make(Path, 0, len(p))
	p.AddTo(&matrixAdder{M: m, path: &out})
	return out
}

// Extent returns the bounding box of the control points of the path,
// which contains the path itself. ok is false for an empty path.
func (p Path) Extent() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, op := range p {
		for _, pt := range op.points() {
			x, y := float64(pt.X)/64, float64(pt.Y)/64
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			ok = true
		}
	}
	return minX, minY, maxX, maxY, ok
}
