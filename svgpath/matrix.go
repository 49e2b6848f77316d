package svgpath

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/math/fixed"
)

// ErrParamMismatch is returned for path data or transform lists
// with a wrong number of parameters.
var ErrParamMismatch = errors.New("param mismatch")

// Matrix2D represents the affine transformation
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity matrix
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Transform multiplies the input vector by matrix m and outputs the results vector
// components.
func (m Matrix2D) Transform(x1, y1 float64) (x2, y2 float64) {
	x2 = x1*m.A + y1*m.C + m.E
	y2 = x1*m.B + y1*m.D + m.F
	return
}

// TFixed transforms a fixed.Point26_6 by the matrix
func (m Matrix2D) TFixed(a fixed.Point26_6) (b fixed.Point26_6) {
	x, y := m.Transform(float64(a.X)/64, float64(a.Y)/64)
	return toFixedP(x, y)
}

// Mult returns m * b, that is the transform applying b first, then m.
func (m Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: m.A*b.A + m.C*b.B,
		B: m.B*b.A + m.D*b.B,
		C: m.A*b.C + m.C*b.D,
		D: m.B*b.C + m.D*b.D,
		E: m.A*b.E + m.C*b.F + m.E,
		F: m.B*b.E + m.D*b.F + m.F}
}

// Invert returns the inverse matrix. ok is false when m is singular.
func (m Matrix2D) Invert() (inv Matrix2D, ok bool) {
	det := m.A*m.D - m.B*m.C
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix2D{}, false
	}
	return Matrix2D{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
		E: (m.C*m.F - m.D*m.E) / det,
		F: (m.B*m.E - m.A*m.F) / det}, true
}

// Scale multiplies m by a scaling matrix
func (m Matrix2D) Scale(x, y float64) Matrix2D {
	return m.Mult(Matrix2D{A: x, D: y})
}

// Translate multiplies m by a translation matrix
func (m Matrix2D) Translate(x, y float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, D: 1, E: x, F: y})
}

// Rotate multiplies m by a rotation matrix (theta in radians)
func (m Matrix2D) Rotate(theta float64) Matrix2D {
	s, c := math.Sincos(theta)
	return m.Mult(Matrix2D{A: c, B: s, C: -s, D: c})
}

// SkewX skews along the x axis (theta in radians)
func (m Matrix2D) SkewX(theta float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, C: math.Tan(theta), D: 1})
}

// SkewY skews along the y axis (theta in radians)
func (m Matrix2D) SkewY(theta float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, B: math.Tan(theta), D: 1})
}

// matrixAdder applies M to every point before adding it to path
type matrixAdder struct {
	M    Matrix2D
	path *Path
}

func (a *matrixAdder) Start(p fixed.Point26_6) { a.path.Start(a.M.TFixed(p)) }

func (a *matrixAdder) Line(b fixed.Point26_6) { a.path.Line(a.M.TFixed(b)) }

func (a *matrixAdder) QuadBezier(b, c fixed.Point26_6) {
	a.path.QuadBezier(a.M.TFixed(b), a.M.TFixed(c))
}

func (a *matrixAdder) CubeBezier(b, c, d fixed.Point26_6) {
	a.path.CubeBezier(a.M.TFixed(b), a.M.TFixed(c), a.M.TFixed(d))
}

func (a *matrixAdder) Stop(closeLoop bool) { a.path.Stop(closeLoop) }

func readTransformAttr(m1 Matrix2D, k string, points []float64) (Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, ErrParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, ErrParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, ErrParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, ErrParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, ErrParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5]})
		} else {
			return m1, ErrParamMismatch
		}
	default:
		return m1, ErrParamMismatch
	}
	return m1, nil
}

// ParseTransform parses the value of a `transform` attribute,
// such as "translate(10,20) rotate(45)". An empty string yields Identity.
func ParseTransform(v string) (Matrix2D, error) {
	m1 := Identity
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), ","))
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, ErrParamMismatch // badly formed transformation
		}
		points, err := readPoints(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// readPoints parses a list of numbers separated by commas or spaces
func readPoints(dataPoints string) ([]float64, error) {
	var points []float64
	for _, s := range splitOnCommaOrSpace(dataPoints) {
		f, err := parseFloat(s)
		if err != nil {
			return nil, err
		}
		points = append(points, f)
	}
	return points, nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}

// parseFloat accepts an optional "px" unit.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
}
