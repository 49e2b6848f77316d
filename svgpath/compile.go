package svgpath

import (
	"fmt"
	"math"
	"strconv"
)

// number of parameters of each path command
var argCount = map[byte]int{
	'm': 2, 'l': 2, 'h': 1, 'v': 1,
	'c': 6, 's': 4, 'q': 4, 't': 2,
	'a': 7, 'z': 0,
}

func lower(key byte) byte {
	if 'A' <= key && key <= 'Z' {
		return key + 'a' - 'A'
	}
	return key
}

// pathCursor is used while compiling path data
type pathCursor struct {
	path                   Path
	placeX, placeY         float64 // current point
	cntlPtX, cntlPtY       float64 // last control point, for S and T
	pathStartX, pathStartY float64
	points                 []float64
	lastKey                byte
	inPath                 bool
}

// Compile converts the `d` attribute of a <path> element
// into a Path, with absolute coordinates.
func Compile(d string) (Path, error) {
	var c pathCursor
	sc := dataScanner{src: d}
	for {
		sc.skipSeparators()
		if sc.eof() {
			break
		}
		key := sc.src[sc.pos]
		n, ok := argCount[lower(key)]
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %q in path data", ErrParamMismatch, key)
		}
		if c.lastKey == 0 && lower(key) != 'm' {
			return nil, fmt.Errorf("%w: path data must start with a moveto", ErrParamMismatch)
		}
		sc.pos++
		if n == 0 {
			c.addSeg(key)
			continue
		}
		// parameters groups may be repeated without repeating the command
		for first := true; first || sc.atNumber(); first = false {
			c.points = c.points[:0]
			for i := 0; i < n; i++ {
				sc.skipSeparators()
				var (
					f   float64
					err error
				)
				if lower(key) == 'a' && (i == 3 || i == 4) {
					f, err = sc.flag()
				} else {
					f, err = sc.number()
				}
				if err != nil {
					return nil, err
				}
				c.points = append(c.points, f)
			}
			c.addSeg(key)
			// extra pairs after a moveto are implicit linetos
			switch key {
			case 'M':
				key = 'L'
			case 'm':
				key = 'l'
			}
			sc.skipSeparators()
		}
	}
	return c.path, nil
}

// ensureStarted begins a new sub path at the current point
// when drawing after a closepath.
func (c *pathCursor) ensureStarted() {
	if c.inPath {
		return
	}
	c.path.Start(toFixedP(c.placeX, c.placeY))
	c.pathStartX, c.pathStartY = c.placeX, c.placeY
	c.inPath = true
}

// reflectControl returns the reflection of the previous control point
// if the previous command is one of keys, or the current point.
func (c *pathCursor) reflectControl(keys string) (float64, float64) {
	for i := 0; i < len(keys); i++ {
		if lower(c.lastKey) == keys[i] {
			return 2*c.placeX - c.cntlPtX, 2*c.placeY - c.cntlPtY
		}
	}
	return c.placeX, c.placeY
}

func (c *pathCursor) addSeg(key byte) {
	var ox, oy float64
	if key >= 'a' { // relative command
		ox, oy = c.placeX, c.placeY
	}
	p := c.points
	switch lower(key) {
	case 'z':
		c.path.Stop(true)
		c.placeX, c.placeY = c.pathStartX, c.pathStartY
		c.inPath = false
	case 'm':
		c.placeX, c.placeY = p[0]+ox, p[1]+oy
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.path.Start(toFixedP(c.placeX, c.placeY))
		c.inPath = true
	case 'l':
		c.ensureStarted()
		c.placeX, c.placeY = p[0]+ox, p[1]+oy
		c.path.Line(toFixedP(c.placeX, c.placeY))
	case 'h':
		c.ensureStarted()
		c.placeX = p[0] + ox
		c.path.Line(toFixedP(c.placeX, c.placeY))
	case 'v':
		c.ensureStarted()
		c.placeY = p[0] + oy
		c.path.Line(toFixedP(c.placeX, c.placeY))
	case 'q':
		c.ensureStarted()
		c.cntlPtX, c.cntlPtY = p[0]+ox, p[1]+oy
		c.placeX, c.placeY = p[2]+ox, p[3]+oy
		c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
	case 't':
		c.ensureStarted()
		c.cntlPtX, c.cntlPtY = c.reflectControl("qt")
		c.placeX, c.placeY = p[0]+ox, p[1]+oy
		c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
	case 'c':
		c.ensureStarted()
		x1, y1 := p[0]+ox, p[1]+oy
		c.cntlPtX, c.cntlPtY = p[2]+ox, p[3]+oy
		c.placeX, c.placeY = p[4]+ox, p[5]+oy
		c.path.CubeBezier(toFixedP(x1, y1), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
	case 's':
		c.ensureStarted()
		x1, y1 := c.reflectControl("cs")
		c.cntlPtX, c.cntlPtY = p[0]+ox, p[1]+oy
		c.placeX, c.placeY = p[2]+ox, p[3]+oy
		c.path.CubeBezier(toFixedP(x1, y1), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
	case 'a':
		c.ensureStarted()
		rx, ry := math.Abs(p[0]), math.Abs(p[1])
		endX, endY := p[5]+ox, p[6]+oy
		if endX == c.placeX && endY == c.placeY {
			break // omitted
		}
		if rx == 0 || ry == 0 {
			c.path.Line(toFixedP(endX, endY))
		} else {
			cx, cy := findEllipseCenter(&rx, &ry, p[2]*math.Pi/180, c.placeX, c.placeY, endX, endY, p[4] == 0, p[3] == 0)
			c.path.addArc([]float64{rx, ry, p[2], p[3], p[4], endX, endY}, cx, cy, c.placeX, c.placeY)
		}
		c.placeX, c.placeY = endX, endY
	}
	c.lastKey = key
}

// dataScanner reads the numbers of path data, which
// may be packed without separators, as in "M1.5.5-2".
type dataScanner struct {
	src string
	pos int
}

func (sc *dataScanner) eof() bool { return sc.pos >= len(sc.src) }

func (sc *dataScanner) skipSeparators() {
	for !sc.eof() {
		switch sc.src[sc.pos] {
		case ' ', ',', '\t', '\n', '\r', '\f':
			sc.pos++
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func (sc *dataScanner) atNumber() bool {
	if sc.eof() {
		return false
	}
	b := sc.src[sc.pos]
	return isDigit(b) || b == '.' || b == '-' || b == '+'
}

func (sc *dataScanner) digits() int {
	start := sc.pos
	for !sc.eof() && isDigit(sc.src[sc.pos]) {
		sc.pos++
	}
	return sc.pos - start
}

func (sc *dataScanner) number() (float64, error) {
	start := sc.pos
	if !sc.eof() && (sc.src[sc.pos] == '-' || sc.src[sc.pos] == '+') {
		sc.pos++
	}
	n := sc.digits()
	if !sc.eof() && sc.src[sc.pos] == '.' {
		sc.pos++
		n += sc.digits()
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: expected a number at offset %d", ErrParamMismatch, start)
	}
	if !sc.eof() && (sc.src[sc.pos] == 'e' || sc.src[sc.pos] == 'E') {
		mark := sc.pos
		sc.pos++
		if !sc.eof() && (sc.src[sc.pos] == '-' || sc.src[sc.pos] == '+') {
			sc.pos++
		}
		if sc.digits() == 0 {
			sc.pos = mark // not an exponent
		}
	}
	return strconv.ParseFloat(sc.src[start:sc.pos], 64)
}

// flag reads an arc flag, a single 0 or 1
func (sc *dataScanner) flag() (float64, error) {
	if !sc.eof() {
		switch sc.src[sc.pos] {
		case '0':
			sc.pos++
			return 0, nil
		case '1':
			sc.pos++
			return 1, nil
		}
	}
	return 0, fmt.Errorf("%w: expected an arc flag at offset %d", ErrParamMismatch, sc.pos)
}
