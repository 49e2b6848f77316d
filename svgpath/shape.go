package svgpath

import (
	"fmt"
	"strings"

	"github.com/benoitkugler/svgmap/svgnode"
)

type shapeFunc func(n *svgnode.Node) (Path, error)

// shapeFuncs lists the elements having a fill area
var shapeFuncs = map[string]shapeFunc{
	"rect":     rectF,
	"circle":   circleF,
	"ellipse":  circleF, // circleF handles ellipse also
	"polyline": polylineF,
	"polygon":  polylineF, // filled as closed either way
	"path":     pathF,
}

// localName strips a namespace prefix, as in "svg:rect"
func localName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// ShapeOf returns the outline of the fill area of n, in its own
// coordinates (its `transform` attribute is not applied).
// A nil Path is returned for elements without fill area, such as
// groups, lines, text, and shapes with a zero size.
func ShapeOf(n *svgnode.Node) (Path, error) {
	fn := shapeFuncs[localName(n.Tag)]
	if fn == nil {
		return nil, nil
	}
	path, err := fn(n)
	if err != nil {
		return nil, fmt.Errorf("invalid <%s>: %w", n.Tag, err)
	}
	return path, nil
}

// floats reads the given attributes, missing ones defaulting to 0
func floats(n *svgnode.Node, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := n.Attributes[name]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		f, err := parseFloat(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[i] = f
	}
	return out, nil
}

func rectF(n *svgnode.Node) (Path, error) {
	v, err := floats(n, "x", "y", "width", "height", "rx", "ry")
	if err != nil {
		return nil, err
	}
	x, y, w, h, rx, ry := v[0], v[1], v[2], v[3], v[4], v[5]
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	// a single radius applies to both axis
	if _, has := n.Attributes["ry"]; !has {
		ry = rx
	}
	if _, has := n.Attributes["rx"]; !has {
		rx = ry
	}
	var p Path
	p.addRoundRect(x, y, x+w, y+h, rx, ry, 0)
	return p, nil
}

func circleF(n *svgnode.Node) (Path, error) {
	v, err := floats(n, "cx", "cy", "r", "rx", "ry")
	if err != nil {
		return nil, err
	}
	cx, cy, rx, ry := v[0], v[1], v[3], v[4]
	if localName(n.Tag) == "circle" {
		rx, ry = v[2], v[2]
	}
	if rx <= 0 || ry <= 0 { // not drawn, but not an error
		return nil, nil
	}
	var p Path
	p.addEllipse(cx, cy, rx, ry)
	return p, nil
}

func polylineF(n *svgnode.Node) (Path, error) {
	points, err := readPoints(n.Attributes["points"])
	if err != nil {
		return nil, err
	}
	if len(points)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates", ErrParamMismatch)
	}
	if len(points) < 6 {
		return nil, nil
	}
	var p Path
	p.Start(toFixedP(points[0], points[1]))
	for i := 2; i < len(points)-1; i += 2 {
		p.Line(toFixedP(points[i], points[i+1]))
	}
	p.Stop(true)
	return p, nil
}

func pathF(n *svgnode.Node) (Path, error) {
	return Compile(n.Attributes["d"])
}
