// Implements hit resolution: finding the element under the pointer,
// and the hover and click feedback built on it.
package hit

import (
	"log/slog"
	"strings"

	"github.com/benoitkugler/svgmap/svgnode"
	"github.com/benoitkugler/svgmap/svgpath"
	"github.com/benoitkugler/svgmap/svgraster"
	"github.com/benoitkugler/svgmap/viewport"
)

// Locator finds the topmost rendered element at a screen point.
// A presentation layer with its own hit test (such as a browser)
// provides its own implementation; TreeLocator is the geometric one.
type Locator interface {
	ElementAt(sx, sy float64) (svgnode.Ref, bool)
}

// View gives the current viewport transform,
// implemented by *viewport.Controller.
type View interface {
	Transform() viewport.Transform
}

// nonRendered are the elements whose content is never painted directly
var nonRendered = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true, "marker": true,
	"pattern": true, "linearGradient": true, "radialGradient": true,
	"title": true, "desc": true, "metadata": true,
}

// shape is a hittable element, with its outline in document coordinates
type shape struct {
	ref     svgnode.Ref
	path    svgpath.Path
	nonZero bool
}

// TreeLocator hit-tests the fill area of the shapes of a document,
// in paint order (the last shape in document order is on top).
// Transforms of the elements and their ancestors are honored.
// Lines, text and <use> references are not hittable.
type TreeLocator struct {
	view   View
	shapes []shape
	prober *svgraster.Prober
}

// inherited holds the inherited properties relevant to hit testing
type inherited struct {
	hidden   bool // visibility: hidden
	noEvents bool // pointer-events: none
}

// NewTreeLocator compiles the shapes of doc. Elements with invalid
// geometry are skipped, and reported to logger if not nil.
func NewTreeLocator(doc *svgnode.Document, view View, logger *slog.Logger) *TreeLocator {
	l := &TreeLocator{view: view, prober: svgraster.NewProber()}
	if doc != nil {
		c := collector{logger: logger}
		c.collect(doc.Nodes, nil, svgpath.Identity, inherited{})
		l.shapes = c.shapes
	}
	return l
}

// Len returns the number of hittable shapes.
func (l *TreeLocator) Len() int { return len(l.shapes) }

// ElementAt implements Locator.
func (l *TreeLocator) ElementAt(sx, sy float64) (svgnode.Ref, bool) {
	x, y := l.view.Transform().ScreenToDocument(sx, sy)
	for i := len(l.shapes) - 1; i >= 0; i-- {
		s := l.shapes[i]
		if l.prober.Contains(s.path, x, y, s.nonZero) {
			return s.ref, true
		}
	}
	return nil, false
}

type collector struct {
	logger *slog.Logger
	shapes []shape
}

func (c *collector) skip(n *svgnode.Node, err error) {
	if c.logger != nil {
		c.logger.Debug("element not hittable", "tag", n.Tag, "id", n.ID(), "error", err)
	}
}

// property returns the resolved style value, or else the presentation attribute
func property(n *svgnode.Node, name string) string {
	if v, ok := n.Style[name]; ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(n.Attributes[name])
}

func (c *collector) collect(nodes []svgnode.Node, parent svgnode.Ref, m svgpath.Matrix2D, inh inherited) {
	for i := range nodes {
		n := &nodes[i]
		if n.IsText() || nonRendered[localName(n.Tag)] || property(n, "display") == "none" {
			continue
		}
		ref := append(append(svgnode.Ref{}, parent...), i)

		cur := inh
		if v := property(n, "visibility"); v != "" && v != "inherit" {
			cur.hidden = v == "hidden" || v == "collapse"
		}
		if v := property(n, "pointerEvents"); v != "" && v != "inherit" {
			cur.noEvents = v == "none"
		}

		nm := m
		if tr := n.Attributes["transform"]; tr != "" {
			t, err := svgpath.ParseTransform(tr)
			if err != nil {
				c.skip(n, err)
				continue
			}
			nm = m.Mult(t)
		}

		path, err := svgpath.ShapeOf(n)
		if err != nil {
			c.skip(n, err)
		} else if path != nil && !cur.hidden && !cur.noEvents {
			c.shapes = append(c.shapes, shape{
				ref:     ref,
				path:    path.Transform(nm),
				nonZero: property(n, "fillRule") != "evenodd",
			})
		}
		c.collect(n.Children, ref, nm, cur)
	}
}

func localName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
