package hit

import (
	"github.com/benoitkugler/svgmap/svgnode"
	"github.com/benoitkugler/svgmap/svgstyle"
)

// Painter gives access to the style rendered for the nodes,
// so that the hover highlight can be applied and then undone.
type Painter interface {
	// Style returns the style currently rendered for ref.
	Style(ref svgnode.Ref) svgstyle.StyleMap
	SetProperty(ref svgnode.Ref, property, value string)
	RemoveProperty(ref svgnode.Ref, property string)
}

// StyleLayer is a Painter keeping its modifications on top of
// a document, which is never mutated.
type StyleLayer struct {
	doc    *svgnode.Document
	styles map[string]svgstyle.StyleMap // by Ref.Key, copied on first write
}

// NewStyleLayer returns an empty layer over doc.
func NewStyleLayer(doc *svgnode.Document) *StyleLayer {
	return &StyleLayer{doc: doc, styles: map[string]svgstyle.StyleMap{}}
}

// Style implements Painter. The returned map must not be modified.
func (l *StyleLayer) Style(ref svgnode.Ref) svgstyle.StyleMap {
	if s, ok := l.styles[ref.Key()]; ok {
		return s
	}
	if n, ok := l.doc.Lookup(ref); ok {
		return n.Style
	}
	return nil
}

func (l *StyleLayer) writable(ref svgnode.Ref) svgstyle.StyleMap {
	key := ref.Key()
	s, ok := l.styles[key]
	if !ok {
		s = svgstyle.StyleMap{}
		if n, ok := l.doc.Lookup(ref); ok {
			s = n.Style.Merge(nil)
		}
		l.styles[key] = s
	}
	return s
}

// SetProperty implements Painter.
func (l *StyleLayer) SetProperty(ref svgnode.Ref, property, value string) {
	l.writable(ref)[property] = value
}

// RemoveProperty implements Painter.
func (l *StyleLayer) RemoveProperty(ref svgnode.Ref, property string) {
	delete(l.writable(ref), property)
}

// Overrides returns the styles of the nodes currently differing from
// the document, keyed by Ref.Key.
func (l *StyleLayer) Overrides() map[string]svgstyle.StyleMap {
	out := map[string]svgstyle.StyleMap{}
	l.doc.Walk(func(ref svgnode.Ref, n *svgnode.Node) bool {
		if s, ok := l.styles[ref.Key()]; ok && !sameStyle(s, n.Style) {
			out[ref.Key()] = s.Clone()
		}
		return true
	})
	return out
}

// sameStyle compares the content of the maps, nil being empty
func sameStyle(a, b svgstyle.StyleMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
