package svgnode

import (
	"fmt"
	"strconv"
)

// featureTags are the elements listed as map features.
var featureTags = map[string]bool{
	"rect": true, "circle": true, "ellipse": true, "polygon": true, "path": true,
	"g": true, "text": true, "line": true, "polyline": true,
}

// Bounds is the position of a rectangle feature.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Feature summarizes one interactive element of a map.
type Feature struct {
	ID     string  `json:"id"`    // the id attribute, or "element-<Index>"
	Title  string  `json:"title"` // the data-title attribute, or "Feature <Index>"
	Tag    string  `json:"type"`
	Index  int     `json:"index"` // 1-based, in document order
	Ref    Ref     `json:"ref"`
	Bounds *Bounds `json:"bounds,omitempty"` // only for rect
}

// Features lists the shapes and groups of the document in document order.
func Features(doc *Document) []Feature {
	var out []Feature
	doc.Walk(func(ref Ref, n *Node) bool {
		if !featureTags[n.Tag] {
			return true
		}
		index := len(out) + 1
		f := Feature{ID: n.ID(), Title: n.Attributes["data-title"], Tag: n.Tag, Index: index, Ref: ref}
		if f.ID == "" {
			f.ID = fmt.Sprintf("element-%d", index)
		}
		if f.Title == "" {
			f.Title = fmt.Sprintf("Feature %d", index)
		}
		if n.Tag == "rect" {
			f.Bounds = &Bounds{
				X:      floatAttr(n, "x"),
				Y:      floatAttr(n, "y"),
				Width:  floatAttr(n, "width"),
				Height: floatAttr(n, "height"),
			}
		}
		out = append(out, f)
		return true
	})
	return out
}

// floatAttr returns 0 for missing or invalid values.
func floatAttr(n *Node, name string) float64 {
	f, err := strconv.ParseFloat(n.Attributes[name], 64)
	if err != nil {
		return 0
	}
	return f
}
