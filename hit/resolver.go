package hit

import (
	"github.com/benoitkugler/svgmap/svgnode"
	"github.com/benoitkugler/svgmap/svgstyle"
)

// DefaultHighlight is the style applied to the hovered element.
func DefaultHighlight() svgstyle.StyleMap {
	return svgstyle.StyleMap{
		"fill":        "#9ca3af",
		"stroke":      "#9ca3af",
		"cursor":      "pointer",
		"strokeWidth": "2",
		"opacity":     "0.8",
	}
}

// Tooltip is the label following the pointer over an element.
type Tooltip struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"` // screen coordinates
	Y       float64 `json:"y"`
	Content string  `json:"content"`
}

// Target identifies an element reported to an Observer.
type Target struct {
	Ref   svgnode.Ref `json:"ref"`
	ID    string      `json:"id"`
	Title string      `json:"title"`
}

// Observer is notified of hover and click events.
type Observer interface {
	// HoverChanged is called with nil when no element is hovered anymore.
	HoverChanged(target *Target)
	ElementClicked(target Target)
}

type noopObserver struct{}

func (noopObserver) HoverChanged(*Target)  {}
func (noopObserver) ElementClicked(Target) {}

// saved is the value of a property before the highlight
type saved struct {
	value   string
	present bool
}

// Resolver tracks the hovered element, applying and undoing the
// highlight style, and dispatches clicks.
// It implements pointer.Target.
type Resolver struct {
	doc       *svgnode.Document
	locator   Locator
	painter   Painter
	highlight svgstyle.StyleMap
	observer  Observer

	hovered  svgnode.Ref // nil when nothing is hovered
	snapshot map[string]saved
	tooltip  Tooltip
}

// NewResolver returns a resolver for doc. A nil highlight selects
// DefaultHighlight, a nil observer discards the events.
func NewResolver(doc *svgnode.Document, locator Locator, painter Painter, highlight svgstyle.StyleMap, observer Observer) *Resolver {
	if highlight == nil {
		highlight = DefaultHighlight()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Resolver{doc: doc, locator: locator, painter: painter, highlight: highlight, observer: observer}
}

// ResolveAt returns the topmost element at the screen point.
func (r *Resolver) ResolveAt(sx, sy float64) (svgnode.Ref, bool) {
	ref, ok := r.locator.ElementAt(sx, sy)
	if !ok {
		return nil, false
	}
	if _, ok := r.doc.Lookup(ref); !ok {
		return nil, false
	}
	return ref, true
}

// Tooltip returns the current tooltip.
func (r *Resolver) Tooltip() Tooltip { return r.tooltip }

// Hovered returns the hovered element, if any.
func (r *Resolver) Hovered() (svgnode.Ref, bool) { return r.hovered, r.hovered != nil }

func (r *Resolver) target(ref svgnode.Ref) Target {
	n, _ := r.doc.Lookup(ref)
	return Target{Ref: ref, ID: n.ID(), Title: n.Title()}
}

// Hover updates the hover state for the pointer at (sx, sy):
// the tooltip follows the pointer over the same element, and the
// highlight moves when the element changes.
func (r *Resolver) Hover(sx, sy float64) {
	ref, ok := r.ResolveAt(sx, sy)
	if !ok {
		r.exit(true)
		return
	}
	if !ref.Equal(r.hovered) {
		r.exit(false)
		r.enter(ref)
		t := r.target(ref)
		r.tooltip.Content = t.Title
		r.observer.HoverChanged(&t)
	}
	r.tooltip.Visible = true
	r.tooltip.X, r.tooltip.Y = sx, sy
}

// HideHover removes the highlight and hides the tooltip.
func (r *Resolver) HideHover() { r.exit(true) }

// Leave is called when the pointer leaves the map.
func (r *Resolver) Leave() { r.exit(true) }

// enter saves the paint style of ref then applies the highlight
func (r *Resolver) enter(ref svgnode.Ref) {
	current := r.painter.Style(ref)
	r.snapshot = make(map[string]saved, len(r.highlight))
	for property, value := range r.highlight {
		v, ok := current[property]
		r.snapshot[property] = saved{value: v, present: ok}
		r.painter.SetProperty(ref, property, value)
	}
	r.hovered = ref
}

// exit restores the style saved on enter, and hides the tooltip.
// notify is false when the exit is immediately followed by an enter.
func (r *Resolver) exit(notify bool) {
	r.tooltip = Tooltip{}
	if r.hovered == nil {
		return
	}
	for property, s := range r.snapshot {
		if s.present {
			r.painter.SetProperty(r.hovered, property, s.value)
		} else {
			r.painter.RemoveProperty(r.hovered, property)
		}
	}
	r.hovered, r.snapshot = nil, nil
	if notify {
		r.observer.HoverChanged(nil)
	}
}

// interactive returns the closest element, from ref up to the root,
// carrying an id or a data-title attribute.
func (r *Resolver) interactive(ref svgnode.Ref) (svgnode.Ref, bool) {
	for i := len(ref); i > 0; i-- {
		n, ok := r.doc.Lookup(ref[:i])
		if !ok {
			return nil, false
		}
		if n.ID() != "" || n.Attributes["data-title"] != "" {
			return append(svgnode.Ref{}, ref[:i]...), true
		}
	}
	return nil, false
}

// ClickAt dispatches a click on the interactive element at (sx, sy).
// It returns false when there is none.
func (r *Resolver) ClickAt(sx, sy float64) bool {
	ref, ok := r.ResolveAt(sx, sy)
	if !ok {
		return false
	}
	ref, ok = r.interactive(ref)
	if !ok {
		return false
	}
	r.observer.ElementClicked(r.target(ref))
	return true
}
