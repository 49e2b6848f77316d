package hit

import (
	"os"
	"reflect"
	"testing"

	"github.com/benoitkugler/svgmap/svgnode"
	"github.com/benoitkugler/svgmap/svgstyle"
	"github.com/benoitkugler/svgmap/viewport"
)

func loadMall(t *testing.T) *svgnode.Document {
	t.Helper()
	b, err := os.ReadFile("../svgnode/testdata/mall.svg")
	if err != nil {
		t.Fatalf("can't read test map: %s", err)
	}
	doc, err := svgnode.Parse(string(b))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func parse(t *testing.T, markup string) *svgnode.Document {
	t.Helper()
	doc, err := svgnode.Parse(markup)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTreeLocator(t *testing.T) {
	doc := loadMall(t)
	view := viewport.NewController(viewport.DefaultConfig())
	loc := NewTreeLocator(doc, view, nil)
	// 2 rects, the atrium and the circle; text and <use> are not hittable
	if loc.Len() != 4 {
		t.Fatalf("expected 4 shapes, got %d", loc.Len())
	}

	for _, tc := range []struct {
		x, y float64
		want svgnode.Ref
	}{
		{50, 50, svgnode.Ref{2, 0}},   // shop-1, translated by its group
		{5, 5, nil},                   // outside, thanks to the group translation
		{180, 50, svgnode.Ref{2, 1}},  // shop-2
		{50, 130, svgnode.Ref{2, 2}},  // atrium
		{180, 185, svgnode.Ref{2, 2}}, // atrium
		{60, 185, nil},                // in the bounding box of the atrium, outside its shape
		{310, 70, svgnode.Ref{2, 3}},  // circle
		{345, 105, nil},               // bounding box corner of the circle
		{270, 200, nil},               // <use>
	} {
		got, ok := loc.ElementAt(tc.x, tc.y)
		if ok != (tc.want != nil) || !got.Equal(tc.want) {
			t.Errorf("ElementAt(%g, %g) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}

	// the screen point is mapped through the viewport
	view.ZoomIn() // 1.2
	view.PanTo(10, -20)
	sx, sy := view.Transform().DocumentToScreen(50, 130)
	if got, _ := loc.ElementAt(sx, sy); !got.Equal(svgnode.Ref{2, 2}) {
		t.Errorf("unexpected element %v through the viewport", got)
	}
	// inside the atrium without the viewport, left of the floor with it
	if got, ok := loc.ElementAt(20, 115); ok {
		t.Errorf("unexpected element %v", got)
	}
}

func TestPaintOrderAndSkips(t *testing.T) {
	doc := parse(t, `<svg>
		<rect id="bottom" width="10" height="10"/>
		<rect id="top" x="5" width="10" height="10"/>
		<rect id="ghost" x="20" width="10" height="10" style="pointer-events:none"/>
		<rect id="under-ghost" x="20" width="5" height="5"/>
		<g style="display:none"><rect width="100" height="100"/></g>
		<g visibility="hidden"><rect id="shown" x="40" width="5" height="5" visibility="visible"/><rect x="50" width="5" height="5"/></g>
		<defs><rect id="def" width="100" height="100"/></defs>
		<path id="ring" transform="translate(100,0)" fill-rule="evenodd" d="M0 0 L10 0 L10 10 L0 10 Z M2 2 L8 2 L8 8 L2 8 Z"/>
		<line x1="0" y1="50" x2="100" y2="50" stroke="black"/>
	</svg>`)
	loc := NewTreeLocator(doc, viewport.NewController(viewport.DefaultConfig()), nil)
	id := func(x, y float64) string {
		ref, ok := loc.ElementAt(x, y)
		if !ok {
			return ""
		}
		n, _ := doc.Lookup(ref)
		return n.ID()
	}
	for _, tc := range []struct {
		x, y float64
		want string
	}{
		{2, 2, "bottom"},
		{7, 2, "top"},
		{22, 2, "under-ghost"},
		{28, 8, ""},
		{42, 2, "shown"},
		{52, 2, ""},
		{60, 60, ""},
		{101, 1, "ring"},
		{105, 5, ""},
		{50, 50, ""},
	} {
		if got := id(tc.x, tc.y); got != tc.want {
			t.Errorf("(%g, %g): got %q, want %q", tc.x, tc.y, got, tc.want)
		}
	}
}

type events struct {
	hovers []string // "" for none
	clicks []Target
}

func (e *events) HoverChanged(target *Target) {
	if target == nil {
		e.hovers = append(e.hovers, "")
		return
	}
	e.hovers = append(e.hovers, target.ID)
}

func (e *events) ElementClicked(target Target) { e.clicks = append(e.clicks, target) }

func setupResolver(t *testing.T) (*Resolver, *StyleLayer, *events, *svgnode.Document) {
	doc := loadMall(t)
	view := viewport.NewController(viewport.DefaultConfig())
	layer := NewStyleLayer(doc)
	ev := &events{}
	return NewResolver(doc, NewTreeLocator(doc, view, nil), layer, nil, ev), layer, ev, doc
}

func TestHoverRestoresStyle(t *testing.T) {
	r, layer, ev, doc := setupResolver(t)
	shop1, shop2 := svgnode.Ref{2, 0}, svgnode.Ref{2, 1}
	original1, _ := doc.Lookup(shop1)
	original2, _ := doc.Lookup(shop2)
	want1, want2 := original1.Style.Clone(), original2.Style.Clone()

	r.Hover(50, 50)
	if got := layer.Style(shop1); !reflect.DeepEqual(got, DefaultHighlight()) {
		t.Fatalf("unexpected highlighted style %v", got)
	}
	if tt := r.Tooltip(); !tt.Visible || tt.Content != "Coffee Corner" || tt.X != 50 || tt.Y != 50 {
		t.Fatalf("unexpected tooltip %+v", tt)
	}

	r.Hover(60, 55) // same element: the tooltip follows
	if tt := r.Tooltip(); tt.X != 60 || tt.Y != 55 || tt.Content != "Coffee Corner" {
		t.Fatalf("unexpected tooltip %+v", tt)
	}

	r.Hover(180, 50)
	if got := layer.Style(shop1); !reflect.DeepEqual(got, want1) {
		t.Fatalf("shop-1 not restored: got %v, want %v", got, want1)
	}
	if tt := r.Tooltip(); tt.Content != "shop-2" {
		t.Fatalf("unexpected tooltip %+v", tt)
	}

	r.Hover(5, 5)
	if got := layer.Style(shop2); !reflect.DeepEqual(got, want2) {
		t.Fatalf("shop-2 not restored: got %v, want %v", got, want2)
	}
	if r.Tooltip().Visible {
		t.Fatal("tooltip should be hidden")
	}
	if _, ok := r.Hovered(); ok {
		t.Fatal("nothing should be hovered")
	}
	if len(layer.Overrides()) != 0 {
		t.Fatalf("unexpected overrides %v", layer.Overrides())
	}
	if want := []string{"shop-1", "shop-2", ""}; !reflect.DeepEqual(ev.hovers, want) {
		t.Fatalf("got hover events %v, want %v", ev.hovers, want)
	}

	// the document itself is never modified
	if n, _ := doc.Lookup(shop1); !reflect.DeepEqual(n.Style, want1) {
		t.Fatal("document modified")
	}
}

func TestHideAndLeave(t *testing.T) {
	r, layer, ev, _ := setupResolver(t)
	r.Hover(50, 50)
	r.HideHover()
	if r.Tooltip().Visible || len(layer.Overrides()) != 0 {
		t.Fatal("hover should be hidden")
	}
	r.Leave() // nothing hovered: no event
	if want := []string{"shop-1", ""}; !reflect.DeepEqual(ev.hovers, want) {
		t.Fatalf("got hover events %v, want %v", ev.hovers, want)
	}
	r.Hover(50, 50)
	r.Leave()
	if r.Tooltip().Visible || len(layer.Overrides()) != 0 {
		t.Fatal("hover should be cleared on leave")
	}
}

func TestClick(t *testing.T) {
	r, _, ev, _ := setupResolver(t)
	if !r.ClickAt(50, 50) {
		t.Fatal("expected a click on shop-1")
	}
	// the circle has no id: the click goes to its group
	if !r.ClickAt(310, 70) {
		t.Fatal("expected a click on the circle")
	}
	if r.ClickAt(60, 185) || r.ClickAt(390, 290) {
		t.Fatal("no click outside of the shapes")
	}
	want := []Target{
		{Ref: svgnode.Ref{2, 0}, ID: "shop-1", Title: "Coffee Corner"},
		{Ref: svgnode.Ref{2}, ID: "floor", Title: "floor"},
	}
	if !reflect.DeepEqual(ev.clicks, want) {
		t.Fatalf("got clicks %+v, want %+v", ev.clicks, want)
	}
}

func TestClickWithoutID(t *testing.T) {
	doc := parse(t, `<svg><rect width="10" height="10"/></svg>`)
	r := NewResolver(doc, NewTreeLocator(doc, viewport.NewController(viewport.DefaultConfig()), nil), NewStyleLayer(doc), nil, nil)
	if _, ok := r.ResolveAt(5, 5); !ok {
		t.Fatal("the rect should be found")
	}
	if r.ClickAt(5, 5) {
		t.Fatal("an element without id is not interactive")
	}
	// hovering still works, with the tag as tooltip
	r.Hover(5, 5)
	if r.Tooltip().Content != "rect" {
		t.Fatalf("unexpected tooltip %+v", r.Tooltip())
	}
}

func TestStyleLayer(t *testing.T) {
	doc := parse(t, `<svg><rect style="fill:red"/><circle/></svg>`)
	layer := NewStyleLayer(doc)
	layer.SetProperty(svgnode.Ref{1}, "fill", "blue")
	layer.SetProperty(svgnode.Ref{0}, "fill", "green")
	if got := layer.Style(svgnode.Ref{1}); !reflect.DeepEqual(got, svgstyle.StyleMap{"fill": "blue"}) {
		t.Fatalf("unexpected style %v", got)
	}
	if doc.Nodes[0].Style["fill"] != "red" {
		t.Fatal("document modified")
	}
	layer.RemoveProperty(svgnode.Ref{1}, "fill")
	layer.SetProperty(svgnode.Ref{0}, "fill", "red")
	if o := layer.Overrides(); len(o) != 0 {
		t.Fatalf("unexpected overrides %v", o)
	}
	if layer.Style(svgnode.Ref{9}) != nil {
		t.Fatal("unknown refs have no style")
	}
}
