package pointer

import (
	"testing"
	"time"

	"github.com/benoitkugler/svgmap/viewport"
)

// recorder is a Target with a single interactive square [0, 10]x[0, 10]
type recorder struct {
	hovers, hides, leaves, clicks int
}

func (r *recorder) Hover(sx, sy float64) { r.hovers++ }
func (r *recorder) HideHover()           { r.hides++ }
func (r *recorder) Leave()               { r.leaves++ }

func (r *recorder) ClickAt(sx, sy float64) bool {
	if sx < 0 || sx > 10 || sy < 0 || sy > 10 {
		return false
	}
	r.clicks++
	return true
}

// panCounter counts the pan updates of a controller
type panCounter struct {
	*viewport.Controller
	pans int
}

func (p *panCounter) PanTo(x, y float64) {
	p.pans++
	p.Controller.PanTo(x, y)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setup() (*Tracker, *recorder, *panCounter, *clock) {
	rec := &recorder{}
	view := &panCounter{Controller: viewport.NewController(viewport.DefaultConfig())}
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := NewTracker(DefaultConfig(), view, rec)
	tr.SetClock(clk.now)
	return tr, rec, view, clk
}

func TestClick(t *testing.T) {
	tr, rec, view, clk := setup()
	if !tr.Down(5, 5, Primary) || tr.State() != Armed {
		t.Fatalf("unexpected state %s", tr.State())
	}
	tr.Move(7, 6) // jitter below the threshold
	clk.advance(500 * time.Millisecond)
	if out := tr.Up(7, 6); out != Click {
		t.Fatalf("expected a click, got %s", out)
	}
	if rec.clicks != 1 || view.pans != 0 {
		t.Fatalf("expected one click and no pan, got %d clicks and %d pans", rec.clicks, view.pans)
	}
	if rec.hovers != 1 || rec.hides != 0 {
		t.Fatalf("hover should be tracked while armed: %+v", rec)
	}
	if tr.State() != Idle {
		t.Fatalf("unexpected state %s", tr.State())
	}
}

func TestDrag(t *testing.T) {
	tr, rec, view, clk := setup()
	view.PanTo(100, 50)
	view.pans = 0

	tr.Down(5, 5, Primary)
	if tr.Move(8, 5) { // exactly the threshold
		t.Fatal("a 3px move should not start a drag")
	}
	if !tr.Move(9, 5) || tr.State() != Dragging {
		t.Fatalf("expected a drag, got %s", tr.State())
	}
	if rec.hides != 1 {
		t.Fatalf("hover should be hidden once, got %d", rec.hides)
	}
	tr.Move(20, -5)
	tr.Move(25, 15)
	if got := view.Transform(); got.PanX != 120 || got.PanY != 60 {
		t.Fatalf("pan should follow the pointer from the origin, got %v", got)
	}
	hovers := rec.hovers
	tr.Move(6, 6) // back near the origin, still dragging
	if rec.hovers != hovers || tr.State() != Dragging {
		t.Fatal("no hover updates while dragging")
	}

	clk.advance(10 * time.Millisecond)
	if out := tr.Up(6, 6); out != PanEnd {
		t.Fatalf("expected a pan end, got %s", out)
	}
	if rec.clicks != 0 || view.pans != 4 {
		t.Fatalf("expected no click and 4 pans, got %d and %d", rec.clicks, view.pans)
	}
}

func TestSlowPress(t *testing.T) {
	tr, rec, _, clk := setup()
	tr.Down(5, 5, Primary)
	clk.advance(501 * time.Millisecond)
	if out := tr.Up(5, 5); out != NoOutcome || rec.clicks != 0 {
		t.Fatalf("a slow press is not a click: %s", out)
	}
}

func TestClickOutside(t *testing.T) {
	tr, rec, _, _ := setup()
	tr.Down(50, 50, Primary)
	if out := tr.Up(50, 50); out != NoOutcome || rec.clicks != 0 {
		t.Fatalf("no click without target: %s", out)
	}
}

func TestOtherButtons(t *testing.T) {
	tr, rec, view, _ := setup()
	if tr.Down(5, 5, 2) || tr.State() != Idle {
		t.Fatal("secondary button should be ignored")
	}
	tr.Move(50, 50)
	if out := tr.Up(5, 5); out != NoOutcome || rec.clicks != 0 || view.pans != 0 {
		t.Fatalf("unexpected outcome %s", out)
	}
	if rec.hovers != 1 {
		t.Fatalf("idle moves update hover, got %d", rec.hovers)
	}
}

func TestLeave(t *testing.T) {
	tr, rec, view, _ := setup()
	tr.Down(5, 5, Primary)
	tr.Move(30, 30)
	tr.Leave()
	if tr.State() != Idle || rec.leaves != 1 {
		t.Fatalf("unexpected state %s", tr.State())
	}
	pan := view.Transform()
	if out := tr.Up(5, 5); out != NoOutcome || rec.clicks != 0 {
		t.Fatalf("no click after leave, got %s", out)
	}
	if view.Transform() != pan {
		t.Fatal("the pan reached before leaving is kept")
	}
}

func TestDragKeepsScale(t *testing.T) {
	tr, _, view, _ := setup()
	view.ZoomIn()
	tr.Down(0, 0, Primary)
	tr.Move(10, 0)
	if got := view.Transform(); got.PanX != 10 || got.Scale != 1.2 {
		t.Fatalf("unexpected transform %v", got)
	}
}
