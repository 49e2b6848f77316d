// Implements the pointer session state machine, which tells
// clicks apart from drags.
//
// A session starts on a primary button press. It turns into a drag
// once the pointer moves further than a distance threshold from where
// it was pressed; the release of a session that never dragged is a
// click if it happens soon enough and over an interactive element.
// While dragging, hover feedback is hidden and the pan offset is
// recomputed from the session origin on every move.
package pointer

import (
	"fmt"
	"math"
	"time"

	"github.com/benoitkugler/svgmap/viewport"
)

// State is the state of a Tracker.
type State uint8

const (
	Idle State = iota
	// Armed is a pressed pointer which has not moved beyond the drag threshold.
	Armed
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("<state %d>", s)
	}
}

// Button identifies a pointer button, with the DOM numbering.
type Button int

// Primary is the main (usually left) button.
const Primary Button = 0

// Outcome classifies the release of a session.
type Outcome uint8

const (
	// NoOutcome is returned for a release without active session,
	// or a slow press, or a press outside of any interactive element.
	NoOutcome Outcome = iota
	Click
	PanEnd
)

func (o Outcome) String() string {
	switch o {
	case Click:
		return "click"
	case PanEnd:
		return "pan end"
	default:
		return "none"
	}
}

// Config holds the click/drag thresholds.
type Config struct {
	// DragThreshold is the distance, in screen pixels, the pointer must
	// exceed to start a drag.
	DragThreshold float64 `yaml:"drag_threshold"`
	// ClickDuration is the longest press still classified as a click.
	ClickDuration time.Duration `yaml:"click_duration"`
}

// DefaultConfig returns a 3px threshold and a 500ms click duration.
func DefaultConfig() Config {
	return Config{DragThreshold: 3, ClickDuration: 500 * time.Millisecond}
}

// Viewport is the pan state driven by drags,
// implemented by *viewport.Controller.
type Viewport interface {
	Transform() viewport.Transform
	PanTo(panX, panY float64)
}

// Target provides the hover and click feedback.
type Target interface {
	// Hover updates the hover state for the pointer at (sx, sy).
	Hover(sx, sy float64)
	// HideHover hides any hover feedback, when a drag starts.
	HideHover()
	// Leave is called when the pointer leaves the map.
	Leave()
	// ClickAt dispatches a click at (sx, sy). It returns false
	// if no interactive element is found there.
	ClickAt(sx, sy float64) bool
}

// Session is the state of one press, from pointer down to up.
type Session struct {
	Active                 bool
	OriginX, OriginY       float64
	OriginPanX, OriginPanY float64
	Dragged                bool // the drag threshold has been crossed
	Down                   time.Time
}

// Tracker runs the state machine. It is meant to be fed events
// from a single goroutine.
type Tracker struct {
	cfg     Config
	view    Viewport
	target  Target
	now     func() time.Time
	session Session
}

// NewTracker returns an Idle tracker.
func NewTracker(cfg Config, view Viewport, target Target) *Tracker {
	return &Tracker{cfg: cfg, view: view, target: target, now: time.Now}
}

// SetClock replaces the time source used to measure presses.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Config returns the thresholds in use.
func (t *Tracker) Config() Config { return t.cfg }

// Session returns a copy of the current session.
func (t *Tracker) Session() Session { return t.session }

// State returns the current state.
func (t *Tracker) State() State {
	switch {
	case !t.session.Active:
		return Idle
	case t.session.Dragged:
		return Dragging
	default:
		return Armed
	}
}

// Down starts a session for a primary button press.
// Other buttons are ignored and false is returned.
func (t *Tracker) Down(sx, sy float64, button Button) bool {
	if button != Primary {
		return false
	}
	tr := t.view.Transform()
	t.session = Session{
		Active:     true,
		OriginX:    sx,
		OriginY:    sy,
		OriginPanX: tr.PanX,
		OriginPanY: tr.PanY,
		Down:       t.now(),
	}
	return true
}

// Move handles a pointer move, and returns true if the view was panned.
func (t *Tracker) Move(sx, sy float64) bool {
	s := &t.session
	if !s.Active {
		t.target.Hover(sx, sy)
		return false
	}
	dx, dy := sx-s.OriginX, sy-s.OriginY
	if !s.Dragged {
		if math.Hypot(dx, dy) <= t.cfg.DragThreshold {
			t.target.Hover(sx, sy)
			return false
		}
		s.Dragged = true
		t.target.HideHover()
	}
	// absolute from the origin, so that no rounding error accumulates
	t.view.PanTo(s.OriginPanX+dx, s.OriginPanY+dy)
	return true
}

// Up ends the session and classifies it.
func (t *Tracker) Up(sx, sy float64) Outcome {
	s := t.session
	t.session = Session{}
	switch {
	case !s.Active:
		return NoOutcome
	case s.Dragged:
		return PanEnd
	case t.now().Sub(s.Down) > t.cfg.ClickDuration:
		return NoOutcome
	case t.target.ClickAt(sx, sy):
		return Click
	default:
		return NoOutcome
	}
}

// Leave abandons the session, even mid-drag, without any click.
func (t *Tracker) Leave() {
	t.session = Session{}
	t.target.Leave()
}

// Reset abandons the session silently.
func (t *Tracker) Reset() { t.session = Session{} }
