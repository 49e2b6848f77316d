// Implements the pan and zoom state of a map view.
//
// The transform maps document coordinates to screen coordinates:
//
//	screen = document * Scale + Pan
//
// Zooming with the wheel is anchored at the pointer: the document
// point under the pointer stays under it after the scale change.
package viewport

import "math"

// Config holds the zoom bounds and steps.
type Config struct {
	ScaleMin float64 `yaml:"scale_min"`
	ScaleMax float64 `yaml:"scale_max"`
	// ZoomInFactor and ZoomOutFactor are applied by the zoom buttons.
	ZoomInFactor  float64 `yaml:"zoom_in_factor"`
	ZoomOutFactor float64 `yaml:"zoom_out_factor"`
	// WheelInFactor is applied for a negative wheel delta (scrolling up),
	// WheelOutFactor for a positive one.
	WheelInFactor  float64 `yaml:"wheel_in_factor"`
	WheelOutFactor float64 `yaml:"wheel_out_factor"`
}

// DefaultConfig returns the bounds [0.5, 3], with 1.2/0.8 button steps
// and 1.1/0.9 wheel steps.
func DefaultConfig() Config {
	return Config{
		ScaleMin:       0.5,
		ScaleMax:       3,
		ZoomInFactor:   1.2,
		ZoomOutFactor:  0.8,
		WheelInFactor:  1.1,
		WheelOutFactor: 0.9,
	}
}

func (c Config) clamp(scale float64) float64 {
	return math.Max(c.ScaleMin, math.Min(c.ScaleMax, scale))
}

// Transform is a snapshot of the viewport state.
type Transform struct {
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
	Scale float64 `json:"scale"`
}

// Identity is the transform after a reset.
var Identity = Transform{Scale: 1}

// Percent returns the scale as a rounded percentage, for display.
func (t Transform) Percent() int { return int(math.Round(t.Scale * 100)) }

// ScreenToDocument maps a screen point to document coordinates.
func (t Transform) ScreenToDocument(sx, sy float64) (x, y float64) {
	return (sx - t.PanX) / t.Scale, (sy - t.PanY) / t.Scale
}

// DocumentToScreen maps a document point to screen coordinates.
func (t Transform) DocumentToScreen(x, y float64) (sx, sy float64) {
	return x*t.Scale + t.PanX, y*t.Scale + t.PanY
}

// Controller owns a Transform. Its scale always stays within
// the configured bounds: requests outside them are clamped.
type Controller struct {
	cfg Config
	t   Transform
}

// NewController returns a controller at the Identity transform,
// clamped to the bounds of cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg, t: Identity}
	c.t.Scale = cfg.clamp(c.t.Scale)
	return c
}

// Config returns the bounds and steps in use.
func (c *Controller) Config() Config { return c.cfg }

// Transform returns the current state.
func (c *Controller) Transform() Transform { return c.t }

// setScale applies a clamped scale. It returns false,
// leaving the state untouched, when the scale does not change.
func (c *Controller) setScale(scale float64) bool {
	scale = c.cfg.clamp(scale)
	if scale == c.t.Scale {
		return false
	}
	c.t.Scale = scale
	return true
}

// ZoomIn multiplies the scale by the zoom-in step.
// It reports whether the state changed: at the upper bound it is a no-op.
func (c *Controller) ZoomIn() bool { return c.setScale(c.t.Scale * c.cfg.ZoomInFactor) }

// ZoomOut multiplies the scale by the zoom-out step.
// It reports whether the state changed: at the lower bound it is a no-op.
func (c *Controller) ZoomOut() bool { return c.setScale(c.t.Scale * c.cfg.ZoomOutFactor) }

// ZoomAtPoint zooms around the screen point (sx, sy): a positive
// deltaSign zooms out, a negative one zooms in, zero is ignored.
// The pan is adjusted so that the document point under (sx, sy)
// does not move.
func (c *Controller) ZoomAtPoint(sx, sy, deltaSign float64) bool {
	factor := c.cfg.WheelInFactor
	switch {
	case deltaSign > 0:
		factor = c.cfg.WheelOutFactor
	case deltaSign == 0 || math.IsNaN(deltaSign):
		return false
	}
	old := c.t.Scale
	if !c.setScale(old * factor) {
		return false
	}
	ratio := c.t.Scale / old
	c.t.PanX = sx - (sx-c.t.PanX)*ratio
	c.t.PanY = sy - (sy-c.t.PanY)*ratio
	return true
}

// Reset goes back to the Identity transform.
func (c *Controller) Reset() { c.t = Identity }

// Pan moves the view by (dx, dy) screen pixels. Panning is unbounded.
func (c *Controller) Pan(dx, dy float64) {
	c.t.PanX += dx
	c.t.PanY += dy
}

// PanTo sets the pan offset.
func (c *Controller) PanTo(panX, panY float64) {
	c.t.PanX, c.t.PanY = panX, panY
}
