// Wires the map viewer core together: an upload replaces the document,
// and pointer and wheel events flow through the pointer tracker into
// the viewport and the hit resolver. Events and notifications for the
// presentation layer are queued in the session.
package mapview

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/benoitkugler/svgmap/hit"
	"github.com/benoitkugler/svgmap/pointer"
	"github.com/benoitkugler/svgmap/svgnode"
	"github.com/benoitkugler/svgmap/svgstyle"
	"github.com/benoitkugler/svgmap/viewport"
)

var (
	// ErrUnsupportedFileType is returned for uploads which are
	// neither .svg files nor of type image/svg+xml.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrTooLarge is returned for uploads above Options.MaxUploadBytes.
	ErrTooLarge = errors.New("file too large")
)

// User messages
const (
	msgUnsupported = "Please upload a valid SVG file"
	msgReadError   = "Error reading SVG file"
	msgInvalid     = "Invalid SVG file"
	msgLoaded      = "SVG file loaded successfully!"
	msgClicked     = "Clicked: %s"
)

// SVGMediaType is the accepted media type for uploads.
const SVGMediaType = "image/svg+xml"

// Options configures a Session. The zero value of a field selects its default.
type Options struct {
	Viewport        viewport.Config
	Pointer         pointer.Config
	Highlight       svgstyle.StyleMap
	NotificationTTL time.Duration
	MaxUploadBytes  int64
	Logger          *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// NewLocator builds the hit test of a document; it defaults
	// to hit.NewTreeLocator.
	NewLocator func(doc *svgnode.Document, view hit.View) hit.Locator
}

func (o *Options) applyDefaults() {
	if o.Viewport == (viewport.Config{}) {
		o.Viewport = viewport.DefaultConfig()
	}
	if o.Pointer == (pointer.Config{}) {
		o.Pointer = pointer.DefaultConfig()
	}
	if o.Highlight == nil {
		o.Highlight = hit.DefaultHighlight()
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = 3 * time.Second
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 10 << 20
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewLocator == nil {
		logger := o.Logger
		o.NewLocator = func(doc *svgnode.Document, view hit.View) hit.Locator {
			return hit.NewTreeLocator(doc, view, logger)
		}
	}
}

// EventKind identifies the events emitted to the presentation layer.
type EventKind string

const (
	ElementClicked EventKind = "elementClicked"
	HoverChanged   EventKind = "hoverChanged"
	ScaleChanged   EventKind = "scaleChanged"
)

// Event is emitted upward. Target is nil for a hover change
// to no element; Percent is only set for ScaleChanged.
type Event struct {
	Kind    EventKind   `json:"kind"`
	Target  *hit.Target `json:"target,omitempty"`
	Scale   float64     `json:"scale,omitempty"`
	Percent int         `json:"percent,omitempty"`
}

// Session is the state of one map viewer.
// It is not safe for concurrent use.
type Session struct {
	opts   Options
	parser svgnode.Parser

	view    *viewport.Controller
	tracker *pointer.Tracker

	doc      *svgnode.Document // nil before the first upload
	layer    *hit.StyleLayer
	resolver *hit.Resolver

	notifications notifications
	events        []Event
}

// NewSession returns a session without document.
func NewSession(opts Options) *Session {
	opts.applyDefaults()
	s := &Session{
		opts:          opts,
		parser:        svgnode.Parser{Styles: svgstyle.Resolver{Mode: svgstyle.WarnErrorMode, Logger: opts.Logger}},
		view:          viewport.NewController(opts.Viewport),
		notifications: notifications{ttl: opts.NotificationTTL},
	}
	s.tracker = pointer.NewTracker(opts.Pointer, s.view, target{s})
	s.tracker.SetClock(opts.Clock)
	s.install(&svgnode.Document{Root: svgnode.RootAttributes{}, Nodes: []svgnode.Node{}})
	s.doc = nil
	return s
}

// install replaces the document and the state derived from it
func (s *Session) install(doc *svgnode.Document) {
	s.doc = doc
	s.layer = hit.NewStyleLayer(doc)
	s.resolver = hit.NewResolver(doc, s.opts.NewLocator(doc, s.view), s.layer, s.opts.Highlight, observer{s})
}

func (s *Session) notify(kind Kind, message string) {
	s.notifications.add(s.opts.Clock(), kind, message)
}

// accepts checks the file name extension, then the media type.
func accepts(name, mediaType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return true
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	return err == nil && mt == SVGMediaType
}

// Upload reads and parses a new document. On success the document
// replaces the current one, the view is reset and the hover state
// cleared. On failure, the current state is left untouched.
// In both cases one notification is emitted.
func (s *Session) Upload(name, mediaType string, content io.Reader) error {
	log := s.opts.Logger.With("file", name, "mediaType", mediaType)
	if !accepts(name, mediaType) {
		log.Warn("upload rejected")
		s.notify(Error, msgUnsupported)
		return fmt.Errorf("%s: %w", name, ErrUnsupportedFileType)
	}

	data, err := io.ReadAll(io.LimitReader(content, s.opts.MaxUploadBytes+1))
	if err == nil && int64(len(data)) > s.opts.MaxUploadBytes {
		err = ErrTooLarge
	}
	if err != nil {
		log.Warn("upload failed", "error", err)
		s.notify(Error, msgReadError)
		return fmt.Errorf("reading %s: %w", name, err)
	}

	doc, err := s.parser.Read(bytes.NewReader(data))
	if err != nil {
		log.Warn("invalid document", "error", err)
		s.notify(Error, msgInvalid)
		return err
	}

	wasHovering := s.doc != nil && s.hovering()
	s.tracker.Reset()
	s.install(doc)
	s.setTransform(s.view.Reset)
	if wasHovering {
		s.emit(Event{Kind: HoverChanged})
	}
	log.Info("document loaded", "nodes", len(doc.Nodes))
	s.notify(Success, msgLoaded)
	return nil
}

func (s *Session) hovering() bool {
	_, ok := s.resolver.Hovered()
	return ok
}

func (s *Session) emit(e Event) { s.events = append(s.events, e) }

// setTransform runs op, then emits ScaleChanged if the scale changed
func (s *Session) setTransform(op func()) {
	before := s.view.Transform().Scale
	op()
	if t := s.view.Transform(); t.Scale != before {
		s.emit(Event{Kind: ScaleChanged, Scale: t.Scale, Percent: t.Percent()})
	}
}

// Document returns the current document, or nil before the first
// successful upload. It must not be modified.
func (s *Session) Document() *svgnode.Document { return s.doc }

// Features lists the interactive elements of the current document.
func (s *Session) Features() []svgnode.Feature {
	if s.doc == nil {
		return nil
	}
	return svgnode.Features(s.doc)
}

// Transform returns the viewport state.
func (s *Session) Transform() viewport.Transform { return s.view.Transform() }

// Pointer returns the state of the pointer tracker.
func (s *Session) Pointer() pointer.State { return s.tracker.State() }

// ZoomIn applies the zoom button step.
func (s *Session) ZoomIn() { s.setTransform(func() { s.view.ZoomIn() }) }

// ZoomOut applies the zoom button step.
func (s *Session) ZoomOut() { s.setTransform(func() { s.view.ZoomOut() }) }

// ResetView goes back to the identity transform.
func (s *Session) ResetView() { s.setTransform(s.view.Reset) }

// Wheel zooms at (x, y): deltaY > 0 zooms out, deltaY < 0 zooms in.
func (s *Session) Wheel(x, y, deltaY float64) {
	s.setTransform(func() { s.view.ZoomAtPoint(x, y, deltaY) })
}

// PointerDown starts a pointer session.
func (s *Session) PointerDown(x, y float64, button pointer.Button) {
	s.tracker.Down(x, y, button)
}

// PointerMove forwards a move, either panning or updating the hover.
func (s *Session) PointerMove(x, y float64) { s.tracker.Move(x, y) }

// PointerUp ends the pointer session.
func (s *Session) PointerUp(x, y float64) pointer.Outcome { return s.tracker.Up(x, y) }

// PointerLeave abandons the pointer session and clears the hover.
func (s *Session) PointerLeave() { s.tracker.Leave() }

// Hover describes the hover feedback to render.
type Hover struct {
	Tooltip hit.Tooltip `json:"tooltip"`
	// Styles holds the style of the nodes differing from the
	// document, keyed by svgnode.Ref.Key.
	Styles map[string]svgstyle.StyleMap `json:"styles"`
}

// Hover returns the current hover feedback.
func (s *Session) Hover() Hover {
	return Hover{Tooltip: s.resolver.Tooltip(), Styles: s.layer.Overrides()}
}

// Notifications returns the notifications not expired yet.
func (s *Session) Notifications() []Notification {
	return s.notifications.live(s.opts.Clock())
}

// DrainEvents returns and clears the pending events.
func (s *Session) DrainEvents() []Event {
	out := s.events
	s.events = nil
	return out
}

// target forwards the pointer feedback to the current resolver
type target struct{ s *Session }

func (t target) Hover(sx, sy float64)        { t.s.resolver.Hover(sx, sy) }
func (t target) HideHover()                  { t.s.resolver.HideHover() }
func (t target) Leave()                      { t.s.resolver.Leave() }
func (t target) ClickAt(sx, sy float64) bool { return t.s.resolver.ClickAt(sx, sy) }

// observer turns the resolver callbacks into session events
type observer struct{ s *Session }

func (o observer) HoverChanged(t *hit.Target) {
	o.s.emit(Event{Kind: HoverChanged, Target: t})
}

func (o observer) ElementClicked(t hit.Target) {
	o.s.emit(Event{Kind: ElementClicked, Target: &t})
	o.s.notify(Info, fmt.Sprintf(msgClicked, t.Title))
}
