// Package server exposes map viewer sessions over HTTP.
//
// Each session is a mapview.Session, driven by JSON requests mirroring
// the browser events (pointer, wheel, zoom buttons, file upload).
// Requests on the same session are serialized.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/benoitkugler/svgmap/mapview"
	"github.com/benoitkugler/svgmap/pointer"
	"github.com/benoitkugler/svgmap/svgnode"
)

// multipart overhead accepted on top of the file itself
const formOverhead = 1 << 16

type entry struct {
	mu      sync.Mutex
	session *mapview.Session
}

// Server holds the live sessions.
type Server struct {
	opts      mapview.Options
	maxUpload int64
	logger    *slog.Logger
	policy    *bluemonday.Policy
	router    *chi.Mux

	mu       sync.Mutex
	sessions map[string]*entry
}

// New returns a server creating its sessions with opts.
func New(opts mapview.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	s := &Server{
		opts:      opts,
		maxUpload: maxUpload,
		logger:    logger,
		policy:    bluemonday.StrictPolicy(),
		sessions:  map[string]*entry{},
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Delete("/", s.deleteSession)
		r.Post("/upload", s.with(s.upload))
		r.Get("/document", s.with(s.document))
		r.Get("/features", s.with(s.features))
		r.Get("/viewport", s.with(viewportState))
		r.Post("/zoom/in", s.with(func(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
			ms.ZoomIn()
			viewportState(w, nil, ms)
		}))
		r.Post("/zoom/out", s.with(func(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
			ms.ZoomOut()
			viewportState(w, nil, ms)
		}))
		r.Post("/zoom/reset", s.with(func(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
			ms.ResetView()
			viewportState(w, nil, ms)
		}))
		r.Post("/wheel", s.with(wheel))
		r.Post("/pointer/{action}", s.with(pointerEvent))
		r.Get("/hover", s.with(s.hover))
		r.Get("/events", s.with(s.events))
		r.Get("/notifications", s.with(s.notifications))
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, ms *mapview.Session)

// with resolves the session of the URL and holds its lock during h
func (s *Server) with(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		e, ok := s.sessions[chi.URLParam(r, "id")]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("unknown session"))
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		h(w, r, e.session)
	}
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &entry{session: mapview.NewSession(s.opts)}
	s.mu.Unlock()
	s.logger.Info("session created", "session", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown session"))
		return
	}
	s.logger.Info("session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// sanitize strips any markup from text displayed by the browser
func (s *Server) sanitize(text string) string { return s.policy.Sanitize(text) }

func (s *Server) upload(w http.ResponseWriter, r *http.Request, ms *mapview.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(s.maxUpload + formOverhead); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	err = ms.Upload(header.Filename, header.Header.Get("Content-Type"), file)
	switch {
	case err == nil:
		doc := ms.Document()
		writeJSON(w, http.StatusOK, map[string]any{"titles": doc.Titles, "nodes": len(doc.Nodes)})
	case errors.Is(err, mapview.ErrUnsupportedFileType):
		writeError(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, mapview.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, svgnode.ErrInvalidDocument):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func (s *Server) document(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	writeJSON(w, http.StatusOK, ms.Document())
}

func (s *Server) features(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	features := ms.Features()
	for i := range features {
		features[i].Title = s.sanitize(features[i].Title)
	}
	if features == nil {
		features = []svgnode.Feature{}
	}
	writeJSON(w, http.StatusOK, features)
}

type viewportResp struct {
	PanX    float64 `json:"panX"`
	PanY    float64 `json:"panY"`
	Scale   float64 `json:"scale"`
	Percent int     `json:"percent"`
}

func viewportState(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	t := ms.Transform()
	writeJSON(w, http.StatusOK, viewportResp{PanX: t.PanX, PanY: t.PanY, Scale: t.Scale, Percent: t.Percent()})
}

type wheelReq struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

func wheel(w http.ResponseWriter, r *http.Request, ms *mapview.Session) {
	var req wheelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ms.Wheel(req.X, req.Y, req.DeltaY)
	viewportState(w, r, ms)
}

type pointerReq struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Button pointer.Button `json:"button"`
}

func pointerEvent(w http.ResponseWriter, r *http.Request, ms *mapview.Session) {
	var req pointerReq
	if action := chi.URLParam(r, "action"); action != "leave" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	outcome := pointer.NoOutcome
	switch chi.URLParam(r, "action") {
	case "down":
		ms.PointerDown(req.X, req.Y, req.Button)
	case "move":
		ms.PointerMove(req.X, req.Y)
	case "up":
		outcome = ms.PointerUp(req.X, req.Y)
	case "leave":
		ms.PointerLeave()
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown pointer action"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": ms.Pointer().String(), "outcome": outcome.String()})
}

func (s *Server) hover(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	h := ms.Hover()
	h.Tooltip.Content = s.sanitize(h.Tooltip.Content)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) events(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	events := ms.DrainEvents()
	for i, e := range events {
		if e.Target != nil {
			t := *e.Target
			t.Title = s.sanitize(t.Title)
			events[i].Target = &t
		}
	}
	if events == nil {
		events = []mapview.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) notifications(w http.ResponseWriter, _ *http.Request, ms *mapview.Session) {
	ns := ms.Notifications()
	for i := range ns {
		ns[i].Message = s.sanitize(ns[i].Message)
	}
	if ns == nil {
		ns = []mapview.Notification{}
	}
	writeJSON(w, http.StatusOK, ns)
}
