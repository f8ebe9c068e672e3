package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render/payload"
	"github.com/matzehuels/graphscope/pkg/session"
	"github.com/matzehuels/graphscope/pkg/store"
)

// Response headers set on payload responses.
const (
	HeaderCache = "X-Graphscope-Cache"
	HeaderStats = "X-Graphscope-Stats"
)

const maxBodyBytes = 1 << 20

// GraphUnavailableMessage is shown in place of the graph when the store
// cannot be read.
const GraphUnavailableMessage = "Could not load graph data. Check the store connection and try again."

var validate = validator.New()

type sessionRequest struct {
	View   string `json:"view" validate:"omitempty,oneof=data schema"`
	Layout string `json:"layout" validate:"omitempty,max=32"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	View      string    `json:"view"`
	Layout    string    `json:"layout,omitempty"`
	Expanded  []string  `json:"expanded"`
	Merged    int       `json:"merged_nodes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		View:      string(sess.View),
		Layout:    sess.Layout,
		Expanded:  sess.Expanded.IDs(),
		Merged:    len(sess.Neighbours.Nodes),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
}

type graphResponse struct {
	Payload  payload.Payload `json:"payload"`
	Stats    pipeline.Stats  `json:"stats"`
	CacheHit bool            `json:"cache_hit"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"health": "ok"})
}

func (s *Server) decodeSessionRequest(w http.ResponseWriter, r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, gserrors.Wrap(gserrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "View" {
			return req, gserrors.New(gserrors.ErrCodeInvalidViewMode, "invalid view %q (must be one of: data, schema)", req.View)
		}
		return req, gserrors.Wrap(gserrors.ErrCodeInvalidInput, err, "invalid request")
	}
	return req, nil
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSessionRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view := graph.ViewMode(req.View)
	if view == "" {
		view = graph.ViewMode(s.defaults.View)
	}
	layout := req.Layout
	if layout == "" {
		layout = s.defaults.Layout
	}

	sess, err := session.New(view, layout, s.ttl)
	if err != nil {
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeInternal, err, "create session"))
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeInternal, err, "save session"))
		return
	}
	s.logger.Debug("created session", "session", sess.ID, "view", sess.View, "layout", sess.Layout)
	s.respondJSON(w, http.StatusCreated, toResponse(sess))
}

// loadSession fetches the session named in the URL and writes the error
// response itself when it cannot.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeSessionNotFound, err, "session %s not found", id))
		return nil, false
	case gserrors.Is(err, gserrors.ErrCodeInvalidPath):
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeSessionNotFound, err, "session %s not found", id))
		return nil, false
	case err != nil:
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeInternal, err, "load session"))
		return nil, false
	}
	return sess, true
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	sess.Extend(s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeInternal, err, "save session"))
		return false
	}
	return true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(sess))
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	req, err := s.decodeSessionRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.View != "" {
		sess.View = graph.ViewMode(req.View)
	}
	if req.Layout != "" {
		sess.Layout = req.Layout
	}
	if !s.saveSession(w, r, sess) {
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, gserrors.Wrap(gserrors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if err := gserrors.ValidateElementID(nodeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	neighbours := store.FetchNeighbors(r.Context(), s.store, nodeID, s.logger)
	sess.Expand(nodeID, neighbours)
	if !s.saveSession(w, r, sess) {
		return
	}
	s.logger.Debug("expanded node", "session", sess.ID, "node", nodeID, "neighbours", len(neighbours.Nodes))
	s.respondJSON(w, http.StatusOK, toResponse(sess))
}

func (s *Server) collapse(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if err := gserrors.ValidateElementID(nodeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	sess.Collapse(nodeID)
	if !s.saveSession(w, r, sess) {
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(sess))
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	sess.Reset()
	if !s.saveSession(w, r, sess) {
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(sess))
}

func (s *Server) renderGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "html" && format != "json" {
		s.respondError(w, r, gserrors.New(gserrors.ErrCodeInvalidFormat, "unsupported format %q (must be html or json)", format))
		return
	}

	opts := s.defaults
	opts.View = string(sess.View)
	if sess.Layout != "" {
		opts.Layout = sess.Layout
	}
	opts.Expanded = sess.Snapshot().IDs()
	if h := r.URL.Query().Get("height"); h != "" {
		height, err := strconv.Atoi(h)
		if err != nil {
			s.respondError(w, r, gserrors.New(gserrors.ErrCodeInvalidHeight, "invalid height %q", h))
			return
		}
		opts.Height = height
	}

	result, err := s.render(r, sess, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.CacheHit {
		cacheStatus = "hit"
	}
	w.Header().Set(HeaderCache, cacheStatus)
	w.Header().Set(HeaderStats, result.Stats.String())

	if format == "json" {
		s.respondJSON(w, http.StatusOK, graphResponse{Payload: result.Payload, Stats: result.Stats, CacheHit: result.CacheHit})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(result.Payload.HTML))
}

// render loads the base graph for the session's view and runs the
// pipeline over it. A store failure becomes an error-state payload so the
// host always has a document to show.
func (s *Server) render(r *http.Request, sess *session.Session, opts pipeline.Options) (*pipeline.Result, error) {
	ctx := r.Context()

	var base graph.Graph
	var err error
	if sess.View == graph.ViewSchema {
		base, err = s.store.Schema(ctx)
	} else {
		base, err = s.store.Graph(ctx)
	}
	if err != nil {
		s.logger.Error("graph lookup failed", "session", sess.ID, "view", sess.View, "err", err)
		if verr := opts.ValidateAndSetDefaults(); verr != nil {
			return nil, verr
		}
		return &pipeline.Result{
			Payload: payload.Error(GraphUnavailableMessage, opts.Height),
			Visible: graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}},
		}, nil
	}

	working := base
	if sess.View != graph.ViewSchema {
		working = sess.Working(base)
	}
	return s.runner.Render(ctx, working, opts)
}

func (s *Server) neighbours(w http.ResponseWriter, r *http.Request) {
	elementID := chi.URLParam(r, "elementID")
	if err := gserrors.ValidateElementID(elementID); err != nil {
		s.respondError(w, r, err)
		return
	}
	g := store.FetchNeighbors(r.Context(), s.store, elementID, s.logger)
	s.respondJSON(w, http.StatusOK, g)
}
