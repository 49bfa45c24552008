package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/satchel"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ServerOption configures the handler built by NewHandler.
type ServerOption func(*server)

// WithMetricsHandler mounts h (usually promhttp.Handler()) at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *server) {
		s.metrics = h
	}
}

type server struct {
	logger  *slog.Logger
	metrics http.Handler
}

// NewHandler exposes the session of each caller as a small JSON API:
//
//	GET    /session/{key}          value, or 404
//	PUT    /session/{key}          store the JSON body
//	DELETE /session/{key}          remove, answering the prior value
//	DELETE /session                clear
//	POST   /flash/{key}            store the JSON body as a flash message
//	GET    /flash/{key}            read and consume, or 404
//	GET    /flash/{key}/exists     {"exists": bool}, without consuming
//	GET    /token                  anti-forgery token
func NewHandler(opener Opener, cookieName string, logger *slog.Logger, opts ...ServerOption) http.Handler {
	s := &server{logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(Middleware(opener, cookieName, logger))

		r.Get("/session/{key}", s.get)
		r.Put("/session/{key}", s.set)
		r.Delete("/session/{key}", s.remove)
		r.Delete("/session", s.clear)
		r.Post("/flash/{key}", s.setFlash)
		r.Get("/flash/{key}", s.getFlash)
		r.Get("/flash/{key}/exists", s.hasFlash)
		r.Get("/token", s.token)
	})
	return r
}

// missing is the default passed to reads so a stored null is told apart from absence.
var missing = &struct{}{}

func (s *server) session(w http.ResponseWriter, r *http.Request) (*satchel.Session, bool) {
	sess, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
	}
	return sess, ok
}

func (s *server) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v, err := sess.Get(r.Context(), chi.URLParam(r, "key"), missing)
	s.respond(w, v, err)
}

func (s *server) set(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	value, err := decodeBody(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Set: Invalid request body", "err", err)
		return
	}
	if err := sess.Set(r.Context(), chi.URLParam(r, "key"), value); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v, err := sess.Remove(r.Context(), chi.URLParam(r, "key"))
	if err == nil && v == nil {
		v = missing
	}
	s.respond(w, v, err)
}

func (s *server) clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) setFlash(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	value, err := decodeBody(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SetFlash: Invalid request body", "err", err)
		return
	}
	if err := sess.SetFlash(r.Context(), chi.URLParam(r, "key"), value); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getFlash(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v, err := sess.GetFlash(r.Context(), chi.URLParam(r, "key"), missing)
	s.respond(w, v, err)
}

func (s *server) hasFlash(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	has, err := sess.HasFlash(r.Context(), chi.URLParam(r, "key"))
	s.respond(w, map[string]bool{"exists": has}, err)
}

func (s *server) token(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	tok, err := sess.Token(r.Context())
	s.respond(w, map[string]string{"token": tok}, err)
}

func (s *server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	if v == missing {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *server) fail(w http.ResponseWriter, err error) {
	http.Error(w, "session error", http.StatusInternalServerError)
	s.logger.Error("Session operation failed", "err", err)
}

func decodeBody(r *http.Request) (any, error) {
	var v any
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty body")
		}
		return nil, err
	}
	return v, nil
}
