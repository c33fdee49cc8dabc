package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/haakonRefsvik/VA-student-performance/engine"
	"github.com/haakonRefsvik/VA-student-performance/translator"
)

// ============================================================================
// SERVER — HTTP glue between the plotting front end and one Session
// ============================================================================
// POST /events               engine event envelope
// POST /views/{id}/selected  raw plotly selectedData (or slider/checklist value)
// GET  /state                last committed update
// GET  /views/{id}           payload of one view
// GET  /healthz
// GET  /metrics              Prometheus, when enabled
//
// Rejected events answer 422 with a Rejection body; a refused intake
// token answers 429.
// ============================================================================

const (
	maxBody     = 4 << 20
	gzipMinSize = 256
)

// Options tunes the HTTP layer.
type Options struct {
	EventsPerSecond float64 // 0 disables the intake limiter
	Burst           int
	Gzip            bool
	Metrics         bool // expose /metrics from the default gatherer
}

type Server struct {
	session *engine.Session
	log     *logrus.Logger
	limiter *rate.Limiter
	handler http.Handler
}

// New wires the routes for session.
func New(session *engine.Session, log *logrus.Logger, opts Options) *Server {
	s := &Server{session: session, log: log}
	if opts.EventsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", s.handleEvent)
	mux.HandleFunc("POST /views/{id}/selected", s.handleSelected)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /views/{id}", s.handleView)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	s.handler = mux
	if opts.Gzip {
		if wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize)); err == nil {
			s.handler = wrap(mux)
		} else {
			log.Warnf("Gzip disabled: %v ⚠️", err)
		}
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("Addr", addr).Infoln("HTTP server listening 🚀")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return pkgerrors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "http shutdown")
	}
	s.log.Infoln("HTTP server stopped ✅")
	return nil
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ev, err := translator.ParseEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, r, ev)
}

func (s *Server) handleSelected(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	id := r.PathValue("id")
	meta, found := s.session.Dashboard().View(id)
	if !found {
		writeError(w, http.StatusNotFound, pkgerrors.Errorf("unknown view %q", id))
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ev, err := translator.ParseSelectedData(id, meta.Kind, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.ID = r.URL.Query().Get("event_id")
	ev.Additive = r.URL.Query().Get("additive") == "true"
	s.apply(w, r, ev)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, ev engine.Event) {
	update, err := s.session.HandleEvent(r.Context(), ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, update)
	case errors.Is(err, engine.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, engine.RejectionFor(ev, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.log.WithField("View Id", ev.ViewID).Errorf("Event failed: %v ⛔", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	payload, ok := s.session.ViewPayload(id)
	if !ok {
		writeError(w, http.StatusNotFound, pkgerrors.Errorf("unknown view %q", id))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) allow(w http.ResponseWriter) bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	w.Header().Set("Retry-After", "1")
	writeError(w, http.StatusTooManyRequests, errors.New("too many events"))
	return false
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, pkgerrors.Wrap(err, "read body"))
		return nil, false
	}
	return body, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
