package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/export"
	"github.com/mpapenbr/lapviewer/pkg/render"
	"github.com/mpapenbr/lapviewer/pkg/service/viewer"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
)

const maxMessageSize = 1 << 16

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.GetFromContext(r.Context()).Error("failed to encode response",
			log.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, errorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
	})
}

// newSession creates a session and registers it in the session cache
func (s *Server) newSession(r *http.Request) *viewer.Session {
	id := uuid.NewString()
	session := viewer.NewSession(id, s.data,
		viewer.WithAssembler(s.assembler),
		viewer.WithLogger(s.log.Named("session")))
	s.sessions.Set(r.Context(), id, session)
	s.log.Debug("session created", log.String("id", id))
	return session
}

func (s *Server) lookupSession(r *http.Request) (*viewer.Session, error) {
	id := mux.Vars(r)["id"]
	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return session, nil
}

// session resolves the session of the request, unknown ones are answered
// with 404
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	session, err := s.lookupSession(r)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			writeError(w, r, http.StatusNotFound, err)
		} else {
			writeError(w, r, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return session, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.data.Store().Results())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.data.Store().Report())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := s.newSession(r)
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": session.ID()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	s.sessions.Invalidate(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, session.View())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	msg, err := viewer.DecodeMessage(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := session.Update(msg); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session.View())
}

func (s *Server) handleChartSpec(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx, span := s.tracer.Start(r.Context(), "assemble chart")
	defer span.End()
	spec := session.ChartSpec()
	span.SetAttributes(
		attribute.String("session", session.ID()),
		attribute.Int("datasets", len(spec.Datasets)))
	s.metrics.chartBuilt(ctx, metric.WithAttributes(attribute.String("format", "json")))
	writeJSON(w, r, http.StatusOK, spec)
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	format, err := render.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	width, err := sizeParam(r, "w", s.width)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	height, err := sizeParam(r, "h", s.height)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("format", string(format)))
	ctx, span := s.tracer.Start(r.Context(), "render chart")
	defer span.End()
	span.SetAttributes(
		attribute.String("session", session.ID()),
		attribute.String("format", string(format)),
		attribute.Int("width", width),
		attribute.Int("height", height))

	spec := session.ChartSpec()
	s.metrics.chartBuilt(ctx, attrs)
	buf := bytes.Buffer{}
	if err := render.New(render.WithSize(width, height)).Render(spec, format, &buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		log.GetFromContext(ctx).Error("chart could not be rendered",
			log.String("session", session.ID()),
			log.ErrorField(err))
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.metrics.rendered(ctx, time.Since(start).Seconds(), attrs)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		log.GetFromContext(ctx).Warn("chart not sent", log.ErrorField(err))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	store := s.data.Store()
	selected := make([]export.Runner, 0)
	for _, bib := range session.Selection() {
		if rec, ok := store.Runner(bib); ok {
			selected = append(selected, export.Runner{Record: rec, LapTimes: store.LapTimes(bib)})
		}
	}
	buf := bytes.Buffer{}
	if err := export.Write(&buf, store.Results(), selected); err != nil {
		log.GetFromContext(r.Context()).Error("export failed", log.ErrorField(err))
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=lapviewer.xlsx")
	w.Header().Set("Content-Transfer-Encoding", "binary")
	if _, err := buf.WriteTo(w); err != nil {
		log.GetFromContext(r.Context()).Warn("export not sent", log.ErrorField(err))
	}
}

// sizeParam reads an optional image dimension from the query
func sizeParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	ret, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ret, nil
}
