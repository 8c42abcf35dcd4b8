package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/processing/chart"
	"github.com/mpapenbr/lapviewer/pkg/render"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/pkg/service/viewer"
	"github.com/mpapenbr/lapviewer/pkg/utils/broadcast"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache/expiring"
)

type (
	Option func(*Server)
	// Server exposes the viewer sessions via http
	Server struct {
		data      viewer.DataSource
		sessions  cache.Cache[string, viewer.Session]
		assembler *chart.Assembler
		width     int
		height    int
		log       *log.Logger
		tracer    trace.Tracer
		metrics   *metrics
		updates   broadcast.Server[racedata.Report]
		router    *mux.Router
	}
)

func WithSessionCache(c cache.Cache[string, viewer.Session]) Option {
	return func(s *Server) {
		s.sessions = c
	}
}

func WithAssembler(a *chart.Assembler) Option {
	return func(s *Server) {
		s.assembler = a
	}
}

// WithChartSize sets the image size used when a request does not provide one
func WithChartSize(width, height int) Option {
	return func(s *Server) {
		s.width = width
		s.height = height
	}
}

// WithUpdates enables /api/updates which notifies clients about replaced
// race data
func WithUpdates(updates broadcast.Server[racedata.Report]) Option {
	return func(s *Server) {
		s.updates = updates
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

func NewServer(data viewer.DataSource, opts ...Option) *Server {
	ret := &Server{
		data:      data,
		assembler: chart.NewAssembler(),
		width:     render.DefaultWidth,
		height:    render.DefaultHeight,
		log:       log.Default().Named("api"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.sessions == nil {
		ret.sessions = expiring.New[string, viewer.Session]()
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("lapviewer")
	}
	ret.metrics = newMetrics(ret.sessions)
	ret.router = ret.routes()
	return ret
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withLogging)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/updates", s.handleUpdates).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/events", s.handleEvent).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/chart", s.handleChartSpec).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/chart.{format:png|svg}", s.handleChartImage).
		Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/export.xlsx", s.handleExport).Methods(http.MethodGet)

	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	ui := r.PathPrefix("/ui/{id}").Subrouter()
	ui.HandleFunc("/toggle/{bib:[0-9]+}", s.handleUIToggle).Methods(http.MethodGet)
	ui.HandleFunc("/remove/{bib:[0-9]+}", s.handleUIRemove).Methods(http.MethodGet)
	ui.HandleFunc("/sort/{column}", s.handleUISort).Methods(http.MethodGet)
	ui.HandleFunc("/resize", s.handleUIResize).Methods(http.MethodGet)
	return r
}

// withLogging puts the server logger into the request context and logs
// each request on debug level
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(log.AddToContext(r.Context(), s.log)))
		s.log.Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Duration("duration", time.Since(start)))
	})
}
