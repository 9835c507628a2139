package http

import (
	"bufio"
	"embed"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/metrics"
)

//go:embed web/index.html
var webFS embed.FS

// Deps holds what the router wires into handlers.
type Deps struct {
	Quiz    *app.QuizService
	Search  *app.SearchService
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP surface: page, WebSocket, JSON API, health and metrics.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(requestMiddleware(d.Metrics, d.Logger))

	ws := NewWSHandler(d.Quiz, d.Logger)
	sessions := NewSessionHandler(d.Quiz)
	search := NewSearchHandler(d.Search)

	r.HandleFunc("/", serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", sessions.Start).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessions.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessions.End).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/select", sessions.Select).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/validate", sessions.Validate).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/advance", sessions.Advance).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/submit", sessions.Submit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/restart", sessions.Restart).Methods(http.MethodPost)
	api.HandleFunc("/search", search.Search).Methods(http.MethodPost)
	api.HandleFunc("/search/google", search.Google).Methods(http.MethodGet)

	return r
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// requestMiddleware counts requests per route template and logs them at debug level.
func requestMiddleware(m *metrics.Metrics, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade reach the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
