package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/services"
)

const RequestIDHeader = "X-Request-ID"

type Services struct {
	Sessions  *services.SessionManager
	Proxy     *services.UploadProxy
	Poller    *services.ReadinessPoller
	Projects  *services.ProjectService
	Auditions *services.AuditionSubmissionService
	// DefaultProvider answers status requests that name no provider.
	DefaultProvider string
	Checks          []ReadinessCheck
}

func NewRouter(svc Services, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/secure-upload/create", NewSessionHandler(svc.Sessions, logger))
	upload := NewUploadProxyHandler(svc.Proxy, logger)
	mux.Handle("PUT /api/secure-upload/{videoId}", upload)
	mux.Handle("POST /api/secure-upload/{videoId}", upload)
	mux.Handle("GET /api/video/{videoId}/status", NewStatusHandler(svc.Poller, svc.DefaultProvider, logger))

	projects := NewProjectHandler(svc.Projects, logger)
	mux.HandleFunc("POST /api/projects", projects.Create)
	mux.HandleFunc("GET /api/projects/{id}", projects.Get)
	mux.HandleFunc("POST /api/projects/{id}/roles", projects.AddRole)
	mux.Handle("POST /api/auditions", NewAuditionHandler(svc.Auditions, logger))

	health := NewHealthHandler(svc.Checks...)
	mux.HandleFunc("GET /healthz", health.Live)
	mux.HandleFunc("GET /readyz", health.Ready)

	return withRequestLog(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func withRequestLog(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		if r.URL.Path == "/healthz" {
			return
		}
		logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
