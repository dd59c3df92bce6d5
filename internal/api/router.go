package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/wonny/heatmap/internal/api/handlers"
	"github.com/wonny/heatmap/internal/realtime"
	"github.com/wonny/heatmap/pkg/logger"
)

// Handlers groups the endpoint handlers
type Handlers struct {
	Heatmap *handlers.HeatmapHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
	Hub     *realtime.Hub // nil = no /ws
}

// RouterOptions configures optional middleware; nil fields are disabled
type RouterOptions struct {
	Metrics     *Metrics
	RateLimiter *RateLimiter
	CORSOrigins []string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, opts RouterOptions, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("api")

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	r.HandleFunc("/ready", h.Health.Ready).Methods("GET")

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	// 프론트엔드가 호출하는 경로 (prefix 없음)
	r.HandleFunc("/indices", h.Heatmap.GetIndices).Methods("GET")
	r.HandleFunc("/heatmap/{index}", h.Heatmap.GetHeatmap).Methods("GET")
	r.HandleFunc("/heatmap/{index}/export", h.Heatmap.ExportHeatmap).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/reload", h.Admin.Reload).Methods("POST")
	api.HandleFunc("/jobs", h.Admin.GetJobs).Methods("GET")

	if h.Hub != nil {
		r.HandleFunc("/ws", h.Hub.ServeWS).Methods("GET")
	}

	// Apply middleware (outermost first)
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	if len(opts.CORSOrigins) == 0 {
		return r
	}
	// preflight(OPTIONS)는 라우트에 매칭되지 않으므로 라우터 바깥에서 처리
	return cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	})(r)
}
