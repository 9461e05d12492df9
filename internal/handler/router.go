package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paiban/staffplan/internal/config"
	"github.com/paiban/staffplan/internal/metrics"
	"github.com/paiban/staffplan/internal/middleware"
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// RouterOptions 路由附加选项
type RouterOptions struct {
	Build   BuildInfo
	Ping    func(ctx context.Context) error // 数据库健康检查，可为空
	Limiter *middleware.RateLimiter         // 为空时按配置创建
}

// NewRouter 创建路由
// 中间件执行顺序：requestID -> realIP -> recoverer -> accessLog -> rateLimit -> cors -> bodyLimit -> handler
func NewRouter(h *Handler, cfg *config.Config, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)

	limiter := opts.Limiter
	if limiter == nil && cfg.API.RateLimit > 0 && cfg.API.RateWindow > 0 {
		limiter = middleware.NewRateLimiter(cfg.API.RateLimit, cfg.API.RateWindow)
	}
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}
	if cfg.API.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.API.CORS.Origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if cfg.API.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.API.MaxBodyBytes))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok", "service": cfg.App.Name}
		if opts.Ping != nil {
			if err := opts.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				respondJSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "ok"
		}
		respondJSON(w, http.StatusOK, status)
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, opts.Build)
	})
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", h.Index)
		r.Get("/constraints", h.ListConstraints)

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Post("/validate", h.Validate)
			r.Post("/export", h.ExportSchedule)
		})
		r.Post("/coverage/analyze", h.AnalyzeCoverage)
		r.Route("/drafts", func(r chi.Router) {
			r.Post("/merge", h.MergeDrafts)
			r.Post("/activate", h.ActivateDraft)
		})
		r.Post("/businesses/{businessID}/schedule/generate", h.GenerateForBusiness)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":   true,
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
	return r
}

// Index API 根路由，列出可用接口
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "排班引擎 API v1",
		"endpoints": map[string]interface{}{
			"schedule": map[string]string{
				"generate": "POST /api/v1/schedule/generate",
				"validate": "POST /api/v1/schedule/validate",
				"export":   "POST /api/v1/schedule/export",
			},
			"coverage": map[string]string{
				"analyze": "POST /api/v1/coverage/analyze",
			},
			"drafts": map[string]string{
				"merge":    "POST /api/v1/drafts/merge",
				"activate": "POST /api/v1/drafts/activate",
			},
			"constraints": "GET /api/v1/constraints",
			"business": map[string]string{
				"generate": "POST /api/v1/businesses/{businessID}/schedule/generate",
				"enabled":  strconv.FormatBool(h.store != nil),
			},
		},
	})
}
