package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/api/handlers"
	mw "github.com/Harshitk-cp/searchmind/internal/api/middleware"
	"github.com/Harshitk-cp/searchmind/internal/app"
	"github.com/Harshitk-cp/searchmind/internal/buildconfig"
	"github.com/Harshitk-cp/searchmind/internal/config"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

// App holds the router and the background worker for lifecycle management.
type App struct {
	Router     *chi.Mux
	SleepCycle *service.SleepCycle

	svcs      *app.Services
	chat      *handlers.ChatHandler
	metrics   *mw.MetricsCollector
	startTime time.Time
}

func NewApp(svcs *app.Services, logger *zap.Logger) *App {
	propertyHandler := handlers.NewPropertyHandler(svcs.Properties, svcs.Sync, logger)
	memoryHandler := handlers.NewMemoryHandler(svcs.Memory, logger)
	actionHandler := handlers.NewActionHandler(svcs.Actions, logger)
	sleepHandler := handlers.NewSleepHandler(svcs.SleepCycle, logger)

	r := chi.NewRouter()
	a := &App{
		Router:     r,
		SleepCycle: svcs.SleepCycle,
		svcs:       svcs,
		metrics:    mw.NewMetricsCollector(),
		startTime:  time.Now(),
	}
	chatHandler := handlers.NewChatHandler(svcs.Turns, logger, a.metrics.StreamOpened)
	a.chat = chatHandler

	// Order matters: request id first so every later layer can log it.
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", a.healthHandler)
	r.Get("/metrics", a.metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", propertyHandler.Create)
			r.Get("/", propertyHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", propertyHandler.GetByID)
				r.Post("/sync", propertyHandler.Sync)
				r.Post("/crawl-stats", propertyHandler.IngestCrawlStats)
			})
		})

		r.Post("/chat", chatHandler.Post)
		r.Get("/chat/ws", chatHandler.Stream)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memoryHandler.Create)
			r.Get("/recall", memoryHandler.Recall)
			r.Get("/{id}", memoryHandler.GetByID)
		})

		r.Post("/actions", actionHandler.Create)
		r.Post("/actions/{id}/impact", actionHandler.RecordImpact)
		r.Get("/skills", actionHandler.Skills)

		r.Post("/sleep-cycle", sleepHandler.Run)
	})

	return a
}

// CloseStreams ends open WebSocket streams. Register it with
// http.Server.RegisterOnShutdown.
func (a *App) CloseStreams() {
	a.chat.CloseStreams()
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildconfig.Get()
	if err := a.svcs.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "error",
			"error":   err.Error(),
			"version": info.Version,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": info.Version,
		"commit":  info.Commit,
	})
}

func (a *App) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(a.startTime)
	snap := a.metrics.Snapshot()

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   uptime.Round(time.Second).String(),
		"request_count":  snap.Requests,
		"error_count":    snap.Errors,
		"streams_opened": snap.StreamsOpened,
		"streams_active": snap.StreamsActive,
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
			"sys_mb":   float64(memStats.Sys) / 1024 / 1024,
			"num_gc":   memStats.NumGC,
		},
		"go_version": runtime.Version(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
