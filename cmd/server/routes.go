package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/internal/handlers"
	"github.com/huangang/evalstats/internal/middleware"
	"github.com/huangang/evalstats/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))

	writeLimiter := middleware.NewRateLimiter(10, 20)

	healthHandler := handlers.NewHealthHandler(svc.db, svc.bus, svc.relay)
	metricsHandler := handlers.NewMetricsHandler(svc.db, svc.hooks, svc.stats, svc.bus, svc.relay)
	r.GET("/health", healthHandler.CheckHealth)
	r.GET("/metrics", metricsHandler.Metrics)

	rpcHandler := handlers.NewRPCHandler(svc.deletion)
	entryHandler := handlers.NewEntryHandler(svc.entries, svc.flags)
	evaluationHandler := handlers.NewEvaluationHandler(svc.evaluations, svc.sessions)
	statsHandler := handlers.NewStatsHandler(svc.stats, svc.settings, svc.audit)

	api := r.Group("/api")
	{
		// Callable functions: the workflow checks the caller itself
		rpc := api.Group("/rpc", middleware.OptionalAuth(), writeLimiter.Middleware(), middleware.AuditLog(svc.audit))
		{
			rpc.POST("/deleteEntry", rpcHandler.DeleteEntry)
		}

		// Participant writes (anonymous sessions allowed)
		public := api.Group("", middleware.OptionalAuth(), writeLimiter.Middleware())
		{
			public.POST("/sessions", evaluationHandler.CreateSession)
			public.POST("/evaluations", evaluationHandler.Submit)
		}

		// Reads and flags (authenticated users)
		protected := api.Group("", middleware.AuthRequired())
		{
			protected.GET("/stats/overview", statsHandler.Overview)
			protected.GET("/stats/responses", statsHandler.Responses)
			protected.GET("/stats/demographics", statsHandler.Demographics)
			protected.GET("/settings", statsHandler.GetSettings)
			protected.GET("/entries/:id", entryHandler.GetByID)
			protected.POST("/entries/:id/flags", writeLimiter.Middleware(), entryHandler.RaiseFlag)
		}

		// Admin only routes
		admin := api.Group("", middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog(svc.audit))
		{
			admin.POST("/entries", entryHandler.Create)
			admin.PUT("/entries/:id/archive", entryHandler.SetArchived)
			admin.POST("/entries/:id/review-count", entryHandler.AdjustReviewCount)
			admin.DELETE("/flags/:id", entryHandler.ResolveFlag)
			admin.PUT("/settings/target-reviews", statsHandler.SetTargetReviews)
			admin.GET("/audit-logs", statsHandler.AuditLogs)
		}
	}
}
