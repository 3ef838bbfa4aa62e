package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phishnheat/threat-intel-service/internal/handlers"
	"github.com/phishnheat/threat-intel-service/internal/service"
	"github.com/phishnheat/threat-intel-service/internal/store"
)

// NewRouter wires the public endpoints and the API.
// Public: /health, /ready, /metrics
// API: /api/phishing/*, /api/analytics/*
//
// st may be nil when the service runs without durable persistence; readiness
// then only confirms the process itself.
func NewRouter(svc *service.Service, st *store.PostgresStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the optional DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		if st != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			if err := st.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	handlers.RegisterPhishingRoutes(api, svc)
	handlers.RegisterAnalyticsRoutes(api, svc)

	return r
}
