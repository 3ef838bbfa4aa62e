package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phishnheat/threat-intel-service/internal/query"
	"github.com/phishnheat/threat-intel-service/internal/service"
)

// RegisterPhishingRoutes registers the incident-serving endpoints.
//
// GET /phishing          — filtered, paginated incidents
// GET /phishing/heatmap  — coordinate-only projection for the map view
// GET /phishing/stats    — summary statistics
// GET /phishing/refresh  — force a cache-bypassing refetch
// GET /phishing/cache    — freshness cache snapshot
// GET /phishing/:id      — single incident lookup
func RegisterPhishingRoutes(r gin.IRoutes, svc *service.Service) {
	r.GET("/phishing", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 100)
		if !ok {
			return
		}
		offset, ok := intQuery(c, "offset", 0)
		if !ok {
			return
		}
		crit := query.Criteria{
			Severity: c.Query("threat_level"),
			Company:  c.Query("company"),
			Country:  c.Query("country"),
			ISP:      c.Query("isp"),
		}

		incidents, err := svc.Incidents(c.Request.Context(), crit, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, incidents)
	})

	r.GET("/phishing/heatmap", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 100)
		if !ok {
			return
		}

		data, err := svc.Heatmap(c.Request.Context(), c.Query("threat_level"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	})

	r.GET("/phishing/stats", func(c *gin.Context) {
		stats, err := svc.Statistics(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.GET("/phishing/refresh", func(c *gin.Context) {
		count, err := svc.ForceRefresh(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "refreshed",
			"incident_count": count,
		})
	})

	r.GET("/phishing/cache", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.CacheInfo())
	})

	r.GET("/phishing/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
			return
		}

		inc, err := svc.IncidentByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, inc)
	})
}
