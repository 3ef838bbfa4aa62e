package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phishnheat/threat-intel-service/internal/service"
)

// RegisterAnalyticsRoutes registers the aggregation endpoints. Every
// aggregation is computed fresh from the current normalized collection.
//
// GET /analytics/overview
// GET /analytics/threat-distribution
// GET /analytics/top-regions?limit=N
// GET /analytics/top-companies?limit=N
// GET /analytics/isp-rankings?limit=N
// GET /analytics/threat-hotspots?limit=N
func RegisterAnalyticsRoutes(r gin.IRoutes, svc *service.Service) {
	r.GET("/analytics/overview", func(c *gin.Context) {
		overview, err := svc.Overview(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, overview)
	})

	r.GET("/analytics/threat-distribution", func(c *gin.Context) {
		dist, err := svc.Distribution(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"distribution": dist})
	})

	r.GET("/analytics/top-regions", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 10)
		if !ok {
			return
		}
		regions, err := svc.TopRegions(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"top_regions": regions})
	})

	r.GET("/analytics/top-companies", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 10)
		if !ok {
			return
		}
		companies, err := svc.TopCompanies(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"top_companies": companies})
	})

	r.GET("/analytics/isp-rankings", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 10)
		if !ok {
			return
		}
		isps, err := svc.TopISPs(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"isp_rankings": isps})
	})

	r.GET("/analytics/threat-hotspots", func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 20)
		if !ok {
			return
		}
		hotspots, err := svc.Hotspots(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"hotspots": hotspots})
	})
}
