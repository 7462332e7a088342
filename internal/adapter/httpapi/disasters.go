package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/store"
)

func (h *handlers) listDisasters(c *gin.Context) {
	status := c.Query("status")

	cacheKey := fmt.Sprintf("disasters:%s", status)
	var cached []store.Disaster
	if h.deps.Cache != nil && h.deps.Cache.Get(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	disasters, err := h.deps.Disasters.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("listing disasters failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if h.deps.Cache != nil {
		h.deps.Cache.Set(c.Request.Context(), cacheKey, disasters, 60*time.Second)
	}
	c.JSON(http.StatusOK, gin.H{"data": disasters})
}

func (h *handlers) getDisaster(c *gin.Context) {
	publicID := c.Param("id")
	disaster, zones, err := h.deps.Disasters.Get(c.Request.Context(), publicID)
	if err != nil {
		respondLookupError(c, h, err, "disaster")
		return
	}
	c.JSON(http.StatusOK, gin.H{"disaster": disaster, "zones": zones})
}

type locateRequest struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Days int     `json:"days"`
}

func (h *handlers) locateTyphoons(c *gin.Context) {
	var req locateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat/lng out of range"})
		return
	}

	report, err := h.deps.Disasters.LocateTyphoons(c.Request.Context(), req.Lat, req.Lng, req.Days)
	if err != nil {
		h.logger.Error("typhoon scan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "typhoon scan failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}
