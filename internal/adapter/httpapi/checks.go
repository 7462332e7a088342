package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/domain"
)

func (h *handlers) runWeatherCheck(c *gin.Context) {
	report, err := h.deps.Checks.RunWeatherCheck(c.Request.Context())
	if err != nil {
		h.logger.Error("weather check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "weather check failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type recommendationResponse struct {
	Lat     float64              `json:"lat"`
	Lng     float64              `json:"lng"`
	Weather domain.WeatherSample `json:"weather"`
	Crops   []domain.CropScore   `json:"crops"`
}

// getRecommendations ranks catalog crops by how well current conditions at
// the given coordinates match their optimal growing ranges.
func (h *handlers) getRecommendations(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	cacheKey := fmt.Sprintf("recs:%.2f:%.2f", lat, lng)
	var cached recommendationResponse
	if h.deps.Cache != nil && h.deps.Cache.Get(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	sample, err := h.deps.Weather.Current(c.Request.Context(), lat, lng)
	if err != nil {
		h.logger.Error("fetching current weather failed", "lat", lat, "lng", lng, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather data unavailable"})
		return
	}

	limit := 5
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	scores := domain.RecommendCrops(h.deps.Catalog, sample)
	if len(scores) > limit {
		scores = scores[:limit]
	}

	resp := recommendationResponse{Lat: lat, Lng: lng, Weather: sample, Crops: scores}
	if h.deps.Cache != nil {
		h.deps.Cache.Set(c.Request.Context(), cacheKey, resp, 10*time.Minute)
	}
	c.JSON(http.StatusOK, resp)
}
