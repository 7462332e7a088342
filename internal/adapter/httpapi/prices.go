package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/store"
)

type recordPriceRequest struct {
	CropName    string  `json:"crop_name"`
	Location    string  `json:"location"`
	PricePerKg  float64 `json:"price_per_kg"`
	Date        string  `json:"date"`
	Source      string  `json:"source"`
	DemandLevel string  `json:"demand_level"`
}

func (h *handlers) recordPrice(c *gin.Context) {
	var req recordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.CropName = strings.ToLower(strings.TrimSpace(req.CropName))
	req.Location = strings.TrimSpace(req.Location)
	if req.CropName == "" || req.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop_name and location are required"})
		return
	}
	if req.PricePerKg <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_per_kg must be positive"})
		return
	}
	date := domain.Today()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}

	price := store.MarketPrice{
		CropName:    req.CropName,
		Location:    req.Location,
		Date:        date,
		PricePerKg:  req.PricePerKg,
		Source:      source,
		Accuracy:    "high",
		DemandLevel: req.DemandLevel,
	}
	if err := h.deps.Prices.Record(c.Request.Context(), &price); err != nil {
		h.logger.Error("recording price failed", "crop", req.CropName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recording price failed"})
		return
	}
	c.JSON(http.StatusCreated, price)
}

// getPrices returns the latest price plus 30 days of history, with the
// fitted trend when enough points exist.
func (h *handlers) getPrices(c *gin.Context) {
	crop := strings.ToLower(strings.TrimSpace(c.Query("crop")))
	location := strings.TrimSpace(c.Query("location"))
	if crop == "" || location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop and location are required"})
		return
	}

	latest, err := h.deps.Prices.Latest(c.Request.Context(), crop, location)
	if err != nil {
		h.logger.Error("querying latest price failed", "crop", crop, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price recorded for this crop and location"})
		return
	}

	history, err := h.deps.Prices.History(c.Request.Context(), crop, location, domain.Today().AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("querying price history failed", "crop", crop, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"latest": latest, "history": history}
	if len(history) > 0 {
		trend := domain.FitPriceTrend(history)
		resp["trend"] = trend
	}
	c.JSON(http.StatusOK, resp)
}
