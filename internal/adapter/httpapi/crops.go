package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/store"
)

type createCropRequest struct {
	UserID       uint    `json:"user_id"`
	CropName     string  `json:"crop_name"`
	PlantingDate string  `json:"planting_date"`
	AreaHectares float64 `json:"area_hectares"`
}

var cropStatuses = map[string]bool{
	store.CropPlanted:    true,
	store.CropGrowing:    true,
	store.CropHarvesting: true,
	store.CropHarvested:  true,
	store.CropFailed:     true,
}

func (h *handlers) createCrop(c *gin.Context) {
	var req createCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.CropName = strings.TrimSpace(req.CropName)
	if req.UserID == 0 || req.CropName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and crop_name are required"})
		return
	}
	if req.AreaHectares <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "area_hectares must be positive"})
		return
	}
	plantingDate, err := time.Parse("2006-01-02", req.PlantingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planting_date must be YYYY-MM-DD"})
		return
	}

	if _, err := h.deps.Users.ByID(c.Request.Context(), req.UserID); err != nil {
		respondLookupError(c, h, err, "user")
		return
	}

	crop := store.UserCrop{
		UserID:       req.UserID,
		CropName:     req.CropName,
		PlantingDate: plantingDate,
		AreaHectares: req.AreaHectares,
	}
	if err := h.deps.Crops.Create(c.Request.Context(), &crop); err != nil {
		h.logger.Error("creating crop failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creating crop failed"})
		return
	}
	c.JSON(http.StatusCreated, crop)
}

func (h *handlers) listActiveCrops(c *gin.Context) {
	crops, err := h.deps.Crops.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("listing crops failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": crops})
}

func (h *handlers) getCrop(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	crop, err := h.deps.Crops.ByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, h, err, "crop")
		return
	}
	c.JSON(http.StatusOK, crop)
}

func (h *handlers) updateCropStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !cropStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of planted, growing, harvesting, harvested, failed"})
		return
	}
	if err := h.deps.Crops.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondLookupError(c, h, err, "crop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func (h *handlers) deleteCrop(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.deps.Crops.Delete(c.Request.Context(), id); err != nil {
		respondLookupError(c, h, err, "crop")
		return
	}
	c.Status(http.StatusNoContent)
}
