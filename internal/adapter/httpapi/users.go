package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Arkie13/agrialert/internal/store"
)

type createUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
		return
	}

	user := store.User{
		Name:     req.Name,
		Email:    req.Email,
		Location: req.Location,
		Lat:      req.Lat,
		Lng:      req.Lng,
	}

	// Resolve coordinates from the location when the caller did not supply
	// them. The geocoder itself is fallback-safe, so this never fails the
	// request.
	if user.Lat == 0 && user.Lng == 0 && req.Location != "" && h.deps.Geocoder != nil {
		place, err := h.deps.Geocoder.Locate(c.Request.Context(), req.Location)
		if err == nil {
			user.Lat = place.Lat
			user.Lng = place.Lng
		}
	}

	if err := h.deps.Users.Create(c.Request.Context(), &user); err != nil {
		h.logger.Error("creating user failed", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creating user failed"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.deps.Users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("listing users failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.deps.Users.ByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, h, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) listUserCrops(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	crops, err := h.deps.Crops.ByUser(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("listing user crops failed", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": crops})
}

// parseID reads the :id path parameter, writing a 400 response itself when
// the value is not a positive integer.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func respondLookupError(c *gin.Context, h *handlers, err error, noun string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": noun + " not found"})
		return
	}
	h.logger.Error("lookup failed", "resource", noun, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
}
