package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/service"
)

// getPrescriptions serves harvest advice for a single crop (?crop_id=) or
// every active crop a user owns (?user_id=).
func (h *handlers) getPrescriptions(c *gin.Context) {
	cropIDStr := c.Query("crop_id")
	userIDStr := c.Query("user_id")

	switch {
	case cropIDStr != "":
		cropID, err := strconv.ParseUint(cropIDStr, 10, 32)
		if err != nil || cropID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crop_id"})
			return
		}
		p, err := h.deps.Advisories.Prescribe(c.Request.Context(), uint(cropID))
		if err != nil {
			respondLookupError(c, h, err, "crop")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []service.Prescription{*p}})

	case userIDStr != "":
		userID, err := strconv.ParseUint(userIDStr, 10, 32)
		if err != nil || userID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		prescriptions, err := h.deps.Advisories.PrescribeForUser(c.Request.Context(), uint(userID))
		if err != nil {
			respondLookupError(c, h, err, "user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": prescriptions})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop_id or user_id is required"})
	}
}
