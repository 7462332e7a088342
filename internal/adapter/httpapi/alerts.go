package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arkie13/agrialert/internal/store"
)

func (h *handlers) listAlerts(c *gin.Context) {
	p := parsePagination(c)
	status := c.Query("status")
	if status != "" && status != store.AlertActive && status != store.AlertResolved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or resolved"})
		return
	}

	// Fetch one extra row to learn whether another page exists.
	alerts, err := h.deps.Alerts.List(c.Request.Context(), status, p.Before, p.Limit+1)
	if err != nil {
		h.logger.Error("listing alerts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(alerts) > p.Limit
	if hasMore {
		alerts = alerts[:p.Limit]
	}
	var nextCursor string
	if hasMore && len(alerts) > 0 {
		nextCursor = alerts[len(alerts)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, cursorResponse{Data: alerts, NextCursor: nextCursor, HasMore: hasMore})
}

func (h *handlers) getAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	alert, err := h.deps.Alerts.Get(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, h, err, "alert")
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *handlers) listAlertNotifications(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	logs, err := h.deps.Notifications.ByAlert(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("listing notifications failed", "alert_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
