package controllers

import (
	"net/http"
	"strconv"
	"time"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Svc   *services.NotificationService
	Smart *services.SmartNotificationService
}

func NewNotificationController(svc *services.NotificationService, smart *services.SmartNotificationService) *NotificationController {
	return &NotificationController{Svc: svc, Smart: smart}
}

func (h *NotificationController) GetPreferences(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	prefs, err := h.Svc.Preferences(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *NotificationController) UpdatePreferences(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req services.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := h.Svc.UpdatePreferences(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *NotificationController) GetHistory(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.Svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs, "count": len(logs)})
}

// GetPending lists unsent scheduled notifications due in the next 24h.
func (h *NotificationController) GetPending(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	pending, err := h.Smart.PendingNotifications(c.Request.Context(), userID, 24*time.Hour)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// GenerateSmart plans personalized notifications for the user on demand.
func (h *NotificationController) GenerateSmart(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	created, err := h.Smart.GenerateSmartNotifications(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// MarkSent acknowledges a scheduled notification as delivered.
func (h *NotificationController) MarkSent(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.Smart.MarkSent(c.Request.Context(), userID, uint(notificationID)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": notificationID})
}
