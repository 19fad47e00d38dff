package controllers

import (
	"context"
	"net/http"
	"strconv"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	Svc *services.AlertService
}

func NewAlertController(svc *services.AlertService) *AlertController {
	return &AlertController{Svc: svc}
}

func (h *AlertController) ListAlerts(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	alerts, err := h.Svc.ActiveAlerts(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (h *AlertController) MarkRead(c *gin.Context) {
	h.update(c, h.Svc.MarkRead)
}

func (h *AlertController) Dismiss(c *gin.Context) {
	h.update(c, h.Svc.Dismiss)
}

func (h *AlertController) update(c *gin.Context, op func(ctx context.Context, userID, alertID uint) error) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	alertID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	if err := op(c.Request.Context(), userID, uint(alertID)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": alertID})
}
