package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type SchedulerController struct {
	Svc *services.SchedulerService
}

func NewSchedulerController(svc *services.SchedulerService) *SchedulerController {
	return &SchedulerController{Svc: svc}
}

func (h *SchedulerController) GetStatus(c *gin.Context) {
	status, err := h.Svc.Status(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type triggerReminderRequest struct {
	Message string `json:"message"`
}

// TriggerReminder sends an immediate reminder to the calling user.
func (h *SchedulerController) TriggerReminder(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req triggerReminderRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.Svc.TriggerImmediateReminder(c.Request.Context(), userID, req.Message); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": true})
}

// TriggerReport sends the named report (daily, weekly, monthly) right now.
func (h *SchedulerController) TriggerReport(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	reportType := c.Param("type")
	if err := h.Svc.TriggerReport(c.Request.Context(), userID, reportType); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": reportType})
}
