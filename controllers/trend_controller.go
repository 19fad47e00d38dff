package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type TrendController struct {
	Trends  *services.TrendService
	Monitor *services.MonitorService
}

func NewTrendController(trends *services.TrendService, monitor *services.MonitorService) *TrendController {
	return &TrendController{Trends: trends, Monitor: monitor}
}

// GetTrends recomputes and returns the full trend report.
func (h *TrendController) GetTrends(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))
	report, err := h.Trends.Analyze(c.Request.Context(), userID, days)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPatterns returns the stored behavior patterns without recomputing.
func (h *TrendController) GetPatterns(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	patterns, err := h.Trends.Patterns(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := gin.H{}
	for ptype, p := range patterns {
		var data any
		if err := json.Unmarshal(p.PatternData, &data); err != nil {
			data = nil
		}
		out[ptype] = gin.H{
			"data":         data,
			"confidence":   p.ConfidenceScore,
			"last_updated": p.LastUpdated,
		}
	}
	c.JSON(http.StatusOK, out)
}

// RunMonitoring triggers a full monitoring pass on demand.
func (h *TrendController) RunMonitoring(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	result, err := h.Monitor.Run(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
