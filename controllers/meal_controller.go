package controllers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

type MealController struct {
	Meals    *services.MealService
	Analyzer services.MealAnalyzer
	Sessions *services.SessionService
}

func NewMealController(meals *services.MealService, analyzer services.MealAnalyzer, sessions *services.SessionService) *MealController {
	return &MealController{Meals: meals, Analyzer: analyzer, Sessions: sessions}
}

type analyzeMealRequest struct {
	Image string `json:"image" binding:"required"` // data-URI base64
}

// AnalyzeMeal uploads the photo, runs detection and opens an analysis
// session. The meal is not saved until the session is confirmed.
func (h *MealController) AnalyzeMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req analyzeMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := utils.UploadMealImage(c.Request.Context(), req.Image, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Analyzer.AnalyzeImage(c.Request.Context(), os.Getenv("S3_BUCKET"), key)
	if err != nil {
		respondErr(c, err)
		return
	}

	sessionID, err := h.Sessions.Create(c.Request.Context(), userID, key, result)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"result":     result,
	})
}

type confirmMealRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Foods     []string `json:"foods"`  // clarification answer, when asked
	AteAt     string   `json:"ate_at"` // RFC3339, defaults to now
}

// ConfirmMeal resolves the analysis session into a persisted meal. A
// session that asked for clarification needs the foods list.
func (h *MealController) ConfirmMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req confirmMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Sessions.Get(c.Request.Context(), req.SessionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if session.UserID != userID {
		unauthorized(c)
		return
	}

	result := session.Result
	if len(req.Foods) > 0 {
		result = services.EstimateFoodsByName(req.Foods)
		session.Result = result
		// retries reuse the clarified result
		_ = h.Sessions.Update(c.Request.Context(), session)
	}
	if result == nil || result.NeedClarification {
		question := "Could you list the foods in your meal?"
		if result != nil && result.Question != "" {
			question = result.Question
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"need_clarification": true,
			"question":           question,
		})
		return
	}

	ateAt := time.Now()
	if req.AteAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.AteAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ate_at"})
			return
		}
		ateAt = parsed
	}

	meal, err := h.Meals.LogMeal(c.Request.Context(), userID, result.Foods, session.ImageKey, ateAt)
	if err != nil {
		respondErr(c, err)
		return
	}
	_ = h.Sessions.Delete(c.Request.Context(), session.ID)

	c.JSON(http.StatusCreated, meal)
}

func (h *MealController) ListMeals(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	meals, err := h.Meals.Meals(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (h *MealController) DeleteMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	mealID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}

	if err := h.Meals.Delete(c.Request.Context(), userID, uint(mealID)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": mealID})
}
