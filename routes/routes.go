package routes

import (
	"net/http"

	"backend/controllers"
	"backend/middlewares"

	"github.com/gin-gonic/gin"
)

// Controllers bundles everything the router wires up.
type Controllers struct {
	Dashboard     *controllers.DashboardController
	Meals         *controllers.MealController
	Trends        *controllers.TrendController
	Alerts        *controllers.AlertController
	Notifications *controllers.NotificationController
	Scheduler     *controllers.SchedulerController
	Realtime      *controllers.RealtimeController
	Devices       *controllers.DeviceController
}

func SetupRouter(c Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middlewares.AuthMiddleware())
	{
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/daily", c.Dashboard.GetDaily)
			dashboard.GET("/weekly", c.Dashboard.GetWeekly)
			dashboard.GET("/monthly", c.Dashboard.GetMonthly)
			dashboard.GET("/history", c.Dashboard.GetMealHistory)
			dashboard.GET("/goals", c.Dashboard.GetGoals)
			dashboard.PUT("/goals", c.Dashboard.SetGoals)
		}

		meals := api.Group("/meals")
		{
			meals.POST("/analyze", c.Meals.AnalyzeMeal)
			meals.POST("/confirm", c.Meals.ConfirmMeal)
			meals.GET("", c.Meals.ListMeals)
			meals.DELETE("/:id", c.Meals.DeleteMeal)
		}

		trends := api.Group("/trends")
		{
			trends.GET("", c.Trends.GetTrends)
			trends.GET("/patterns", c.Trends.GetPatterns)
			trends.POST("/monitor", c.Trends.RunMonitoring)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("", c.Alerts.ListAlerts)
			alerts.PUT("/:id/read", c.Alerts.MarkRead)
			alerts.PUT("/:id/dismiss", c.Alerts.Dismiss)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("/preferences", c.Notifications.GetPreferences)
			notifications.PUT("/preferences", c.Notifications.UpdatePreferences)
			notifications.GET("/history", c.Notifications.GetHistory)
			notifications.GET("/pending", c.Notifications.GetPending)
			notifications.POST("/generate", c.Notifications.GenerateSmart)
			notifications.PUT("/:id/sent", c.Notifications.MarkSent)
		}

		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/status", c.Scheduler.GetStatus)
			scheduler.POST("/reminder", c.Scheduler.TriggerReminder)
			scheduler.POST("/report/:type", c.Scheduler.TriggerReport)
		}

		api.POST("/devices", c.Devices.RegisterDevice)
		api.GET("/ws", c.Realtime.EventsWS)
	}

	return r
}
