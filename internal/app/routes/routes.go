package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/unisphere-scheduler/internal/app/controllers"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	scheduleController *controllers.ScheduleController,
	authMiddleware *middleware.AuthMiddleware,
	health gin.HandlerFunc,
) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", health)

	// Every schedule route needs a token; changing the schedule of record is admin only
	schedule := v1.Group("/schedule")
	schedule.Use(authMiddleware.JWTAuth())
	{
		schedule.GET("", scheduleController.GetSchedule)
		schedule.GET("/info", scheduleController.GetScheduleInfo)

		admin := schedule.Group("")
		admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		admin.POST("/generate", scheduleController.GenerateSchedule)
		admin.DELETE("", scheduleController.ClearSchedule)
	}
}
