package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yukikurage/sprint-planner-api/internal/app"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
)

// RegisterRoutes mounts the health check and the /api tree on r.
// aiLimiter throttles the task suggestion endpoint.
func RegisterRoutes(r *gin.Engine, svc *app.Services, aiLimiter *rate.Limiter) {
	authHandler := NewAuthHandler(svc.Auth)
	productHandler := NewProductHandler(svc.Products)
	sprintHandler := NewSprintHandler(svc.Sprints)
	taskHandler := NewTaskHandler(svc.Tasks)
	worklogHandler := NewWorklogHandler(svc.Worklogs)
	calendarHandler := NewCalendarHandler(svc.Calendars)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Sprint Planner API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Product routes (protected)
		products := api.Group("/products")
		products.Use(middleware.RequireAuth())
		{
			products.POST("", productHandler.CreateProduct)
			products.GET("", productHandler.ListProducts)
			products.POST("/join", productHandler.JoinProduct)

			product := products.Group("/:product_id", middleware.RequireProductAccess())
			{
				owner := middleware.RequireProductOwner()

				product.GET("", productHandler.GetProduct)
				product.PUT("", owner, productHandler.UpdateProduct)
				product.DELETE("", owner, productHandler.DeleteProduct)
				product.POST("/regenerate-code", owner, productHandler.RegenerateInviteCode)
				product.DELETE("/members/:user_id", owner, productHandler.RemoveMember)

				product.GET("/versions", productHandler.ListVersions)
				product.POST("/versions", productHandler.CreateVersion)
				product.PUT("/versions/:version_id", productHandler.RenameVersion)
				product.DELETE("/versions/:version_id", owner, productHandler.DeleteVersion)
				product.GET("/versions/:version_id/features", productHandler.ListFeatures)
				product.POST("/versions/:version_id/features", productHandler.CreateFeature)
				product.DELETE("/features/:feature_id", owner, productHandler.DeleteFeature)

				product.GET("/sprints", sprintHandler.ListSprints)
				product.POST("/sprints", sprintHandler.CreateSprint)
			}
		}

		// Sprint routes (protected)
		sprints := api.Group("/sprints/:sprint_id")
		sprints.Use(middleware.RequireAuth(), middleware.RequireSprintAccess())
		{
			sprints.GET("", sprintHandler.GetSprint)
			sprints.PATCH("", sprintHandler.UpdateSprint)
			sprints.DELETE("", middleware.RequireProductOwner(), sprintHandler.DeleteSprint)
			sprints.POST("/schedule", sprintHandler.Schedule)
			sprints.GET("/gantt", sprintHandler.Gantt)
			sprints.GET("/burndown", sprintHandler.Burndown)
			sprints.GET("/export.xlsx", sprintHandler.Export)
			sprints.GET("/worklogs", worklogHandler.ListSprintWorklogs)
			sprints.GET("/tasks", taskHandler.ListTasks)
			sprints.POST("/tasks", taskHandler.CreateTask)
			sprints.POST("/suggestions", middleware.RateLimit(aiLimiter), taskHandler.SuggestTasks)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks/:task_id")
		tasks.Use(middleware.RequireAuth(), middleware.RequireTaskAccess())
		{
			tasks.GET("", taskHandler.GetTask)
			tasks.PATCH("", taskHandler.UpdateTask)
			tasks.DELETE("", taskHandler.DeleteTask)
			tasks.POST("/dependencies", taskHandler.AddDependency)
			tasks.DELETE("/dependencies/:predecessor_id", taskHandler.RemoveDependency)
			tasks.GET("/worklogs", worklogHandler.ListTaskWorklogs)
			tasks.POST("/worklogs", worklogHandler.CreateWorklog)
			tasks.DELETE("/worklogs/:worklog_id", worklogHandler.DeleteWorklog)
		}

		// Calendar of the current user (protected)
		cal := api.Group("/calendar")
		cal.Use(middleware.RequireAuth())
		{
			cal.GET("/work-week", calendarHandler.GetWorkWeek)
			cal.PUT("/work-week", calendarHandler.UpdateWorkWeek)
			cal.GET("/availability", calendarHandler.ListAvailability)
			cal.POST("/availability", calendarHandler.AddAvailability)
			cal.DELETE("/availability/:id", calendarHandler.DeleteAvailability)
			cal.GET("/locations", calendarHandler.ListUserLocations)
			cal.POST("/locations", calendarHandler.AddUserLocation)
			cal.DELETE("/locations/:id", calendarHandler.DeleteUserLocation)
			cal.GET("/off-days", calendarHandler.ListOffDays)
			cal.POST("/off-days", calendarHandler.AddOffDay)
			cal.DELETE("/off-days/:id", calendarHandler.DeleteOffDay)
		}

		// Shared holiday calendars (protected)
		locations := api.Group("/locations")
		locations.Use(middleware.RequireAuth())
		{
			locations.GET("", calendarHandler.ListLocations)
			locations.POST("/import", calendarHandler.ImportHolidays)
			locations.GET("/:code", calendarHandler.GetLocation)
			locations.POST("/:code/holidays", calendarHandler.AddHoliday)
			locations.DELETE("/:code/holidays/:id", calendarHandler.DeleteHoliday)
		}
	}
}
