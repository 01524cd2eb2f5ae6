package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/timer/internal/handler"
	"pomodoro/timer/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth    *handler.AuthHandler
	Timer   *handler.TimerHandler
	Task    *handler.TaskHandler
	History *handler.HistoryHandler
}

func New(tokens middleware.TokenParser, handlers Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	// EventSource cannot send headers, so the stream also takes ?access_token.
	api.GET("/timer/events", middleware.Auth(tokens, true), handlers.Timer.Events)

	protected := api.Group("")
	protected.Use(middleware.Auth(tokens, false))
	protected.GET("/auth/me", handlers.Auth.Me)

	timer := protected.Group("/timer")
	timer.GET("/state", handlers.Timer.GetState)
	timer.GET("/history", handlers.Timer.GetHistory)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/resume", handlers.Timer.Resume)
	timer.POST("/stop", handlers.Timer.Stop)
	timer.POST("/reset", handlers.Timer.Reset)
	timer.POST("/confirm", handlers.Timer.Confirm)
	timer.POST("/mode", handlers.Timer.SwitchMode)
	timer.PUT("/settings", handlers.Timer.UpdateSettings)

	tasks := protected.Group("/tasks")
	tasks.GET("", handlers.Task.List)
	tasks.POST("", handlers.Task.Create)
	tasks.GET("/:id", handlers.Task.Get)
	tasks.PUT("/:id", handlers.Task.Update)
	tasks.DELETE("/:id", handlers.Task.Delete)

	protected.GET("/sessions", handlers.History.ListSessions)
	protected.GET("/stats", handlers.History.Stats)

	return engine
}
