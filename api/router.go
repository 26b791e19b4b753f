package api

import (
	"github.com/gin-gonic/gin"

	"mediabatch/config"
	"mediabatch/task"
)

func SetupRouter(runner *task.Runner, store *SessionStore, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	h := NewHandler(runner, store, cfg)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg))
	{
		v1.POST("/batches", h.handleCreateBatch)
		v1.GET("/batches", h.handleListBatches)
		v1.GET("/batches/:sessionId", h.handleGetBatch)
		v1.GET("/batches/:sessionId/events", h.handleEvents)

		v1.GET("/tasks", h.handleListTasks)
	}
	return r
}
