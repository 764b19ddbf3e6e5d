package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors.Default())

	router.GET("/healthz", handler.healthz)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/challenges/:id/complete", handler.completeChallenge)
		v1.POST("/packs/:id/finalize", handler.finalizePack)
		v1.POST("/content/:id/views", handler.registerView)

		v1.GET("/users/:id/progress", handler.getProgress)
		v1.GET("/users/:id/packs", handler.listPacks)
		v1.GET("/users/:id/packs/:packId", handler.getPack)

		v1.PUT("/users/:id/follow", handler.follow)
		v1.DELETE("/users/:id/follow", handler.unfollow)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
