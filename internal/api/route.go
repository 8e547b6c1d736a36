package api

import (
	"Chirper/internal/api/middleware"
	"Chirper/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		apiGroup.GET("/health", group.HealthHandler.Check)

		tweetGroup := apiGroup.Group("/tweets")
		{
			tweetGroup.POST("/generate", group.TweetHandler.Generate)
			tweetGroup.GET("/history", group.TweetHandler.GetHistory)
			tweetGroup.GET("/:tweet_id/metrics", group.TweetHandler.GetMetrics)
			tweetGroup.DELETE("/:tweet_id", group.TweetHandler.Delete)
		}
	}

	return r
}
