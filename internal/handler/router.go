package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS and every API route bound.
func NewRouter(h *NewsHandler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	news := r.Group("/api/news")
	{
		news.POST("/today", h.IngestToday)
		news.POST("/date/:date", h.IngestDate)
		news.GET("", h.List)
		news.GET("/last7days", h.Last7Days)
		news.GET("/range", h.Range)
		news.GET("/batch", h.Batch)
		news.GET("/statistics", h.Statistics)
		news.PUT("/:id", h.Update)
		news.PUT("/:id/status", h.UpdateStatus)
	}

	return r
}
