package server

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var serverStartTime = time.Now()

// SetupRouter creates and configures the Gin router for the six job
// commands plus the event stream and media range endpoints.
func SetupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// Job command endpoints
	r.POST("/video-info", api.GetVideoInfo)
	r.POST("/extract-audio", api.ExtractAudio)
	r.POST("/detect-silences", api.DetectSilences)
	r.POST("/process-video", api.ProcessVideo)
	r.POST("/cancel-export", api.CancelExport)
	r.POST("/batch-process", api.BatchProcess)
	r.POST("/audio-statistics", api.AudioStatistics)

	// Progress/peak event stream
	r.GET("/events", api.Events)

	// Local byte-range media server
	r.GET("/media", api.MediaRange)

	// Health check with system stats
	r.GET("/health", func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptimeSeconds := int64(time.Since(serverStartTime).Seconds())
		ramMB := float64(memStats.Alloc) / 1024 / 1024

		c.JSON(200, gin.H{
			"status":         "ok",
			"uptime_seconds": uptimeSeconds,
			"ram_mb":         fmt.Sprintf("%.2f", ramMB),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
		})
	})

	return r
}

// corsMiddleware handles CORS for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
