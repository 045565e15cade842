package api

import (
	"log"
	stdhttp "net/http"

	"bookeosync/internal/config"
	h "bookeosync/internal/http/handlers"
	"bookeosync/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the webhook receiver and the small operational surface.
func NewRouter(env config.Env, sys h.SystemHandler, wh h.WebhookHandler, sync h.SyncHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", sys.Health)
		api.GET("/db-check", sys.DBCheck)

		api.POST("/webhooks/bookeo", wh.Receive)

		api.POST("/sync/run", middleware.RequireSyncToken(env.SyncTokenSecret), sync.Run)
	}

	return r
}
