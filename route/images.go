package route

import (
	"homegallery/controller"
	mw "homegallery/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Images registers the image endpoints behind the rate limiter.
func Images(router *gin.Engine, gallery *controller.Gallery, limiter *mw.RateLimiter) {
	images := router.Group("/")
	images.Use(limiter.Middleware())
	images.GET("/fetch_image", gallery.FetchImage)
	images.GET("/fetch_face_image/:index", gallery.FetchFaceImage)
}

func Ops(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
