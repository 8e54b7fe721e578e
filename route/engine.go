package route

import (
	"homegallery/logger"
	mw "homegallery/middlewares"
	"homegallery/web"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Engine returns a router with the middleware every route shares.
func Engine(log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(mw.RequestLog(log), gin.Recovery(), mw.Tracing())
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", mw.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.SetHTMLTemplate(web.Templates())
	return router
}
