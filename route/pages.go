package route

import (
	"homegallery/controller"

	"github.com/gin-gonic/gin"
)

func Pages(router *gin.Engine, gallery *controller.Gallery) {
	router.GET("/", gallery.Index)
	router.GET("/profile", gallery.Profile)
	router.GET("/cctv", gallery.CCTV)
	router.GET("/faces", gallery.Faces)
}

func Auth(router *gin.Engine) {
	router.GET("/login", controller.LoginPage)
	router.POST("/login", controller.NotImplemented)
	router.GET("/signup", controller.SignupPage)
	router.POST("/signup", controller.NotImplemented)
	router.GET("/logout", controller.NotImplemented)
	router.POST("/logout", controller.NotImplemented)
}
