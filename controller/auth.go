package controller

import (
	"homegallery/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Accounts are not implemented yet. The GET pages render their forms, every
// submission answers 501 so nothing is silently accepted.

func LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

func SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{"Title": "Sign up"})
}

func NotImplemented(c *gin.Context) {
	middlewares.Log(c).WithField("path", c.Request.URL.Path).Warn("authentication is not implemented")
	c.JSON(http.StatusNotImplemented, gin.H{"error": "Authentication is not implemented"})
}
