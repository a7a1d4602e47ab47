package routes

import (
	"loadtrack/internal/controllers"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.AdminRegister)
		auth.POST("/login", controllers.AdminLogin)
	}
}
