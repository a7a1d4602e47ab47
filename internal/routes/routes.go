package routes

import (
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP surface: the driver API the mobile app talks to
// and the JWT-protected admin console API.
func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(ginlogger.SetLogger())
	r.Use(gin.Recovery())

	AuthRoutes(r)
	DriverRoutes(r)
	AdminRoutes(r)

	return r
}
