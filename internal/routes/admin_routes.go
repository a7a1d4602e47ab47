package routes

import (
	"loadtrack/internal/controllers"
	"loadtrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/loads", controllers.AdminListLoads)
		admin.GET("/loads/:loadId", controllers.AdminGetLoad)
		admin.POST("/loads/:loadId/resend", controllers.AdminResendReport)
		admin.GET("/export/loads", controllers.AdminExportLoads)

		admin.GET("/companies", controllers.AdminListCompanies)
		admin.POST("/companies", controllers.AdminCreateCompany)
		admin.POST("/companies/import", controllers.AdminImportCompanies)
		admin.POST("/customers", controllers.AdminCreateCustomer)
		admin.DELETE("/customers/:customerId", controllers.AdminDeleteCustomer)
	}
}
