package routes

import (
	"loadtrack/internal/controllers"

	"github.com/gin-gonic/gin"
)

// DriverRoutes wires the mobile app endpoints. Drivers authenticate by
// validating their company/SCAC pair, not by JWT.
func DriverRoutes(r *gin.Engine) {
	driver := r.Group("/api/driver")
	{
		driver.POST("/validate-driver", controllers.ValidateDriver)
		driver.GET("/profile/:driverId", controllers.GetDriverProfile)
		driver.PUT("/profile", controllers.UpdateDriverProfile)
		driver.POST("/set-language", controllers.SetDriverLanguage)
		driver.POST("/customers", controllers.GetCustomersForDriver)
		driver.POST("/update-location", controllers.UpdateDriverLocation)

		driver.GET("/equipment-types", controllers.GetEquipmentTypes)
		driver.POST("/truck-info", controllers.SaveOrUpdateTruckInfo)
		driver.GET("/truck-info/:loadId", controllers.GetTruckInfo)
		driver.POST("/new-load", controllers.CreateNewLoad)
		driver.GET("/last-load/:driverId", controllers.GetLastLoad)
		driver.GET("/latest-loads/:driverId", controllers.GetLatestLoads)
		driver.GET("/load/:loadId", controllers.GetLoadDetail)

		driver.POST("/upload", controllers.SaveUpload)
		driver.PUT("/upload/:loadId", controllers.UpdateUpload)
		driver.GET("/upload/:loadId", controllers.GetUploads)
		driver.POST("/delivery", controllers.SaveDeliveryInfo)
		driver.GET("/delivery/:loadId", controllers.GetDeliveryInfo)

		driver.POST("/send-pickup-email/:loadId", controllers.SendPickupEmail)
		driver.POST("/send-delivery-email/:loadId", controllers.SendDeliveryEmail)
	}
}
