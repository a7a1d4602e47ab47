package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/config"
	"loadtrack/internal/models"
	"loadtrack/internal/photos"
	"loadtrack/internal/registry"
)

type truckInfoInput struct {
	DriverID         uint `json:"driver_id"`
	LoadID           uint `json:"load_id"`
	ForceNewLoad     bool `json:"force_new_load"`
	ValidateRequired bool `json:"validate_required"`

	TruckNumber   *string `json:"truck_number"`
	TrailerNumber *string `json:"trailer_number"`
	CustomerID    *uint   `json:"customer_id"`
	CustomerName  *string `json:"customer_name"`
	LoadNumber    *string `json:"load_number"`
	PickupNumber  *string `json:"pickup_number"`
	OrderNumber   *string `json:"order_number"`
	ReeferPreCool *string `json:"reefer_pre_cool"`
	EquipmentType *string `json:"equipment_type"`

	Status       *string `json:"status"`
	UpdateStatus bool    `json:"update_status"`
}

func loadSummary(load *models.Load) gin.H {
	return gin.H{
		"load_id":         load.ID,
		"load_number":     load.LoadNumber,
		"pickup_number":   load.PickupNumber,
		"order_number":    load.OrderNumber,
		"truck_number":    load.TruckNumber,
		"trailer_number":  load.TrailerNumber,
		"customer_name":   load.CustomerName,
		"reefer_pre_cool": load.ReeferPreCool,
		"equipment_type":  load.EquipmentType,
		"status":          load.Status,
	}
}

// SaveOrUpdateTruckInfo is the step-1 endpoint: create a new load or merge
// step-1 fields into an existing one.
func SaveOrUpdateTruckInfo(c *gin.Context) {
	var input truckInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if input.DriverID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id is required"})
		return
	}

	load, created, err := Reg.SaveTruckInfo(registry.TruckInfoInput{
		DriverID:         input.DriverID,
		LoadID:           input.LoadID,
		ForceNewLoad:     input.ForceNewLoad,
		ValidateRequired: input.ValidateRequired,
		TruckNumber:      input.TruckNumber,
		TrailerNumber:    input.TrailerNumber,
		CustomerID:       input.CustomerID,
		CustomerName:     input.CustomerName,
		LoadNumber:       input.LoadNumber,
		PickupNumber:     input.PickupNumber,
		OrderNumber:      input.OrderNumber,
		ReeferPreCool:    input.ReeferPreCool,
		EquipmentType:    input.EquipmentType,
		Status:           input.Status,
		UpdateStatus:     input.UpdateStatus,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	statusCode := http.StatusOK
	message := "Step 1 data updated successfully"
	if created {
		statusCode = http.StatusCreated
		message = "Step 1 data saved successfully"
	}

	body := loadSummary(load)
	body["message"] = message
	c.JSON(statusCode, body)
}

// GetTruckInfo returns the step-1 summary for a load.
func GetTruckInfo(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}
	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, loadSummary(load))
}

// GetEquipmentTypes returns the closed equipment-type enumeration.
func GetEquipmentTypes(c *gin.Context) {
	out := make([]gin.H, 0, len(models.EquipmentTypes))
	for _, t := range models.EquipmentTypes {
		out = append(out, gin.H{"id": t.ID, "name": t.Name})
	}
	c.JSON(http.StatusOK, gin.H{"equipment_types": out})
}

// CreateNewLoad starts an empty load for a driver.
func CreateNewLoad(c *gin.Context) {
	var input struct {
		DriverID uint `json:"driver_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.DriverID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id is required"})
		return
	}

	load, _, err := Reg.SaveTruckInfo(registry.TruckInfoInput{DriverID: input.DriverID, ForceNewLoad: true})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "New load created successfully",
		"load_id": load.ID,
		"status":  load.Status,
	})
}

// GetLastLoad returns the driver's newest load still pending pickup or in
// transit, so the app can resume an interrupted flow.
func GetLastLoad(c *gin.Context) {
	driverID, err := strconv.ParseUint(c.Param("driverId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID format"})
		return
	}

	var driver models.DriverProfile
	if err := config.DB.First(&driver, uint(driverID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	load, err := Reg.LastActiveLoad(driver.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	var customerID *uint
	var customer models.Customer
	err = config.DB.Joins("Company").
		Where("LOWER(customers.name) = LOWER(?)", load.CustomerName).
		Where("LOWER(\"Company\".name) = LOWER(?)", driver.Company).
		First(&customer).Error
	if err == nil {
		customerID = &customer.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              load.ID,
		"truck_number":    load.TruckNumber,
		"trailer_number":  load.TrailerNumber,
		"load_number":     load.LoadNumber,
		"pickup_number":   load.PickupNumber,
		"order_number":    load.OrderNumber,
		"customer_name":   load.CustomerName,
		"customer_id":     customerID,
		"reefer_pre_cool": load.ReeferPreCool,
		"status":          load.Status,
	})
}

// GetLatestLoads returns the driver's most recent loads for the homepage.
func GetLatestLoads(c *gin.Context) {
	driverID, err := strconv.ParseUint(c.Param("driverId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID format"})
		return
	}

	var driver models.DriverProfile
	if err := config.DB.First(&driver, uint(driverID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	loads, err := Reg.LatestLoads(driver.ID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(loads))
	for i := range loads {
		out = append(out, gin.H{
			"load_id":       loads[i].ID,
			"load_number":   loads[i].LoadNumber,
			"customer_name": loads[i].CustomerName,
			"status":        loads[i].Status,
		})
	}
	c.JSON(http.StatusOK, gin.H{"loads": out})
}

// GetLoadDetail returns the full per-load view with step completion flags
// and every stored file grouped by category.
func GetLoadDetail(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}

	load, err := Reg.GetLoad(uint(loadID))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	stored, err := Ledger.List(load.ID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fileMap := map[models.PhotoCategory][]photos.PhotoRef{}
	for _, cat := range models.PhotoCategories {
		fileMap[cat] = []photos.PhotoRef{}
	}
	trailerUploaded := false
	for _, p := range stored {
		fileMap[p.Category] = append(fileMap[p.Category], photos.PhotoRef{ID: p.ID, URL: Media.URLFor(p.StoredKey)})
		if p.Category == models.PhotoTrailer {
			trailerUploaded = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"load_id":                   load.ID,
		"load_number":               load.LoadNumber,
		"pickup_number":             load.PickupNumber,
		"customer_name":             load.CustomerName,
		"truck_number":              load.TruckNumber,
		"trailer_number":            load.TrailerNumber,
		"order_number":              load.OrderNumber,
		"equipment_type":            load.EquipmentType,
		"reefer_pre_cool":           load.ReeferPreCool,
		"status":                    load.Status,
		"pickup_info_completed":     load.Status != models.StatusPendingPickup,
		"trailer_upload_completed":  trailerUploaded,
		"delivery_info_completed":   load.Status == models.StatusDelivered,
		"files":                     fileMap,
	})
}
