package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"gorm.io/gorm"

	"loadtrack/internal/config"
	"loadtrack/internal/models"
)

// --- Helper Structs for Request Bodies ---

type validateDriverInput struct {
	LicenseNumber string `json:"license_number"`
	Company       string `json:"company"`
	SCACCode      string `json:"scac_code"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
}

type updateProfileInput struct {
	DriverID      uint    `json:"driver_id"`
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	LicenseNumber *string `json:"license_number"`
	Company       *string `json:"company"`
	DeviceToken   *string `json:"device_token"`
}

type setLanguageInput struct {
	DriverID uint   `json:"driver_id"`
	Language string `json:"language"`
}

type locationInput struct {
	DriverID  uint     `json:"driver_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ValidateDriver checks the company/SCAC pair against the registered
// carriers and gets-or-creates the driver profile by license number.
func ValidateDriver(c *gin.Context) {
	var input validateDriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if input.LicenseNumber == "" || input.Company == "" || input.SCACCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "License number, company, and SCAC code are required"})
		return
	}

	var company models.Company
	err := config.DB.
		Where("LOWER(name) = LOWER(?) AND LOWER(scac_code) = LOWER(?)", input.Company, input.SCACCode).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{
				"access_granted": false,
				"error":          "Company/SCAC combination not recognized",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	var driver models.DriverProfile
	err = config.DB.Where("license_number = ?", input.LicenseNumber).First(&driver).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		driver = models.DriverProfile{
			Name:          input.Name,
			Phone:         input.Phone,
			Company:       input.Company,
			SCACCode:      input.SCACCode,
			LicenseNumber: input.LicenseNumber,
			Language:      models.LanguageEnglish,
		}
		if err := config.DB.Create(&driver).Error; err != nil {
			if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "phone number already registered to another driver"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create driver: " + err.Error()})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	default:
		// Refresh carrier info when it changed since last validation.
		if driver.Company != input.Company || driver.SCACCode != input.SCACCode {
			driver.Company = input.Company
			driver.SCACCode = input.SCACCode
			if err := config.DB.Model(&driver).
				Updates(map[string]interface{}{"company": input.Company, "scac_code": input.SCACCode}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update driver: " + err.Error()})
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"access_granted": true, "driver_id": driver.ID})
}

// GetDriverProfile returns a driver's stored profile.
func GetDriverProfile(c *gin.Context) {
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
		logrus.WithError(err).Error("Error fetching driver profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch driver profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             driver.ID,
		"name":           driver.Name,
		"phone":          driver.Phone,
		"company":        driver.Company,
		"license_number": driver.LicenseNumber,
		"language":       driver.Language,
		"device_token":   driver.DeviceToken,
	})
}

// UpdateDriverProfile merges the provided profile fields.
func UpdateDriverProfile(c *gin.Context) {
	var input updateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if input.DriverID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id is required"})
		return
	}

	var driver models.DriverProfile
	if err := config.DB.First(&driver, input.DriverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}

	if input.Name != nil && *input.Name != "" {
		driver.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil && *input.Phone != "" {
		driver.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.LicenseNumber != nil && *input.LicenseNumber != "" {
		driver.LicenseNumber = strings.TrimSpace(*input.LicenseNumber)
	}
	if input.Company != nil && *input.Company != "" {
		driver.Company = strings.TrimSpace(*input.Company)
	}
	if input.DeviceToken != nil {
		driver.DeviceToken = *input.DeviceToken
	}

	if err := config.DB.Save(&driver).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "phone or license number already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"driver": gin.H{
			"id":             driver.ID,
			"name":           driver.Name,
			"phone":          driver.Phone,
			"license_number": driver.LicenseNumber,
			"company":        driver.Company,
			"language":       driver.Language,
		},
	})
}

// SetDriverLanguage stores the driver's language preference (en or fr).
func SetDriverLanguage(c *gin.Context) {
	var input setLanguageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if input.DriverID == 0 || input.Language == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id and language are required"})
		return
	}
	if !models.ValidLanguage(input.Language) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid language"})
		return
	}

	res := config.DB.Model(&models.DriverProfile{}).
		Where("id = ?", input.DriverID).Update("language", input.Language)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Language updated successfully", "language": input.Language})
}

// GetCustomersForDriver lists the customers of the driver's company.
func GetCustomersForDriver(c *gin.Context) {
	var input struct {
		DriverID uint `json:"driver_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.DriverID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id is required"})
		return
	}

	var driver models.DriverProfile
	if err := config.DB.First(&driver, input.DriverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var customers []models.Customer
	if err := config.DB.Joins("Company").
		Where("LOWER(\"Company\".name) = LOWER(?)", driver.Company).
		Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(customers))
	for _, cust := range customers {
		out = append(out, gin.H{"id": cust.ID, "name": cust.Name})
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

// UpdateDriverLocation reverse-geocodes the reported position and upserts the
// driver's single location row, keyed by (license_number, company_name).
func UpdateDriverLocation(c *gin.Context) {
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if input.DriverID == 0 || input.Latitude == nil || input.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id, latitude, and longitude are required"})
		return
	}
	lat, lon := *input.Latitude, *input.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid latitude or longitude"})
		return
	}

	var driver models.DriverProfile
	if err := config.DB.First(&driver, input.DriverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	address := Geo.ReverseGeocode(c.Request.Context(), lat, lon)

	var loc models.DriverLocation
	err := config.DB.Where("license_number = ? AND company_name = ?",
		driver.LicenseNumber, driver.Company).First(&loc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		loc = models.DriverLocation{
			DriverID:      driver.ID,
			LicenseNumber: driver.LicenseNumber,
			CompanyName:   driver.Company,
			Latitude:      lat,
			Longitude:     lon,
			Address:       address,
		}
		if err := config.DB.Create(&loc).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	default:
		delta := xy.Distance(
			geom.Coord{loc.Longitude, loc.Latitude},
			geom.Coord{lon, lat},
		)
		loc.DriverID = driver.ID
		loc.Latitude = lat
		loc.Longitude = lon
		loc.Address = address
		loc.DistanceFromLast = delta
		if err := config.DB.Save(&loc).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"latitude":  lat,
		"longitude": lon,
		"address":   address,
	})
}
