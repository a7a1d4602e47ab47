package models

import (
	"time"

	"gorm.io/gorm"
)

// DriverLocation is the most recent known position for a
// (license_number, company_name) pair. It is overwritten on every report and
// never historized.
type DriverLocation struct {
	gorm.Model
	DriverID      uint          `json:"driver_id" gorm:"index"`
	Driver        DriverProfile `json:"-" gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
	LicenseNumber string        `json:"license_number" gorm:"uniqueIndex:idx_license_company"`
	CompanyName   string        `json:"company_name" gorm:"uniqueIndex:idx_license_company"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	Address       string        `json:"address"`

	// DistanceFromLast is the straight-line delta, in degrees, from the
	// previous report. Zero on the first report.
	DistanceFromLast float64   `json:"distance_from_last"`
	Timestamp        time.Time `json:"timestamp" gorm:"autoUpdateTime"`
}
