package models

import (
	"gorm.io/gorm"
)

// Driver language choices.
const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"
)

func ValidLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageFrench
}

// DriverProfile is one registered driver identity. Drivers are unique by
// license number and by phone.
type DriverProfile struct {
	gorm.Model
	Name          string `json:"name" gorm:"index"`
	Phone         string `json:"phone" gorm:"uniqueIndex"`
	Company       string `json:"company" gorm:"index"`
	SCACCode      string `json:"scac_code"`
	LicenseNumber string `json:"license_number" gorm:"uniqueIndex"`
	Language      string `json:"language" gorm:"default:en"`

	// DeviceToken is the FCM registration token for push notifications.
	DeviceToken string `json:"device_token"`

	Loads []Load `json:"loads,omitempty" gorm:"foreignKey:DriverID"`
}
