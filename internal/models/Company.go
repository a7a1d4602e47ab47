package models

import (
	"gorm.io/gorm"
)

// Company is static carrier reference data, validated against the SCAC code
// a driver presents at registration.
type Company struct {
	gorm.Model
	Name     string `json:"name" gorm:"uniqueIndex" binding:"required"`
	Email    string `json:"email"`
	SCACCode string `json:"scac_code"`

	Customers []Customer `json:"customers,omitempty" gorm:"foreignKey:CompanyID"`
}

// Customer is an email-delivery target belonging to exactly one company.
type Customer struct {
	gorm.Model
	CompanyID uint    `json:"company_id" gorm:"index"`
	Company   Company `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Name      string  `json:"name" gorm:"index"`
	Email     string  `json:"email"`
}
