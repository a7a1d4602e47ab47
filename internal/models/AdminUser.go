package models

import (
	"gorm.io/gorm"
)

// AdminUser can review loads and run exports through the admin API.
type AdminUser struct {
	gorm.Model
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" gorm:"uniqueIndex" binding:"required,email"`
	Password string `json:"-"`
	Role     string `json:"role" gorm:"default:admin"`
}
