package model

import (
	"time"

	"github.com/google/uuid"
)

// Built-in role names
const (
	RoleAdministrator = "Administrator"
	RoleFoodProducer  = "FoodProducer"
	RoleRegularUser   = "RegularUser"
)

// Role is a named membership group
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
