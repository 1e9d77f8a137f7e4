package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct   = "CREATE_PRODUCT"
	ActionUpdateProduct   = "UPDATE_PRODUCT"
	ActionDeleteProduct   = "DELETE_PRODUCT"
	ActionRegisterAccount = "REGISTER_ACCOUNT"
	ActionChangePassword  = "CHANGE_PASSWORD"
	ActionDeleteAccount   = "DELETE_ACCOUNT"
	ActionUpdateUserRoles = "UPDATE_USER_ROLES"
	ActionDeleteUser      = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for catalog and account changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable once the acting account is deleted
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
