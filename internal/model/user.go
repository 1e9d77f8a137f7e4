package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that can sign in and hold roles
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username           string    `gorm:"type:varchar(256);not null" json:"username"`
	NormalizedUsername string    `gorm:"type:varchar(256);uniqueIndex;not null" json:"-"`
	PasswordHash       string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt, never plaintext
	Roles              []Role    `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE;" json:"roles,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizeUsername returns the lookup key used for case-insensitive username matching
func NormalizeUsername(username string) string {
	return strings.ToUpper(strings.TrimSpace(username))
}

// RoleNames flattens the preloaded role association
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
