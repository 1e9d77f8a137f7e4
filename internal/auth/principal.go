package auth

import (
	"strings"

	"foodcatalog/internal/model"

	"github.com/google/uuid"
)

// Principal is the authenticated caller, resolved once per request
type Principal struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
}

// HasRole reports membership in a role
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports membership in at least one of the roles
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(model.RoleAdministrator)
}

// CanManageProducts gates create and the edit/delete entry points
func (p *Principal) CanManageProducts() bool {
	return p.HasAnyRole(model.RoleFoodProducer, model.RoleAdministrator)
}

// CanModifyProduct applies the ownership rule: admins modify anything, producers only their own
func (p *Principal) CanModifyProduct(product *model.Product) bool {
	if !p.CanManageProducts() {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return product.IsOwnedBy(p.UserID)
}

// ReservedUsernames cannot be registered, compared case-insensitively
var ReservedUsernames = []string{"Admin", "Administrator", "Superuser", "Root", "Default_Producer"}

func IsReservedUsername(username string) bool {
	name := strings.TrimSpace(username)
	for _, reserved := range ReservedUsernames {
		if strings.EqualFold(name, reserved) {
			return true
		}
	}
	return false
}
