package repository

import (
	"context"

	"foodcatalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines data access for accounts and their role membership
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetRoles(ctx context.Context, id uuid.UUID) ([]string, error)
	AddToRoles(ctx context.Context, id uuid.UUID, roleNames []string) error
	RemoveFromRoles(ctx context.Context, id uuid.UUID, roleNames []string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.NormalizedUsername = model.NormalizeUsername(user.Username)
	return translate(GetDB(ctx, r.db).Omit("Roles").Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles").
		First(&user, "normalized_username = ?", model.NormalizeUsername(username)).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Preload("Roles").Order("normalized_username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	user := model.User{ID: id}

	// Clear associations before deleting
	if err := db.Model(&user).Association("Roles").Clear(); err != nil {
		return err
	}

	res := db.Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetRoles(ctx context.Context, id uuid.UUID) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT r.name FROM roles r
		INNER JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name
	`, id).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *userRepository) AddToRoles(ctx context.Context, id uuid.UUID, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}
	db := GetDB(ctx, r.db)

	var roles []model.Role
	if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) != len(dedupe(roleNames)) {
		return ErrRoleNotFound
	}

	user := model.User{ID: id}
	return db.Model(&user).Association("Roles").Append(roles)
}

func (r *userRepository) RemoveFromRoles(ctx context.Context, id uuid.UUID, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}
	db := GetDB(ctx, r.db)

	var roles []model.Role
	if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return err
	}

	user := model.User{ID: id}
	return db.Model(&user).Association("Roles").Delete(roles)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
