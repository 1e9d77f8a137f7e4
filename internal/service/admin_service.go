package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodcatalog/internal/model"
	"foodcatalog/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type UserWithRoles struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type RoleOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}

// EditUserView is the role assignment form for one account
type EditUserView struct {
	User     UserWithRoles `json:"user"`
	AllRoles []RoleOption  `json:"all_roles"`
}

type UpdateUserRolesRequest struct {
	Roles []string `json:"roles" form:"roles"`
}

// --- Interface ---

type AdminService interface {
	ListUsers(ctx context.Context) ([]UserWithRoles, error)
	GetUserForEdit(ctx context.Context, id uuid.UUID) (*EditUserView, error)
	UpdateUserRoles(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRolesRequest) (*UserWithRoles, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserWithRoles, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

var (
	ErrRemoveRoles = errors.New("Error removing user roles.")
	ErrAddRoles    = errors.New("Error adding roles.")
	ErrDeleteUser  = errors.New("Error deleting user.")
)

type adminService struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewAdminService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) AdminService {
	return &adminService{users: users, roles: roles, auditRepo: auditRepo, txManager: txManager}
}

func toUserWithRoles(user *model.User) UserWithRoles {
	return UserWithRoles{ID: user.ID.String(), Username: user.Username, Roles: user.RoleNames()}
}

func (s *adminService) ListUsers(ctx context.Context) ([]UserWithRoles, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	res := make([]UserWithRoles, 0, len(users))
	for i := range users {
		res = append(res, toUserWithRoles(&users[i]))
	}
	return res, nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*UserWithRoles, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserWithRoles(user)
	return &resp, nil
}

func (s *adminService) GetUserForEdit(ctx context.Context, id uuid.UUID) (*EditUserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	catalog, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	view := &EditUserView{User: toUserWithRoles(user), AllRoles: make([]RoleOption, 0, len(catalog))}
	for _, r := range catalog {
		view.AllRoles = append(view.AllRoles, RoleOption{
			Name:        r.Name,
			Description: r.Description,
			Selected:    contains(view.User.Roles, r.Name),
		})
	}
	return view, nil
}

// UpdateUserRoles replaces the whole role set. Remove and add share one
// transaction so a failed add leaves the previous roles in place.
func (s *adminService) UpdateUserRoles(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRolesRequest) (*UserWithRoles, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	current := user.RoleNames()
	wanted := distinct(req.Roles)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.RemoveFromRoles(txCtx, id, current); err != nil {
			return fmt.Errorf("%w: %v", ErrRemoveRoles, err)
		}
		if err := s.users.AddToRoles(txCtx, id, wanted); err != nil {
			return fmt.Errorf("%w: %v", ErrAddRoles, err)
		}
		return writeAudit(txCtx, s.auditRepo, actorUUID(actorID), model.ActionUpdateUserRoles, id.String(), user.Username,
			map[string][]string{"before": current, "after": wanted})
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, id)
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := writeAudit(txCtx, s.auditRepo, actorUUID(actorID), model.ActionDeleteUser, id.String(), user.Username,
			map[string]string{"roles": strings.Join(user.RoleNames(), ",")}); err != nil {
			return err
		}
		if err := s.users.Delete(txCtx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrDeleteUser, err)
		}
		return nil
	})
}

func (s *adminService) find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func actorUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
