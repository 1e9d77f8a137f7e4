package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository"

	"github.com/rs/zerolog"
)

type RoleService interface {
	SeedDefaultRoles(ctx context.Context) error
	EnsureAdministrator(ctx context.Context, username, password string) error
}

type roleService struct {
	roles     repository.RoleRepository
	users     repository.UserRepository
	txManager repository.TransactionManager
	log       zerolog.Logger
}

func NewRoleService(roles repository.RoleRepository, users repository.UserRepository, txManager repository.TransactionManager, log zerolog.Logger) RoleService {
	return &roleService{roles: roles, users: users, txManager: txManager, log: log}
}

var defaultRoles = []model.Role{
	{Name: model.RoleAdministrator, Description: "Manages accounts and every product", IsSystem: true},
	{Name: model.RoleFoodProducer, Description: "Publishes and maintains own products", IsSystem: true},
	{Name: model.RoleRegularUser, Description: "Browses the catalog", IsSystem: true},
}

// SeedDefaultRoles creates the built-in roles if not already present
func (s *roleService) SeedDefaultRoles(ctx context.Context) error {
	for _, def := range defaultRoles {
		role := def
		if err := s.roles.FindOrCreate(ctx, &role); err != nil {
			return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
		}
	}
	s.log.Info().Int("count", len(defaultRoles)).Msg("default roles seeded")
	return nil
}

// EnsureAdministrator creates an Administrator account when none with that name exists.
// Empty credentials skip the step.
func (s *roleService) EnsureAdministrator(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		s.log.Debug().Str("username", username).Msg("administrator account already present")
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up administrator: %w", err)
	}

	if problems := auth.DefaultPasswordPolicy.Validate(password); len(problems) > 0 {
		return fmt.Errorf("administrator password rejected: %s", strings.Join(problems, " "))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user := &model.User{Username: username, PasswordHash: hash}
		if err := s.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create administrator: %w", err)
		}
		return s.users.AddToRoles(txCtx, user.ID, []string{model.RoleAdministrator})
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("administrator account created")
	return nil
}
