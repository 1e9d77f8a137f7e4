package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository"

	"github.com/google/uuid"
)

// Navigation targets returned to the client after a flow completes
var tooLong = fmt.Sprintf("Passwords must be at most %d bytes long.", auth.MaxPasswordBytes)

const (
	RedirectHome        = "/"
	RedirectCatalog     = "/Products/Productsindex"
	RedirectUserManager = "/Admin/UserManager"
)

// --- DTOs ---

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RegisterRequest struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Role            string `json:"role" form:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" form:"password"`
}

type AccountResponse struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

// SessionResult is returned by every flow that signs the caller in
type SessionResult struct {
	Token      string          `json:"token"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Account    AccountResponse `json:"account"`
	RedirectTo string          `json:"redirect_to"`
}

// --- Interface ---

type AccountService interface {
	Login(ctx context.Context, req LoginRequest) (*SessionResult, error)
	Register(ctx context.Context, req RegisterRequest) (*SessionResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) (*SessionResult, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID, req DeleteAccountRequest) error
	GetAccount(ctx context.Context, userID uuid.UUID) (*AccountResponse, error)
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*auth.Principal, error)
	RegistrableRoles() []string
}

type accountService struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	tokens    *auth.TokenManager
	policy    auth.PasswordPolicy
}

func NewAccountService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	tokens *auth.TokenManager,
) AccountService {
	return &accountService{
		users:     users,
		roles:     roles,
		auditRepo: auditRepo,
		txManager: txManager,
		tokens:    tokens,
		policy:    auth.DefaultPasswordPolicy,
	}
}

func toAccountResponse(user *model.User) AccountResponse {
	return AccountResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Roles:     user.RoleNames(),
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *accountService) RegistrableRoles() []string {
	return []string{model.RoleFoodProducer, model.RoleRegularUser}
}

func (s *accountService) startSession(user *model.User, redirectTo string) (*SessionResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &SessionResult{
		Token:      token,
		ExpiresAt:  time.Now().Add(s.tokens.TTL()),
		Account:    toAccountResponse(user),
		RedirectTo: redirectTo,
	}, nil
}

func (s *accountService) Login(ctx context.Context, req LoginRequest) (*SessionResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.CompareWithDummy(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Reload so an account removed after the credential check is treated as unknown
	current, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	redirectTo := RedirectHome
	if len(current.Roles) > 0 {
		redirectTo = RedirectCatalog
	}
	return s.startSession(current, redirectTo)
}

func (s *accountService) Register(ctx context.Context, req RegisterRequest) (*SessionResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, Invalid("", "Username and password cannot be null or empty.")
	}

	verr := &ValidationError{}
	if auth.IsReservedUsername(req.Username) {
		verr.Add("username", "This username is reserved.")
	}
	if req.Password != req.ConfirmPassword {
		verr.Add("confirm_password", "Passwords do not match.")
	}
	for _, msg := range s.policy.Validate(req.Password) {
		verr.Add("password", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	taken := fmt.Sprintf("Username '%s' is already taken.", username)
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, Invalid("username", taken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, Invalid("password", tooLong)
	}
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Invalid("username", taken)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = model.RoleRegularUser
	}
	if strings.EqualFold(role, model.RoleAdministrator) {
		if err := s.users.Delete(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to roll back administrator registration: %w", err)
		}
		return nil, Invalid("role", "Registration as Administrator is not allowed.")
	}

	// The account stays in place when the role is unknown
	exists, err := s.roles.Exists(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !exists {
		return nil, Invalid("role", "Invalid role specified.")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.AddToRoles(txCtx, user.ID, []string{role}); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &user.ID, model.ActionRegisterAccount, user.ID.String(), user.Username,
			map[string]any{"role": role})
	})
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, Invalid("role", "Invalid role specified.")
		}
		return nil, err
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return s.startSession(created, RedirectHome)
}

func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) (*SessionResult, error) {
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return nil, Invalid("", "All fields are required.")
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, Invalid("confirm_password", "The new password and confirmation password do not match.")
	}

	user, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return nil, Invalid("current_password", "Incorrect password.")
	}

	verr := &ValidationError{}
	for _, msg := range s.policy.Validate(req.NewPassword) {
		verr.Add("new_password", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, Invalid("new_password", tooLong)
	}
	if err != nil {
		return nil, err
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.UpdatePassword(txCtx, user.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &user.ID, model.ActionChangePassword, user.ID.String(), user.Username, nil)
	})
	if err != nil {
		return nil, err
	}

	// Fresh token keeps the caller signed in
	return s.startSession(user, RedirectHome)
}

func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID, req DeleteAccountRequest) error {
	if req.Password == "" {
		return Invalid("password", "Password is required.")
	}

	user, err := s.loadAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return Invalid("password", "Incorrect password.")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := writeAudit(txCtx, s.auditRepo, &user.ID, model.ActionDeleteAccount, user.ID.String(), user.Username, nil); err != nil {
			return err
		}
		if err := s.users.Delete(txCtx, user.ID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return nil
	})
}

func (s *accountService) GetAccount(ctx context.Context, userID uuid.UUID) (*AccountResponse, error) {
	user, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toAccountResponse(user)
	return &resp, nil
}

// ResolvePrincipal loads the caller's current role set for a session subject
func (s *accountService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*auth.Principal, error) {
	user, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{UserID: user.ID, Username: user.Username, Roles: user.RoleNames()}, nil
}

// loadAccount maps a vanished session subject to ErrUnauthenticated
func (s *accountService) loadAccount(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, nil
}
