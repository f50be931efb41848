// Package identity manages user accounts: registration, login and user administration.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/pkg/ctxlog"
	"github.com/bissquit/worknotes/internal/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bootstrapAdminHours is the allotment of the account created by EnsureAdmin.
const bootstrapAdminHours = 8

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// Service implements identity business logic.
type Service struct {
	repo       Repository
	tokens     TokenIssuer
	resolver   *authz.Resolver
	bcryptCost int
}

// NewService creates a new identity service.
func NewService(repo Repository, tokens TokenIssuer, resolver *authz.Resolver, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		resolver:   resolver,
		bcryptCost: bcryptCost,
	}
}

// RegisterInput contains data for self-registration.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Hours    int
}

// CreateUserInput contains data for a user created by an elevated caller.
// A nil Role creates a regular user.
type CreateUserInput struct {
	Username string
	Password string
	Name     string
	Hours    int
	Role     *domain.Role
}

// LoginInput contains login credentials.
type LoginInput struct {
	Username string
	Password string
}

// UpdateUserInput contains the fields to change. Nil fields are kept.
type UpdateUserInput struct {
	Username *string
	Password *string
	Name     *string
	Hours    *int
	Role     *domain.Role
}

// Register creates a regular user. The role is always USER.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := s.create(ctx, input.Username, input.Password, input.Name, input.Hours, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// CreateUser creates a user with a caller-chosen role.
func (s *Service) CreateUser(ctx context.Context, id authz.Identity, input CreateUserInput) (*domain.User, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(ctx, actor, authz.ActionCreateUser, ""); err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if input.Role != nil {
		role = *input.Role
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("status", "status is invalid")
	}
	if err := s.resolver.AuthorizeRole(ctx, actor, role); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, input.Username, input.Password, input.Name, input.Hours, role)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("user created", "user_id", user.ID, "role", role.String())
	return user, nil
}

// EnsureAdmin creates an ADMIN account with the given credentials unless
// the username is already taken. Empty credentials disable it.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetUserByUsername(ctx, domain.NormalizeName(username))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("get bootstrap admin: %w", err)
	}

	user, err := s.create(ctx, username, password, "", bootstrapAdminHours, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	ctxlog.FromContext(ctx).Info("bootstrap admin created", "user_id", user.ID, "username", user.Username)
	return nil
}

func (s *Service) create(ctx context.Context, username, password, name string, hours int, role domain.Role) (*domain.User, error) {
	user := &domain.User{
		Username: domain.NormalizeName(username),
		Name:     domain.NormalizeName(name),
		Role:     role,
		Hours:    hours,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if user.NoteIDs == nil {
		user.NoteIDs = []string{}
	}
	return user, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, domain.NormalizeName(input.Username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.Logins.WithLabelValues("failure").Inc()
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	metrics.Logins.WithLabelValues("success").Inc()
	return user, token, nil
}

// ListUsers returns every user. Requires MANAGER or above.
func (s *Service) ListUsers(ctx context.Context, id authz.Identity) ([]domain.User, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(ctx, actor, authz.ActionListUsers, ""); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user to themselves or to an elevated caller.
func (s *Service) GetUser(ctx context.Context, id authz.Identity, userID string) (*domain.User, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateID(userID); err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(ctx, actor, authz.ActionViewUser, userID); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateUser applies a partial update. A caller updating their own account
// also receives a new token, since the username claim may have changed.
func (s *Service) UpdateUser(ctx context.Context, id authz.Identity, userID string, input UpdateUserInput) (*domain.User, string, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := validateID(userID); err != nil {
		return nil, "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if err := s.resolver.AuthorizeUser(ctx, actor, authz.ActionUpdateUser, user); err != nil {
		return nil, "", err
	}

	if input.Role != nil && *input.Role != user.Role {
		if !input.Role.IsValid() {
			return nil, "", domain.NewValidationError("status", "status is invalid")
		}
		if err := s.resolver.AuthorizeRole(ctx, actor, *input.Role); err != nil {
			return nil, "", err
		}
		user.Role = *input.Role
	}
	if input.Username != nil {
		user.Username = domain.NormalizeName(*input.Username)
	}
	if input.Name != nil {
		user.Name = domain.NormalizeName(*input.Name)
	}
	if input.Hours != nil {
		user.Hours = *input.Hours
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}
	if input.Password != nil {
		if err := domain.ValidatePassword(*input.Password); err != nil {
			return nil, "", err
		}
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, "", err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, "", err
	}

	ctxlog.FromContext(ctx).Info("user updated", "user_id", user.ID)

	if user.ID != actor.ID {
		return user, "", nil
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// DeleteUser removes a user together with their notes.
func (s *Service) DeleteUser(ctx context.Context, id authz.Identity, userID string) error {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return err
	}
	if err := validateID(userID); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.resolver.AuthorizeUser(ctx, actor, authz.ActionDeleteUser, user); err != nil {
		return err
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("user deleted", "user_id", userID)
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", "password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// normalize trims and NFC-normalizes a name so that visually identical
// usernames compare equal in the store.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
