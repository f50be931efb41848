package identity

import (
	"context"

	"github.com/bissquit/worknotes/internal/domain"
)

// Repository defines the interface for user data operations.
// Lookups return domain.ErrUserNotFound when nothing matches;
// CreateUser and UpdateUser return ErrUsernameExists on a taken username.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}
