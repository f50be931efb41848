// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/identity"
	pgutil "github.com/bissquit/worknotes/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the identity.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// selectUser reads users with the ids of their notes, oldest first.
const selectUser = `
	SELECT u.id, u.username, u.password_hash, u.name, u.role, u.hours, u.created_at, u.updated_at,
		ARRAY(SELECT n.id::text FROM notes n WHERE n.owner_id = u.id ORDER BY n.created_at, n.id)
	FROM users u
`

// CreateUser creates a new user in the database.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, name, role, hours)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Name,
		int16(user.Role),
		user.Hours,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return identity.ErrUsernameExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	user.NoteIDs = []string{}
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUser+` WHERE u.username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users in creation order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, selectUser+` ORDER BY u.created_at, u.username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser updates the account fields of a user.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, name = $4, role = $5, hours = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Name,
		int16(user.Role),
		user.Hours,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if pgutil.IsUniqueViolation(err) {
			return identity.ErrUsernameExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user. Their notes are removed by the foreign key cascade.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var role int16
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&role,
		&user.Hours,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.NoteIDs,
	)
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	if user.NoteIDs == nil {
		user.NoteIDs = []string{}
	}
	return &user, nil
}
