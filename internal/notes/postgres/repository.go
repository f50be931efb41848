// Package postgres provides PostgreSQL implementation of the notes repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/notes"
	pgutil "github.com/bissquit/worknotes/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the notes.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectNote = `
	SELECT n.id, n.task, to_char(n.date, 'YYYY-MM-DD'), n.hours, n.owner_id, u.username, n.created_at, n.updated_at
	FROM notes n
	JOIN users u ON u.id = n.owner_id
`

// CreateNote creates a new note in the database.
func (r *Repository) CreateNote(ctx context.Context, note *domain.Note) error {
	query := `
		INSERT INTO notes (task, date, hours, owner_id)
		VALUES ($1, $2::text::date, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		note.Task,
		note.Date,
		note.Hours,
		note.OwnerID,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if pgutil.IsForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// GetNote retrieves a note by ID.
func (r *Repository) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	note, err := scanNote(r.db.QueryRow(ctx, selectNote+` WHERE n.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ListNotes retrieves notes in creation order.
func (r *Repository) ListNotes(ctx context.Context, filter notes.ListFilter) ([]domain.Note, error) {
	query := selectNote
	var args []interface{}

	if filter.OwnerID != nil {
		query += ` WHERE n.owner_id = $1`
		args = append(args, *filter.OwnerID)
	}

	query += ` ORDER BY n.created_at, n.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		result = append(result, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return result, nil
}

// UpdateNote updates a note, including its owner.
func (r *Repository) UpdateNote(ctx context.Context, note *domain.Note) error {
	query := `
		UPDATE notes
		SET task = $2, date = $3::text::date, hours = $4, owner_id = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		note.ID,
		note.Task,
		note.Date,
		note.Hours,
		note.OwnerID,
	)
	if err != nil {
		if pgutil.IsForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// DeleteNote deletes a note.
func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var note domain.Note
	var owner domain.NoteOwner
	err := row.Scan(
		&note.ID,
		&note.Task,
		&note.Date,
		&note.Hours,
		&owner.ID,
		&owner.Username,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	note.OwnerID = owner.ID
	note.Owner = &owner
	return &note, nil
}
