package notes

import (
	"context"

	"github.com/bissquit/worknotes/internal/domain"
)

// Repository defines the interface for note data operations.
// Notes are returned with their owner populated. Lookups return
// domain.ErrNoteNotFound when nothing matches.
type Repository interface {
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotes(ctx context.Context, filter ListFilter) ([]domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, id string) error
}

// ListFilter represents filter criteria for listing notes.
type ListFilter struct {
	OwnerID *string
}
