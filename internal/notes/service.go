// Package notes implements the work notes of users.
package notes

import (
	"context"
	"fmt"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/pkg/ctxlog"
	"github.com/google/uuid"
)

// Service implements note business logic.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
}

// NewService creates a new note service.
func NewService(repo Repository, resolver *authz.Resolver) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
	}
}

// CreateInput contains data for creating a note.
// User names the owner; it is honored for elevated callers only.
type CreateInput struct {
	Task  string
	Date  string
	Hours int
	User  string
}

// UpdateInput contains data for updating a note. Nil fields are kept.
type UpdateInput struct {
	ID    string
	Task  *string
	Date  *string
	Hours *int
	User  *string
}

// List returns the caller's own notes without owner, or every note with its
// owner for elevated callers.
func (s *Service) List(ctx context.Context, id authz.Identity) ([]domain.Note, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.resolver.Allowed(actor, authz.ActionListAllNotes, "") {
		notes, err := s.repo.ListNotes(ctx, ListFilter{})
		if err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}
		return notes, nil
	}

	notes, err := s.repo.ListNotes(ctx, ListFilter{OwnerID: &actor.ID})
	if err != nil {
		return nil, fmt.Errorf("list own notes: %w", err)
	}
	for i := range notes {
		notes[i] = notes[i].WithoutOwner()
	}
	return notes, nil
}

// Create creates a note owned by the effective subject.
func (s *Service) Create(ctx context.Context, id authz.Identity, input CreateInput) (*domain.Note, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}
	subject, err := s.resolver.Subject(ctx, actor, input.User)
	if err != nil {
		return nil, err
	}

	note := &domain.Note{
		Task:    input.Task,
		Date:    input.Date,
		Hours:   input.Hours,
		OwnerID: subject.ID,
	}
	if err := note.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("note created", "note_id", note.ID, "owner_id", note.OwnerID)
	return s.repo.GetNote(ctx, note.ID)
}

// Update applies a partial update to a note owned by the caller, or to any
// note for elevated callers, who may also reassign it.
func (s *Service) Update(ctx context.Context, id authz.Identity, input UpdateInput) (*domain.Note, error) {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateID(input.ID); err != nil {
		return nil, err
	}

	note, err := s.repo.GetNote(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(ctx, actor, authz.ActionUpdateNote, note.OwnerID); err != nil {
		return nil, err
	}

	if input.Task != nil {
		note.Task = *input.Task
	}
	if input.Date != nil {
		note.Date = *input.Date
	}
	if input.Hours != nil {
		note.Hours = *input.Hours
	}
	if input.User != nil && *input.User != "" {
		subject, err := s.resolver.Subject(ctx, actor, *input.User)
		if err != nil {
			return nil, err
		}
		note.OwnerID = subject.ID
	}
	if err := note.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("note updated", "note_id", note.ID, "owner_id", note.OwnerID)
	return s.repo.GetNote(ctx, note.ID)
}

// Delete removes a note owned by the caller, or any note for elevated callers.
func (s *Service) Delete(ctx context.Context, id authz.Identity, noteID string) error {
	actor, err := s.resolver.Actor(ctx, id)
	if err != nil {
		return err
	}
	if err := validateID(noteID); err != nil {
		return err
	}

	note, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.resolver.Authorize(ctx, actor, authz.ActionDeleteNote, note.OwnerID); err != nil {
		return err
	}

	if err := s.repo.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("note deleted", "note_id", noteID)
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
