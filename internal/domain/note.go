package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for notes.
const DateLayout = "2006-01-02"

// NoteOwner is the populated owner reference of a note.
type NoteOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Note is a unit of work logged by a user.
type Note struct {
	ID        string     `json:"id"`
	Task      string     `json:"task"`
	Date      string     `json:"date"`
	Hours     int        `json:"hours"`
	OwnerID   string     `json:"-"`
	Owner     *NoteOwner `json:"user,omitempty"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// Validate checks the note invariants.
func (n *Note) Validate() error {
	d, err := time.Parse(DateLayout, n.Date)
	if err != nil || d.Year() < 1 {
		return NewValidationError("date", "date is missing or invalid")
	}
	if strings.TrimSpace(n.Task) == "" {
		return NewValidationError("task", "task is missing or invalid")
	}
	if n.Hours < MinHours || n.Hours > MaxHours {
		return NewValidationError("hours", "hours is missing or invalid")
	}
	if n.OwnerID == "" {
		return NewValidationError("user", "owner is missing")
	}
	return nil
}

// WithoutOwner returns a copy of the note with the owner reference hidden.
func (n Note) WithoutOwner() Note {
	n.Owner = nil
	return n
}
