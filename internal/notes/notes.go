// Package notes stores per user free-form notes and matchup notes keyed by
// champion.
package notes

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTitleMissing    = errors.New("note title cannot be empty")
	ErrChampionMissing = errors.New("champion cannot be empty")
)

type Note struct {
	NoteID    int64     `json:"note_id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

type ChampionNote struct {
	UserID    int64     `json:"user_id"`
	Champion  string    `json:"champion"`
	Notes     string    `json:"notes"`
	UpdatedOn time.Time `json:"updated_on"`
}

type Notes struct {
	repo Repository
}

func NewNotes(repo Repository) Notes {
	return Notes{repo: repo}
}

func (u Notes) NotesByUser(ctx context.Context, userID int64) ([]Note, error) {
	return u.repo.NotesByUser(ctx, userID)
}

// NoteByID scopes the lookup to the owner, other users' notes come back as
// not found.
func (u Notes) NoteByID(ctx context.Context, userID int64, noteID int64) (Note, error) {
	return u.repo.NoteByID(ctx, userID, noteID)
}

func (u Notes) Save(ctx context.Context, note *Note) error {
	if note.Title == "" {
		return ErrTitleMissing
	}

	if note.Category == "" {
		note.Category = "General"
	}

	return u.repo.Save(ctx, note)
}

func (u Notes) Delete(ctx context.Context, userID int64, noteID int64) error {
	if _, errNote := u.repo.NoteByID(ctx, userID, noteID); errNote != nil {
		return errNote
	}

	return u.repo.Delete(ctx, noteID)
}

func (u Notes) ChampionNotes(ctx context.Context, userID int64) ([]ChampionNote, error) {
	return u.repo.ChampionNotes(ctx, userID)
}

func (u Notes) SaveChampionNote(ctx context.Context, note ChampionNote) error {
	if note.Champion == "" {
		return ErrChampionMissing
	}

	note.UpdatedOn = time.Now()

	return u.repo.SaveChampionNote(ctx, note)
}
