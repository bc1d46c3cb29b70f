// Package announcement carries team wide posts written by admins.
package announcement

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyBody = errors.New("announcement title and content are required")

type Announcement struct {
	AnnouncementID int64     `json:"announcement_id"`
	AuthorID       int64     `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

type Announcements struct {
	repo Repository
}

func NewAnnouncements(repo Repository) Announcements {
	return Announcements{repo: repo}
}

func (u Announcements) All(ctx context.Context) ([]Announcement, error) {
	return u.repo.All(ctx)
}

func (u Announcements) ByID(ctx context.Context, announcementID int64) (Announcement, error) {
	return u.repo.ByID(ctx, announcementID)
}

func (u Announcements) Save(ctx context.Context, announcement *Announcement) error {
	if announcement.Title == "" || announcement.Content == "" {
		return ErrEmptyBody
	}

	return u.repo.Save(ctx, announcement)
}

func (u Announcements) Delete(ctx context.Context, announcementID int64) error {
	if _, errExisting := u.repo.ByID(ctx, announcementID); errExisting != nil {
		return errExisting
	}

	return u.repo.Delete(ctx, announcementID)
}
