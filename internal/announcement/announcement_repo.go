package announcement

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fivestack-gg/fivestack/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(database database.Database) Repository {
	return Repository{db: database}
}

func (r Repository) All(ctx context.Context) ([]Announcement, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.selectBuilder().OrderBy("a.created_on DESC"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var announcements []Announcement

	for rows.Next() {
		var entry Announcement
		if errScan := rows.Scan(&entry.AnnouncementID, &entry.AuthorID, &entry.Title,
			&entry.Content, &entry.CreatedOn, &entry.UpdatedOn, &entry.AuthorName); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		announcements = append(announcements, entry)
	}

	return announcements, nil
}

func (r Repository) ByID(ctx context.Context, announcementID int64) (Announcement, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.selectBuilder().
		Where(sq.Eq{"a.announcement_id": announcementID}))
	if errRow != nil {
		return Announcement{}, database.DBErr(errRow)
	}

	var entry Announcement
	if errScan := row.Scan(&entry.AnnouncementID, &entry.AuthorID, &entry.Title,
		&entry.Content, &entry.CreatedOn, &entry.UpdatedOn, &entry.AuthorName); errScan != nil {
		return Announcement{}, database.DBErr(errScan)
	}

	return entry, nil
}

func (r Repository) Save(ctx context.Context, announcement *Announcement) error {
	announcement.UpdatedOn = time.Now()

	if announcement.AnnouncementID > 0 {
		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("announcement").
			SetMap(map[string]interface{}{
				"title":      announcement.Title,
				"content":    announcement.Content,
				"updated_on": announcement.UpdatedOn,
			}).
			Where(sq.Eq{"announcement_id": announcement.AnnouncementID})))
	}

	announcement.CreatedOn = announcement.UpdatedOn

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("announcement").
		SetMap(map[string]interface{}{
			"author_id":  announcement.AuthorID,
			"title":      announcement.Title,
			"content":    announcement.Content,
			"created_on": announcement.CreatedOn,
			"updated_on": announcement.UpdatedOn,
		}).
		Suffix("RETURNING announcement_id"), &announcement.AnnouncementID))
}

func (r Repository) Delete(ctx context.Context, announcementID int64) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("announcement").
		Where(sq.Eq{"announcement_id": announcementID})))
}

func (r Repository) selectBuilder() sq.SelectBuilder {
	return r.db.
		Builder().
		Select("a.announcement_id", "a.author_id", "a.title", "a.content",
			"a.created_on", "a.updated_on", "coalesce(u.username, '')").
		From("announcement a").
		LeftJoin("users u ON u.user_id = a.author_id")
}
