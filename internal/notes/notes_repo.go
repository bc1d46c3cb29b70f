package notes

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

func (r Repository) NotesByUser(ctx context.Context, userID int64) ([]Note, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.noteBuilder().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_on DESC"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var userNotes []Note

	for rows.Next() {
		var note Note
		if errScan := rows.Scan(&note.NoteID, &note.UserID, &note.Title, &note.Content,
			&note.Category, &note.CreatedOn, &note.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		userNotes = append(userNotes, note)
	}

	return userNotes, nil
}

func (r Repository) NoteByID(ctx context.Context, userID int64, noteID int64) (Note, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.noteBuilder().
		Where(sq.And{sq.Eq{"note_id": noteID}, sq.Eq{"user_id": userID}}))
	if errRow != nil {
		return Note{}, database.DBErr(errRow)
	}

	var note Note
	if errScan := row.Scan(&note.NoteID, &note.UserID, &note.Title, &note.Content,
		&note.Category, &note.CreatedOn, &note.UpdatedOn); errScan != nil {
		return Note{}, database.DBErr(errScan)
	}

	return note, nil
}

func (r Repository) Save(ctx context.Context, note *Note) error {
	note.UpdatedOn = time.Now()

	if note.NoteID > 0 {
		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("note").
			SetMap(map[string]interface{}{
				"title":      note.Title,
				"content":    note.Content,
				"category":   note.Category,
				"updated_on": note.UpdatedOn,
			}).
			Where(sq.Eq{"note_id": note.NoteID})))
	}

	note.CreatedOn = note.UpdatedOn

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("note").
		SetMap(map[string]interface{}{
			"user_id":    note.UserID,
			"title":      note.Title,
			"content":    note.Content,
			"category":   note.Category,
			"created_on": note.CreatedOn,
			"updated_on": note.UpdatedOn,
		}).
		Suffix("RETURNING note_id"), &note.NoteID))
}

func (r Repository) Delete(ctx context.Context, noteID int64) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("note").
		Where(sq.Eq{"note_id": noteID})))
}

func (r Repository) ChampionNotes(ctx context.Context, userID int64) ([]ChampionNote, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("user_id", "champion", "notes", "updated_on").
		From("champion_note").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("champion"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var championNotes []ChampionNote

	for rows.Next() {
		var note ChampionNote
		if errScan := rows.Scan(&note.UserID, &note.Champion, &note.Notes,
			&note.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		championNotes = append(championNotes, note)
	}

	return championNotes, nil
}

func (r Repository) SaveChampionNote(ctx context.Context, note ChampionNote) error {
	const query = `
		INSERT INTO champion_note (user_id, champion, notes, updated_on)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, champion) DO UPDATE SET
			notes = excluded.notes,
			updated_on = excluded.updated_on`

	return database.DBErr(r.db.Exec(ctx, query,
		note.UserID, note.Champion, note.Notes, note.UpdatedOn))
}

func (r Repository) noteBuilder() sq.SelectBuilder {
	return r.db.
		Builder().
		Select("note_id", "user_id", "title", "content", "category", "created_on", "updated_on").
		From("note")
}
