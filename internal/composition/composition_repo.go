package composition

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

func (r Repository) All(ctx context.Context) ([]Composition, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.selectBuilder().OrderBy("tc.created_on DESC"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var compositions []Composition

	for rows.Next() {
		composition, errScan := r.scanComposition(rows)
		if errScan != nil {
			return nil, errScan
		}

		compositions = append(compositions, composition)
	}

	return compositions, nil
}

func (r Repository) ByID(ctx context.Context, compositionID int64) (Composition, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.selectBuilder().
		Where(sq.Eq{"tc.composition_id": compositionID}))
	if errRow != nil {
		return Composition{}, database.DBErr(errRow)
	}

	return r.scanComposition(row)
}

func (r Repository) Save(ctx context.Context, composition *Composition) error {
	composition.UpdatedOn = time.Now()

	if composition.Tags == nil {
		composition.Tags = []string{}
	}

	if composition.CompositionID > 0 {
		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("team_composition").
			SetMap(map[string]interface{}{
				"name":             composition.Name,
				"description":      composition.Description,
				"top_champion":     composition.TopChampion,
				"jungle_champion":  composition.JungleChampion,
				"mid_champion":     composition.MidChampion,
				"adc_champion":     composition.ADCChampion,
				"support_champion": composition.SupportChampion,
				"tags":             composition.Tags,
				"updated_on":       composition.UpdatedOn,
			}).
			Where(sq.Eq{"composition_id": composition.CompositionID})))
	}

	composition.CreatedOn = composition.UpdatedOn

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("team_composition").
		SetMap(map[string]interface{}{
			"user_id":          composition.UserID,
			"name":             composition.Name,
			"description":      composition.Description,
			"top_champion":     composition.TopChampion,
			"jungle_champion":  composition.JungleChampion,
			"mid_champion":     composition.MidChampion,
			"adc_champion":     composition.ADCChampion,
			"support_champion": composition.SupportChampion,
			"tags":             composition.Tags,
			"created_on":       composition.CreatedOn,
			"updated_on":       composition.UpdatedOn,
		}).
		Suffix("RETURNING composition_id"), &composition.CompositionID))
}

func (r Repository) Delete(ctx context.Context, compositionID int64) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("team_composition").
		Where(sq.Eq{"composition_id": compositionID})))
}

func (r Repository) selectBuilder() sq.SelectBuilder {
	return r.db.
		Builder().
		Select("tc.composition_id", "tc.user_id", "tc.name", "tc.description",
			"tc.top_champion", "tc.jungle_champion", "tc.mid_champion", "tc.adc_champion",
			"tc.support_champion", "tc.tags", "tc.created_on", "tc.updated_on",
			"coalesce(u.username, '')").
		From("team_composition tc").
		LeftJoin("users u ON u.user_id = tc.user_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r Repository) scanComposition(scanner rowScanner) (Composition, error) {
	var composition Composition

	if errScan := scanner.Scan(&composition.CompositionID, &composition.UserID,
		&composition.Name, &composition.Description, &composition.TopChampion,
		&composition.JungleChampion, &composition.MidChampion, &composition.ADCChampion,
		&composition.SupportChampion, &composition.Tags, &composition.CreatedOn,
		&composition.UpdatedOn, &composition.AuthorName); errScan != nil {
		return Composition{}, database.DBErr(errScan)
	}

	if composition.Tags == nil {
		composition.Tags = []string{}
	}

	return composition, nil
}
