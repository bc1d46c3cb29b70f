package practice

import (
	"context"
	"fmt"
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

// MatchIDs returns the set of already recorded match ids, used to filter scan
// candidates before any detail fetch happens.
func (r Repository) MatchIDs(ctx context.Context) (map[string]bool, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("match_id").
		From("practice_match"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	known := map[string]bool{}

	for rows.Next() {
		var matchID string
		if errScan := rows.Scan(&matchID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		known[matchID] = true
	}

	return known, nil
}

// SaveMatch records a qualifying match. The primary key on match_id makes a
// replayed insert come back as database.ErrDuplicate, which the scanner
// treats as already processed.
func (r Repository) SaveMatch(ctx context.Context, match *Match) error {
	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("practice_match").
		SetMap(map[string]interface{}{
			"match_id":      match.MatchID,
			"game_creation": match.GameCreation,
			"game_duration": match.GameDuration,
			"game_mode":     match.GameMode,
			"winning_team":  match.WinningTeam,
			"roster_count":  match.RosterCount,
			"participants":  match.Participants,
			"created_on":    match.CreatedOn,
		})))
}

// Matches returns a page of recorded matches, newest first. A non-zero
// playerID restricts the page to matches that player took part in, matched
// by containment against the participants snapshot.
func (r Repository) Matches(ctx context.Context, limit uint64, offset uint64, playerID int64) ([]Match, int64, error) {
	if limit == 0 || limit > 100 {
		limit = 25
	}

	countBuilder := r.db.
		Builder().
		Select("count(match_id)").
		From("practice_match")

	builder := r.db.
		Builder().
		Select("match_id", "game_creation", "game_duration", "game_mode",
			"winning_team", "roster_count", "participants", "created_on").
		From("practice_match").
		OrderBy("game_creation DESC").
		Limit(limit).
		Offset(offset)

	if playerID > 0 {
		filter := sq.Expr("participants @> ?", fmt.Sprintf(`[{"player_id": %d}]`, playerID))
		countBuilder = countBuilder.Where(filter)
		builder = builder.Where(filter)
	}

	count, errCount := r.db.GetCount(ctx, countBuilder)
	if errCount != nil {
		return nil, 0, errCount
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, 0, database.DBErr(errRows)
	}

	defer rows.Close()

	var matches []Match

	for rows.Next() {
		var match Match
		if errScan := rows.Scan(&match.MatchID, &match.GameCreation, &match.GameDuration,
			&match.GameMode, &match.WinningTeam, &match.RosterCount, &match.Participants,
			&match.CreatedOn); errScan != nil {
			return nil, 0, database.DBErr(errScan)
		}

		matches = append(matches, match)
	}

	return matches, count, nil
}

func (r Repository) MatchCount(ctx context.Context) (int64, error) {
	return r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(match_id)").
		From("practice_match"))
}

// AddChampionStats folds one game's numbers into the per player/champion
// aggregate, inserting the row on first sight.
func (r Repository) AddChampionStats(ctx context.Context, delta ChampionStats) error {
	const query = `
		INSERT INTO practice_player_stats (
			player_id, champion, games, wins, kills, deaths, assists, cs,
			damage, damage_taken, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (player_id, champion) DO UPDATE SET
			games = practice_player_stats.games + excluded.games,
			wins = practice_player_stats.wins + excluded.wins,
			kills = practice_player_stats.kills + excluded.kills,
			deaths = practice_player_stats.deaths + excluded.deaths,
			assists = practice_player_stats.assists + excluded.assists,
			cs = practice_player_stats.cs + excluded.cs,
			damage = practice_player_stats.damage + excluded.damage,
			damage_taken = practice_player_stats.damage_taken + excluded.damage_taken,
			updated_on = excluded.updated_on`

	return database.DBErr(r.db.Exec(ctx, query,
		delta.PlayerID, delta.Champion, delta.Games, delta.Wins, delta.Kills,
		delta.Deaths, delta.Assists, delta.CS, delta.Damage, delta.DamageTaken,
		delta.UpdatedOn))
}

func (r Repository) PlayerStats(ctx context.Context, playerID int64) ([]ChampionStats, error) {
	return r.queryStats(ctx, r.statsBuilder().
		Where(sq.Eq{"player_id": playerID}).
		OrderBy("games DESC", "champion"))
}

func (r Repository) AllStats(ctx context.Context) ([]ChampionStats, error) {
	return r.queryStats(ctx, r.statsBuilder().OrderBy("player_id", "champion"))
}

func (r Repository) statsBuilder() sq.SelectBuilder {
	return r.db.
		Builder().
		Select("player_id", "champion", "games", "wins", "kills", "deaths",
			"assists", "cs", "damage", "damage_taken", "updated_on").
		From("practice_player_stats")
}

func (r Repository) queryStats(ctx context.Context, builder sq.SelectBuilder) ([]ChampionStats, error) {
	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var stats []ChampionStats

	for rows.Next() {
		var stat ChampionStats
		if errScan := rows.Scan(&stat.PlayerID, &stat.Champion, &stat.Games, &stat.Wins,
			&stat.Kills, &stat.Deaths, &stat.Assists, &stat.CS, &stat.Damage,
			&stat.DamageTaken, &stat.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		stats = append(stats, stat)
	}

	return stats, nil
}

func (r Repository) Settings(ctx context.Context) (Settings, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("auto_pool_threshold", "last_scan_on").
		From("practice_settings").
		Where(sq.Eq{"practice_settings_id": 1}))
	if errRow != nil {
		return Settings{}, database.DBErr(errRow)
	}

	var settings Settings
	if errScan := row.Scan(&settings.AutoPoolThreshold, &settings.LastScanOn); errScan != nil {
		return Settings{}, database.DBErr(errScan)
	}

	return settings, nil
}

func (r Repository) SaveSettings(ctx context.Context, settings Settings) error {
	return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
		Builder().
		Update("practice_settings").
		Set("auto_pool_threshold", settings.AutoPoolThreshold).
		Set("updated_on", time.Now()).
		Where(sq.Eq{"practice_settings_id": 1})))
}

func (r Repository) SetLastScan(ctx context.Context, scannedAt time.Time) error {
	return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
		Builder().
		Update("practice_settings").
		Set("last_scan_on", scannedAt).
		Where(sq.Eq{"practice_settings_id": 1})))
}
