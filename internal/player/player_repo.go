package player

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

func (r Repository) Players(ctx context.Context) ([]Player, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.selectBuilder().OrderBy("summoner_name"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var players []Player

	for rows.Next() {
		player, errScan := r.scanPlayer(rows)
		if errScan != nil {
			return nil, database.DBErr(errScan)
		}

		players = append(players, player)
	}

	return players, nil
}

func (r Repository) LinkedPlayers(ctx context.Context) ([]Player, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.selectBuilder().
		Where(sq.NotEq{"riot_puuid": ""}).
		OrderBy("player_id"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	var players []Player

	for rows.Next() {
		player, errScan := r.scanPlayer(rows)
		if errScan != nil {
			return nil, database.DBErr(errScan)
		}

		players = append(players, player)
	}

	return players, nil
}

func (r Repository) PlayerByID(ctx context.Context, playerID int64) (Player, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.selectBuilder().Where(sq.Eq{"player_id": playerID}))
	if errRow != nil {
		return Player{}, database.DBErr(errRow)
	}

	return r.scanPlayer(row)
}

func (r Repository) Save(ctx context.Context, player *Player) error {
	player.UpdatedOn = time.Now()

	if player.PlayerID > 0 {
		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("player").
			SetMap(map[string]interface{}{
				"user_id":         player.UserID,
				"summoner_name":   player.SummonerName,
				"team_role":       player.TeamRole,
				"region":          player.Region,
				"champion_pool":   player.ChampionPool,
				"riot_puuid":      player.RiotPUUID,
				"profile_icon_id": player.ProfileIconID,
				"summoner_level":  player.SummonerLevel,
				"rank_tier":       player.RankTier,
				"rank_division":   player.RankDivision,
				"rank_lp":         player.RankLP,
				"rank_wins":       player.RankWins,
				"rank_losses":     player.RankLosses,
				"riot_updated_on": player.RiotUpdatedOn,
				"updated_on":      player.UpdatedOn,
			}).
			Where(sq.Eq{"player_id": player.PlayerID})))
	}

	player.CreatedOn = player.UpdatedOn

	if player.ChampionPool == nil {
		player.ChampionPool = []string{}
	}

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("player").
		SetMap(map[string]interface{}{
			"user_id":         player.UserID,
			"summoner_name":   player.SummonerName,
			"team_role":       player.TeamRole,
			"region":          player.Region,
			"champion_pool":   player.ChampionPool,
			"riot_puuid":      player.RiotPUUID,
			"profile_icon_id": player.ProfileIconID,
			"summoner_level":  player.SummonerLevel,
			"rank_tier":       player.RankTier,
			"rank_division":   player.RankDivision,
			"rank_lp":         player.RankLP,
			"rank_wins":       player.RankWins,
			"rank_losses":     player.RankLosses,
			"riot_updated_on": player.RiotUpdatedOn,
			"created_on":      player.CreatedOn,
			"updated_on":      player.UpdatedOn,
		}).
		Suffix("RETURNING player_id"), &player.PlayerID))
}

func (r Repository) Delete(ctx context.Context, playerID int64) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("player").
		Where(sq.Eq{"player_id": playerID})))
}

func (r Repository) SetChampionPool(ctx context.Context, playerID int64, pool []string) error {
	if pool == nil {
		pool = []string{}
	}

	return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
		Builder().
		Update("player").
		Set("champion_pool", pool).
		Set("updated_on", time.Now()).
		Where(sq.Eq{"player_id": playerID})))
}

func (r Repository) selectBuilder() sq.SelectBuilder {
	return r.db.
		Builder().
		Select("player_id", "user_id", "summoner_name", "team_role", "region", "champion_pool",
			"riot_puuid", "profile_icon_id", "summoner_level", "rank_tier", "rank_division",
			"rank_lp", "rank_wins", "rank_losses", "riot_updated_on", "created_on", "updated_on").
		From("player")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r Repository) scanPlayer(scanner rowScanner) (Player, error) {
	var player Player

	if errScan := scanner.Scan(&player.PlayerID, &player.UserID, &player.SummonerName,
		&player.TeamRole, &player.Region, &player.ChampionPool, &player.RiotPUUID,
		&player.ProfileIconID, &player.SummonerLevel, &player.RankTier, &player.RankDivision,
		&player.RankLP, &player.RankWins, &player.RankLosses, &player.RiotUpdatedOn,
		&player.CreatedOn, &player.UpdatedOn); errScan != nil {
		return Player{}, database.DBErr(errScan)
	}

	if player.ChampionPool == nil {
		player.ChampionPool = []string{}
	}

	return player, nil
}
