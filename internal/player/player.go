// Package player manages the roster: who is on the team, their in-game
// accounts and their champion pools.
package player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/fivestack-gg/fivestack/pkg/log"
)

var (
	ErrNameMissing = errors.New("summoner name cannot be empty")
	ErrNotLinked   = errors.New("player has no linked riot account")
)

type Player struct {
	PlayerID      int64      `json:"player_id"`
	UserID        *int64     `json:"user_id"`
	SummonerName  string     `json:"summoner_name"`
	TeamRole      string     `json:"team_role"`
	Region        string     `json:"region"`
	ChampionPool  []string   `json:"champion_pool"`
	RiotPUUID     string     `json:"riot_puuid"`
	ProfileIconID int        `json:"profile_icon_id"`
	SummonerLevel int        `json:"summoner_level"`
	RankTier      string     `json:"rank_tier"`
	RankDivision  string     `json:"rank_division"`
	RankLP        int        `json:"rank_lp"`
	RankWins      int        `json:"rank_wins"`
	RankLosses    int        `json:"rank_losses"`
	RiotUpdatedOn *time.Time `json:"riot_updated_on"`
	CreatedOn     time.Time  `json:"created_on"`
	UpdatedOn     time.Time  `json:"updated_on"`
}

// Linked is true once a riot account has been resolved for the player, making
// them eligible for practice match detection.
func (p Player) Linked() bool {
	return p.RiotPUUID != ""
}

type RankedQueue struct {
	Tier    string `json:"tier"`
	Rank    string `json:"rank"`
	LP      int    `json:"lp"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	WinRate int    `json:"win_rate"`
}

type RiotSummary struct {
	PUUID         string       `json:"puuid"`
	GameName      string       `json:"game_name"`
	TagLine       string       `json:"tag_line"`
	ProfileIconID int          `json:"profile_icon_id"`
	SummonerLevel int          `json:"summoner_level"`
	SoloQueue     *RankedQueue `json:"solo_queue"`
	FlexQueue     *RankedQueue `json:"flex_queue"`
}

type Players struct {
	repo Repository
	riot *riot.Client
}

func NewPlayers(repo Repository, riotClient *riot.Client) Players {
	return Players{repo: repo, riot: riotClient}
}

func (u Players) Players(ctx context.Context) ([]Player, error) {
	return u.repo.Players(ctx)
}

// LinkedPlayers returns roster members with a resolved riot account, the input
// set for a practice scan.
func (u Players) LinkedPlayers(ctx context.Context) ([]Player, error) {
	return u.repo.LinkedPlayers(ctx)
}

func (u Players) PlayerByID(ctx context.Context, playerID int64) (Player, error) {
	return u.repo.PlayerByID(ctx, playerID)
}

func (u Players) Save(ctx context.Context, player *Player) error {
	if player.SummonerName == "" {
		return ErrNameMissing
	}

	if player.Region == "" {
		player.Region = "na"
	}

	return u.repo.Save(ctx, player)
}

func (u Players) Delete(ctx context.Context, playerID int64) error {
	if err := u.repo.Delete(ctx, playerID); err != nil {
		return err
	}

	slog.Info("Deleted roster player", slog.Int64("player_id", playerID))

	return nil
}

func (u Players) SetChampionPool(ctx context.Context, playerID int64, pool []string) error {
	return u.repo.SetChampionPool(ctx, playerID, pool)
}

// Lookup resolves a riot id without persisting anything.
func (u Players) Lookup(ctx context.Context, region string, gameName string, tagLine string) (RiotSummary, error) {
	account, errAccount := u.riot.Account(ctx, region, gameName, tagLine)
	if errAccount != nil {
		return RiotSummary{}, errAccount
	}

	summoner, errSummoner := u.riot.Summoner(ctx, region, account.PUUID)
	if errSummoner != nil {
		return RiotSummary{}, errSummoner
	}

	summary := RiotSummary{
		PUUID:         account.PUUID,
		GameName:      account.GameName,
		TagLine:       account.TagLine,
		ProfileIconID: summoner.ProfileIconID,
		SummonerLevel: summoner.SummonerLevel,
	}

	entries, errEntries := u.riot.LeagueEntries(ctx, region, summoner.ID)
	if errEntries != nil {
		// Unranked players have no entries, anything else is still not fatal for a lookup.
		slog.Warn("Could not fetch ranked entries", log.ErrAttr(errEntries))

		return summary, nil
	}

	for _, entry := range entries {
		queue := rankedQueue(entry)

		switch entry.QueueType {
		case "RANKED_SOLO_5x5":
			summary.SoloQueue = &queue
		case "RANKED_FLEX_SR":
			summary.FlexQueue = &queue
		}
	}

	return summary, nil
}

// Link resolves the riot account for a roster player and persists the account
// data onto the player row.
func (u Players) Link(ctx context.Context, playerID int64, gameName string, tagLine string) (Player, error) {
	player, errPlayer := u.repo.PlayerByID(ctx, playerID)
	if errPlayer != nil {
		return Player{}, errPlayer
	}

	summary, errSummary := u.Lookup(ctx, player.Region, gameName, tagLine)
	if errSummary != nil {
		return Player{}, errSummary
	}

	now := time.Now()

	player.RiotPUUID = summary.PUUID
	player.ProfileIconID = summary.ProfileIconID
	player.SummonerLevel = summary.SummonerLevel
	player.RiotUpdatedOn = &now

	if summary.SoloQueue != nil {
		player.RankTier = summary.SoloQueue.Tier
		player.RankDivision = summary.SoloQueue.Rank
		player.RankLP = summary.SoloQueue.LP
		player.RankWins = summary.SoloQueue.Wins
		player.RankLosses = summary.SoloQueue.Losses
	}

	if errSave := u.repo.Save(ctx, &player); errSave != nil {
		return Player{}, errSave
	}

	slog.Info("Linked riot account",
		slog.Int64("player_id", player.PlayerID),
		slog.String("game_name", summary.GameName))

	return player, nil
}

func rankedQueue(entry riot.LeagueEntry) RankedQueue {
	queue := RankedQueue{
		Tier:   entry.Tier,
		Rank:   entry.Rank,
		LP:     entry.LeaguePoints,
		Wins:   entry.Wins,
		Losses: entry.Losses,
	}

	if total := entry.Wins + entry.Losses; total > 0 {
		queue.WinRate = int(float64(entry.Wins)/float64(total)*100 + 0.5)
	}

	return queue
}
