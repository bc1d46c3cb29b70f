// Package practice detects practice matches among the roster's recent games
// and maintains per player champion aggregates, champion pool promotion and
// the team overview built on top of them.
package practice

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/fivestack-gg/fivestack/pkg/fp"
	"github.com/fivestack-gg/fivestack/pkg/log"
)

var (
	ErrScanInProgress = errors.New("a scan is already running")
	ErrRosterTooSmall = errors.New("need at least two roster players with linked riot accounts")
)

// A match qualifies as a practice match when at least this many roster
// players took part in it.
const rosterQualifyCount = 2

const (
	minPoolThreshold = 1
	maxPoolThreshold = 20
)

type Participant struct {
	PUUID       string `json:"puuid"`
	Name        string `json:"name"`
	Champion    string `json:"champion"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Assists     int    `json:"assists"`
	CS          int    `json:"cs"`
	Damage      int64  `json:"damage"`
	DamageTaken int64  `json:"damage_taken"`
	Win         bool   `json:"win"`
	TeamID      int    `json:"team_id"`
	// PlayerID is 0 for opponents and teammates outside the roster.
	PlayerID int64 `json:"player_id,omitempty"`
}

type Match struct {
	MatchID      string        `json:"match_id"`
	GameCreation time.Time     `json:"game_creation"`
	GameDuration int64         `json:"game_duration"`
	GameMode     string        `json:"game_mode"`
	WinningTeam  int           `json:"winning_team"`
	RosterCount  int           `json:"roster_count"`
	Participants []Participant `json:"participants"`
	CreatedOn    time.Time     `json:"created_on"`
}

// ChampionStats is the running aggregate for one roster player on one
// champion. Totals only ever grow; averages are derived at read time.
type ChampionStats struct {
	PlayerID    int64     `json:"player_id"`
	Champion    string    `json:"champion"`
	Games       int       `json:"games"`
	Wins        int       `json:"wins"`
	Kills       int       `json:"kills"`
	Deaths      int       `json:"deaths"`
	Assists     int       `json:"assists"`
	CS          int       `json:"cs"`
	Damage      int64     `json:"damage"`
	DamageTaken int64     `json:"damage_taken"`
	UpdatedOn   time.Time `json:"updated_on"`
}

type Settings struct {
	AutoPoolThreshold int        `json:"auto_pool_threshold"`
	LastScanOn        *time.Time `json:"last_scan_on"`
}

type ScanReport struct {
	MatchesScanned       int `json:"matches_scanned"`
	PracticeMatchesFound int `json:"practice_matches_found"`
	PlayersUpdated       int `json:"players_updated"`
	PoolsUpdated         int `json:"pools_updated"`
}

// MatchSource is the subset of the riot client the scanner needs.
type MatchSource interface {
	HasKey() bool
	MatchIDs(ctx context.Context, region string, puuid string, count int, since time.Time) ([]string, error)
	Match(ctx context.Context, region string, matchID string) (riot.Match, error)
}

// Roster provides the linked players a scan operates over.
type Roster interface {
	LinkedPlayers(ctx context.Context) ([]player.Player, error)
	SetChampionPool(ctx context.Context, playerID int64, pool []string) error
}

// Store is the persistence surface for matches, aggregates and settings.
// Repository implements it over postgres.
type Store interface {
	MatchIDs(ctx context.Context) (map[string]bool, error)
	SaveMatch(ctx context.Context, match *Match) error
	Matches(ctx context.Context, limit uint64, offset uint64, playerID int64) ([]Match, int64, error)
	AddChampionStats(ctx context.Context, delta ChampionStats) error
	PlayerStats(ctx context.Context, playerID int64) ([]ChampionStats, error)
	AllStats(ctx context.Context) ([]ChampionStats, error)
	MatchCount(ctx context.Context) (int64, error)
	Settings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
	SetLastScan(ctx context.Context, scannedAt time.Time) error
}

type Tracker struct {
	store      Store
	source     MatchSource
	roster     Roster
	windowSize int
	since      time.Time
	scanMu     sync.Mutex
}

// NewTracker creates the scan orchestrator. windowSize is how many recent
// match ids are requested per player, since optionally bounds how far back
// discovery reaches (zero for no bound).
func NewTracker(store Store, source MatchSource, roster Roster, windowSize int, since time.Time) *Tracker {
	if windowSize <= 0 {
		windowSize = 20
	}

	return &Tracker{
		store:      store,
		source:     source,
		roster:     roster,
		windowSize: windowSize,
		since:      since,
	}
}

// Scan discovers recent matches for every linked roster player, records those
// with at least two roster participants and updates champion aggregates and
// pools. Only one scan runs at a time. When the match source rejects our
// credentials mid-scan the remaining candidates are abandoned and the partial
// report is returned alongside the error.
func (t *Tracker) Scan(ctx context.Context) (ScanReport, error) {
	var report ScanReport

	if !t.source.HasKey() {
		return report, riot.ErrNoAPIKey
	}

	if !t.scanMu.TryLock() {
		return report, ErrScanInProgress
	}
	defer t.scanMu.Unlock()

	players, errPlayers := t.roster.LinkedPlayers(ctx)
	if errPlayers != nil {
		return report, errPlayers
	}

	// A single linked player can never produce a qualifying match, so do not
	// spend provider calls discovering their games.
	if len(players) < rosterQualifyCount {
		return report, ErrRosterTooSmall
	}

	processed, errProcessed := t.store.MatchIDs(ctx)
	if errProcessed != nil {
		return report, errProcessed
	}

	candidates, regions, errDiscover := t.discover(ctx, players, processed)
	if errDiscover != nil {
		return report, errDiscover
	}

	byPUUID := make(map[string]player.Player, len(players))
	for _, rosterPlayer := range players {
		byPUUID[rosterPlayer.RiotPUUID] = rosterPlayer
	}

	updated := map[int64]bool{}

	for _, matchID := range candidates {
		detail, errDetail := t.source.Match(ctx, regions[matchID], matchID)
		if errDetail != nil {
			if errors.Is(errDetail, riot.ErrUnauthorized) {
				return report, errDetail
			}

			// Left unprocessed, so the next scan picks it up again.
			slog.Warn("Failed to fetch match detail",
				slog.String("match_id", matchID), log.ErrAttr(errDetail))

			continue
		}

		report.MatchesScanned++

		match, deltas := classify(detail, byPUUID)
		if match == nil {
			continue
		}

		if errSave := t.store.SaveMatch(ctx, match); errSave != nil {
			// Someone recorded it first, do not count it twice.
			if errors.Is(errSave, database.ErrDuplicate) {
				continue
			}

			return report, errSave
		}

		report.PracticeMatchesFound++

		for _, delta := range deltas {
			if errStats := t.store.AddChampionStats(ctx, delta); errStats != nil {
				return report, errStats
			}

			updated[delta.PlayerID] = true
		}
	}

	report.PlayersUpdated = len(updated)

	poolsUpdated, errPromote := t.PromotePools(ctx)
	if errPromote != nil {
		return report, errPromote
	}

	report.PoolsUpdated = poolsUpdated

	if errScanTime := t.store.SetLastScan(ctx, time.Now()); errScanTime != nil {
		return report, errScanTime
	}

	slog.Info("Practice scan complete",
		slog.Int("scanned", report.MatchesScanned),
		slog.Int("found", report.PracticeMatchesFound),
		slog.Int("players", report.PlayersUpdated),
		slog.Int("pools", report.PoolsUpdated))

	return report, nil
}

// discover collects the union of recent match ids across the roster, drops
// the already recorded ones and returns the remainder in ascending id order
// so repeated scans evaluate candidates in the same sequence.
func (t *Tracker) discover(ctx context.Context, players []player.Player, processed map[string]bool) ([]string, map[string]string, error) {
	regions := map[string]string{}

	var candidates []string

	for _, rosterPlayer := range players {
		matchIDs, errIDs := t.source.MatchIDs(ctx, rosterPlayer.Region, rosterPlayer.RiotPUUID, t.windowSize, t.since)
		if errIDs != nil {
			if errors.Is(errIDs, riot.ErrUnauthorized) {
				return nil, nil, errIDs
			}

			slog.Warn("Failed to list matches for player",
				slog.Int64("player_id", rosterPlayer.PlayerID), log.ErrAttr(errIDs))

			continue
		}

		for _, matchID := range matchIDs {
			if processed[matchID] {
				continue
			}

			if _, seen := regions[matchID]; !seen {
				regions[matchID] = rosterPlayer.Region

				candidates = append(candidates, matchID)
			}
		}
	}

	sort.Strings(candidates)

	return candidates, regions, nil
}

// classify decides whether a fetched match is a practice match. It returns
// nil when fewer than two roster players took part, otherwise the match to
// record plus one aggregate delta per roster participant.
func classify(detail riot.Match, roster map[string]player.Player) (*Match, []ChampionStats) {
	var (
		rosterCount int
		winningTeam int
		deltas      []ChampionStats
	)

	now := time.Now()
	participants := make([]Participant, 0, len(detail.Info.Participants))

	for _, part := range detail.Info.Participants {
		if part.Win {
			winningTeam = part.TeamID
		}

		snapshot := Participant{
			PUUID:       part.PUUID,
			Name:        part.Name(),
			Champion:    part.ChampionName,
			Kills:       part.Kills,
			Deaths:      part.Deaths,
			Assists:     part.Assists,
			CS:          part.CS(),
			Damage:      part.TotalDamageDealtToChampions,
			DamageTaken: part.TotalDamageTaken,
			Win:         part.Win,
			TeamID:      part.TeamID,
		}

		if rosterPlayer, found := roster[part.PUUID]; found {
			rosterCount++
			snapshot.PlayerID = rosterPlayer.PlayerID

			wins := 0
			if part.Win {
				wins = 1
			}

			deltas = append(deltas, ChampionStats{
				PlayerID:    rosterPlayer.PlayerID,
				Champion:    part.ChampionName,
				Games:       1,
				Wins:        wins,
				Kills:       part.Kills,
				Deaths:      part.Deaths,
				Assists:     part.Assists,
				CS:          part.CS(),
				Damage:      part.TotalDamageDealtToChampions,
				DamageTaken: part.TotalDamageTaken,
				UpdatedOn:   now,
			})
		}

		participants = append(participants, snapshot)
	}

	if rosterCount < rosterQualifyCount {
		return nil, nil
	}

	return &Match{
		MatchID:      detail.Metadata.MatchID,
		GameCreation: time.UnixMilli(detail.Info.GameCreation),
		GameDuration: detail.Info.GameDuration,
		GameMode:     detail.Info.GameMode,
		WinningTeam:  winningTeam,
		RosterCount:  rosterCount,
		Participants: participants,
		CreatedOn:    now,
	}, deltas
}

// PromotePools adds champions a player has practiced at least
// autoPoolThreshold times to their champion pool. Pools only ever grow here;
// champions already present stay regardless of the current threshold.
func (t *Tracker) PromotePools(ctx context.Context) (int, error) {
	settings, errSettings := t.store.Settings(ctx)
	if errSettings != nil {
		return 0, errSettings
	}

	players, errPlayers := t.roster.LinkedPlayers(ctx)
	if errPlayers != nil {
		return 0, errPlayers
	}

	promoted := 0

	for _, rosterPlayer := range players {
		stats, errStats := t.store.PlayerStats(ctx, rosterPlayer.PlayerID)
		if errStats != nil {
			return promoted, errStats
		}

		pool := rosterPlayer.ChampionPool
		grew := false

		for _, stat := range stats {
			if stat.Games < settings.AutoPoolThreshold {
				continue
			}

			if !fp.Contains(pool, stat.Champion) {
				pool = append(pool, stat.Champion)
				grew = true
			}
		}

		if !grew {
			continue
		}

		if errSet := t.roster.SetChampionPool(ctx, rosterPlayer.PlayerID, pool); errSet != nil {
			return promoted, errSet
		}

		promoted++

		slog.Info("Promoted champions into pool",
			slog.Int64("player_id", rosterPlayer.PlayerID),
			slog.Int("pool_size", len(pool)))
	}

	return promoted, nil
}

// Matches lists recorded practice matches, optionally narrowed to those a
// given roster player appeared in.
func (t *Tracker) Matches(ctx context.Context, limit uint64, offset uint64, playerID int64) ([]Match, int64, error) {
	return t.store.Matches(ctx, limit, offset, playerID)
}

func (t *Tracker) PlayerStats(ctx context.Context, playerID int64) ([]ChampionStats, error) {
	return t.store.PlayerStats(ctx, playerID)
}

func (t *Tracker) AllStats(ctx context.Context) ([]ChampionStats, error) {
	return t.store.AllStats(ctx)
}

func (t *Tracker) Settings(ctx context.Context) (Settings, error) {
	return t.store.Settings(ctx)
}

// SaveSettings clamps the threshold into its valid range before persisting.
func (t *Tracker) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	if settings.AutoPoolThreshold < minPoolThreshold {
		settings.AutoPoolThreshold = minPoolThreshold
	}

	if settings.AutoPoolThreshold > maxPoolThreshold {
		settings.AutoPoolThreshold = maxPoolThreshold
	}

	if errSave := t.store.SaveSettings(ctx, settings); errSave != nil {
		return Settings{}, errSave
	}

	return t.store.Settings(ctx)
}
