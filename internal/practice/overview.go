package practice

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
)

const (
	mostPlayedLimit  = 5
	standoutMinGames = 1
)

type PlayedChampion struct {
	PlayerID int64  `json:"player_id"`
	Player   string `json:"player"`
	Champion string `json:"champion"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	WinRate  int    `json:"win_rate"`
}

// Standout is the leading player/champion row for one overview category.
type Standout struct {
	Label    string `json:"label"`
	PlayerID int64  `json:"player_id"`
	Player   string `json:"player"`
	Champion string `json:"champion"`
	Games    int    `json:"games"`
	Value    string `json:"value"`
}

type Overview struct {
	TotalMatches int64            `json:"total_matches"`
	MostPlayed   []PlayedChampion `json:"most_played"`
	BestKDA      *Standout        `json:"best_kda"`
	Damage       *Standout        `json:"damage"`
	DamageTaken  *Standout        `json:"damage_taken"`
	CS           *Standout        `json:"cs"`
	Kills        *Standout        `json:"kills"`
	LastScanOn   string           `json:"last_scan_on,omitempty"`
}

// Overview builds the team practice summary from the aggregate rows. Each
// standout category is computed independently, so one row may lead several of
// them, and a category with no qualifying row is left null.
func (t *Tracker) Overview(ctx context.Context, names map[int64]string) (Overview, error) {
	stats, errStats := t.store.AllStats(ctx)
	if errStats != nil {
		return Overview{}, errStats
	}

	total, errTotal := t.store.MatchCount(ctx)
	if errTotal != nil {
		return Overview{}, errTotal
	}

	settings, errSettings := t.store.Settings(ctx)
	if errSettings != nil {
		return Overview{}, errSettings
	}

	overview := Overview{
		TotalMatches: total,
		MostPlayed:   mostPlayed(stats, names),
		BestKDA:      bestKDA(stats, names),
		Damage:       bestAverage(stats, names, "Highest Damage", func(s ChampionStats) float64 { return float64(s.Damage) }, formatGrouped),
		DamageTaken:  mostDamageTaken(stats, names),
		CS:           bestAverage(stats, names, "Best CS", func(s ChampionStats) float64 { return float64(s.CS) }, formatRounded),
		Kills:        bestAverage(stats, names, "Most Kills", func(s ChampionStats) float64 { return float64(s.Kills) }, formatTenths),
	}

	if settings.LastScanOn != nil {
		overview.LastScanOn = settings.LastScanOn.Format("2006-01-02 15:04:05")
	}

	return overview, nil
}

func mostPlayed(stats []ChampionStats, names map[int64]string) []PlayedChampion {
	sorted := make([]ChampionStats, len(stats))
	copy(sorted, stats)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Games != sorted[j].Games {
			return sorted[i].Games > sorted[j].Games
		}

		return sorted[i].Champion < sorted[j].Champion
	})

	played := make([]PlayedChampion, 0, mostPlayedLimit)

	for _, stat := range sorted {
		if len(played) == mostPlayedLimit {
			break
		}

		row := PlayedChampion{
			PlayerID: stat.PlayerID,
			Player:   names[stat.PlayerID],
			Champion: stat.Champion,
			Games:    stat.Games,
			Wins:     stat.Wins,
		}

		if stat.Games > 0 {
			row.WinRate = int(math.Round(float64(stat.Wins) / float64(stat.Games) * 100))
		}

		played = append(played, row)
	}

	return played
}

// bestKDA ranks by (kills+assists)/deaths with zero deaths treated as a
// perfect score outranking every finite ratio.
func bestKDA(stats []ChampionStats, names map[int64]string) *Standout {
	var (
		best      *ChampionStats
		bestRatio float64
	)

	for idx := range stats {
		stat := stats[idx]
		if stat.Games < standoutMinGames {
			continue
		}

		ratio := math.Inf(1)
		if stat.Deaths > 0 {
			ratio = float64(stat.Kills+stat.Assists) / float64(stat.Deaths)
		}

		if best == nil || ratio > bestRatio {
			best = &stats[idx]
			bestRatio = ratio
		}
	}

	if best == nil {
		return nil
	}

	value := "Perfect"
	if best.Deaths > 0 {
		value = fmt.Sprintf("%.2f", float64(best.Kills+best.Assists)/float64(best.Deaths))
	}

	return &Standout{
		Label:    "Best KDA",
		PlayerID: best.PlayerID,
		Player:   names[best.PlayerID],
		Champion: best.Champion,
		Games:    best.Games,
		Value:    value,
	}
}

func mostDamageTaken(stats []ChampionStats, names map[int64]string) *Standout {
	// Rows with no recorded damage taken are usually remakes, skip them.
	filtered := make([]ChampionStats, 0, len(stats))

	for _, stat := range stats {
		if stat.DamageTaken > 0 {
			filtered = append(filtered, stat)
		}
	}

	return bestAverage(filtered, names, "Most Damage Taken",
		func(s ChampionStats) float64 { return float64(s.DamageTaken) }, formatGrouped)
}

func bestAverage(stats []ChampionStats, names map[int64]string, label string,
	metric func(ChampionStats) float64, format func(float64) string,
) *Standout {
	var (
		best    *ChampionStats
		bestAvg float64
	)

	for idx := range stats {
		stat := stats[idx]
		if stat.Games < standoutMinGames {
			continue
		}

		avg := metric(stat) / float64(stat.Games)
		if best == nil || avg > bestAvg {
			best = &stats[idx]
			bestAvg = avg
		}
	}

	if best == nil {
		return nil
	}

	return &Standout{
		Label:    label,
		PlayerID: best.PlayerID,
		Player:   names[best.PlayerID],
		Champion: best.Champion,
		Games:    best.Games,
		Value:    format(bestAvg),
	}
}

func formatGrouped(value float64) string {
	return humanize.Comma(int64(math.Round(value)))
}

func formatRounded(value float64) string {
	return fmt.Sprintf("%d", int64(math.Round(value)))
}

func formatTenths(value float64) string {
	return fmt.Sprintf("%.1f", value)
}
