package practice_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/practice"
	"github.com/stretchr/testify/require"
)

func seedStat(t *testing.T, store *memStore, stat practice.ChampionStats) {
	t.Helper()

	stat.UpdatedOn = time.Now()
	require.NoError(t, store.AddChampionStats(context.Background(), stat))
}

func TestOverviewEmpty(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), map[int64]string{})
	require.NoError(t, errOverview)
	require.EqualValues(t, 0, overview.TotalMatches)
	require.Empty(t, overview.MostPlayed)
	require.Nil(t, overview.BestKDA)
	require.Nil(t, overview.Damage)
	require.Nil(t, overview.DamageTaken)
	require.Nil(t, overview.CS)
	require.Nil(t, overview.Kills)
	require.Empty(t, overview.LastScanOn)
}

func TestOverviewPerfectKDAOutranksFinite(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	names := map[int64]string{1: "PlayerA", 2: "PlayerB"}

	// Huge finite ratio on one row, a single deathless game on another.
	seedStat(t, store, practice.ChampionStats{
		PlayerID: 1, Champion: "Ahri",
		Games: 5, Wins: 5, Kills: 100, Deaths: 1, Assists: 100,
	})
	seedStat(t, store, practice.ChampionStats{
		PlayerID: 2, Champion: "Jinx",
		Games: 1, Wins: 1, Kills: 2, Deaths: 0, Assists: 1,
	})

	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), names)
	require.NoError(t, errOverview)
	require.NotNil(t, overview.BestKDA)
	require.Equal(t, "PlayerB", overview.BestKDA.Player)
	require.Equal(t, "Jinx", overview.BestKDA.Champion)
	require.Equal(t, "Perfect", overview.BestKDA.Value)
}

func TestOverviewKDAFormatting(t *testing.T) {
	t.Parallel()

	store := newMemStore()

	seedStat(t, store, practice.ChampionStats{
		PlayerID: 1, Champion: "Ahri",
		Games: 2, Kills: 10, Deaths: 4, Assists: 4,
	})

	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), map[int64]string{1: "PlayerA"})
	require.NoError(t, errOverview)
	require.NotNil(t, overview.BestKDA)
	require.Equal(t, "3.50", overview.BestKDA.Value)
}

func TestOverviewStandoutCategories(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	names := map[int64]string{1: "PlayerA", 2: "PlayerB"}

	seedStat(t, store, practice.ChampionStats{
		PlayerID: 1, Champion: "Ahri",
		Games: 2, Wins: 1, Kills: 20, Deaths: 4, Assists: 10,
		CS: 400, Damage: 50000, DamageTaken: 0,
	})
	seedStat(t, store, practice.ChampionStats{
		PlayerID: 2, Champion: "Ornn",
		Games: 4, Wins: 3, Kills: 8, Deaths: 12, Assists: 40,
		CS: 600, Damage: 40000, DamageTaken: 120000,
	})

	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), names)
	require.NoError(t, errOverview)

	// Average damage: 25000 vs 10000.
	require.NotNil(t, overview.Damage)
	require.Equal(t, "PlayerA", overview.Damage.Player)
	require.Equal(t, "25,000", overview.Damage.Value)

	// Rows without damage taken never lead the damage taken category.
	require.NotNil(t, overview.DamageTaken)
	require.Equal(t, "PlayerB", overview.DamageTaken.Player)
	require.Equal(t, "30,000", overview.DamageTaken.Value)

	// Average kills: 10.0 vs 2.0.
	require.NotNil(t, overview.Kills)
	require.Equal(t, "PlayerA", overview.Kills.Player)
	require.Equal(t, "10.0", overview.Kills.Value)

	// Average cs: 200 vs 150.
	require.NotNil(t, overview.CS)
	require.Equal(t, "PlayerA", overview.CS.Player)
	require.Equal(t, "200", overview.CS.Value)
}

func TestOverviewDamageTakenAbsentWhenNoRowsQualify(t *testing.T) {
	t.Parallel()

	store := newMemStore()

	seedStat(t, store, practice.ChampionStats{
		PlayerID: 1, Champion: "Ahri",
		Games: 3, Damage: 10000, DamageTaken: 0,
	})

	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), map[int64]string{1: "PlayerA"})
	require.NoError(t, errOverview)
	require.NotNil(t, overview.Damage)
	require.Nil(t, overview.DamageTaken)
}

func TestOverviewMostPlayed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	names := map[int64]string{1: "PlayerA", 2: "PlayerB"}

	champions := []struct {
		playerID int64
		champion string
		games    int
		wins     int
	}{
		{1, "Ahri", 10, 7},
		{1, "Lux", 2, 0},
		{2, "Jinx", 8, 3},
		{2, "Ornn", 5, 5},
		{2, "Thresh", 4, 2},
		{1, "Zed", 1, 1},
	}

	for _, row := range champions {
		seedStat(t, store, practice.ChampionStats{
			PlayerID: row.playerID, Champion: row.champion,
			Games: row.games, Wins: row.wins,
		})
	}

	tracker := practice.NewTracker(store, newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	overview, errOverview := tracker.Overview(context.Background(), names)
	require.NoError(t, errOverview)
	require.Len(t, overview.MostPlayed, 5)

	require.Equal(t, "Ahri", overview.MostPlayed[0].Champion)
	require.Equal(t, "PlayerA", overview.MostPlayed[0].Player)
	require.Equal(t, 70, overview.MostPlayed[0].WinRate)

	require.Equal(t, "Jinx", overview.MostPlayed[1].Champion)
	require.Equal(t, "Ornn", overview.MostPlayed[2].Champion)
	require.Equal(t, 100, overview.MostPlayed[2].WinRate)
	require.Equal(t, "Thresh", overview.MostPlayed[3].Champion)
	require.Equal(t, "Lux", overview.MostPlayed[4].Champion)
}
