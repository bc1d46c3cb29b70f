package practice_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/fivestack-gg/fivestack/internal/practice"
	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/stretchr/testify/require"
)

type statKey struct {
	playerID int64
	champion string
}

type memStore struct {
	mu sync.Mutex

	matches  map[string]practice.Match
	stats    map[statKey]practice.ChampionStats
	settings practice.Settings

	// hideKnownMatches makes MatchIDs report nothing while SaveMatch still
	// rejects duplicates, simulating a concurrent writer.
	hideKnownMatches bool
}

func newMemStore() *memStore {
	return &memStore{
		matches:  map[string]practice.Match{},
		stats:    map[statKey]practice.ChampionStats{},
		settings: practice.Settings{AutoPoolThreshold: 3},
	}
}

func (s *memStore) MatchIDs(_ context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := map[string]bool{}

	if s.hideKnownMatches {
		return known, nil
	}

	for matchID := range s.matches {
		known[matchID] = true
	}

	return known, nil
}

func (s *memStore) SaveMatch(_ context.Context, match *practice.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.matches[match.MatchID]; exists {
		return database.ErrDuplicate
	}

	s.matches[match.MatchID] = *match

	return nil
}

func (s *memStore) Matches(_ context.Context, _ uint64, _ uint64, playerID int64) ([]practice.Match, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []practice.Match

	for _, match := range s.matches {
		if playerID > 0 && !matchHasPlayer(match, playerID) {
			continue
		}

		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].GameCreation.After(matches[j].GameCreation)
	})

	return matches, int64(len(matches)), nil
}

func matchHasPlayer(match practice.Match, playerID int64) bool {
	for _, part := range match.Participants {
		if part.PlayerID == playerID {
			return true
		}
	}

	return false
}

func (s *memStore) AddChampionStats(_ context.Context, delta practice.ChampionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statKey{playerID: delta.PlayerID, champion: delta.Champion}

	current := s.stats[key]
	current.PlayerID = delta.PlayerID
	current.Champion = delta.Champion
	current.Games += delta.Games
	current.Wins += delta.Wins
	current.Kills += delta.Kills
	current.Deaths += delta.Deaths
	current.Assists += delta.Assists
	current.CS += delta.CS
	current.Damage += delta.Damage
	current.DamageTaken += delta.DamageTaken
	current.UpdatedOn = delta.UpdatedOn
	s.stats[key] = current

	return nil
}

func (s *memStore) PlayerStats(_ context.Context, playerID int64) ([]practice.ChampionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats []practice.ChampionStats

	for _, stat := range s.stats {
		if stat.PlayerID == playerID {
			stats = append(stats, stat)
		}
	}

	return stats, nil
}

func (s *memStore) AllStats(_ context.Context) ([]practice.ChampionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats []practice.ChampionStats
	for _, stat := range s.stats {
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].PlayerID != stats[j].PlayerID {
			return stats[i].PlayerID < stats[j].PlayerID
		}

		return stats[i].Champion < stats[j].Champion
	})

	return stats, nil
}

func (s *memStore) MatchCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.matches)), nil
}

func (s *memStore) Settings(_ context.Context) (practice.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings, nil
}

func (s *memStore) SaveSettings(_ context.Context, settings practice.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.AutoPoolThreshold = settings.AutoPoolThreshold

	return nil
}

func (s *memStore) SetLastScan(_ context.Context, scannedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.LastScanOn = &scannedAt

	return nil
}

type fakeSource struct {
	mu sync.Mutex

	hasKey     bool
	idsByPUUID map[string][]string
	idErrs     map[string]error
	matches    map[string]riot.Match
	matchErrs  map[string]error

	listCalls int
	fetched   []string

	// blockOnList, when set, signals entered and then waits for release,
	// letting a test hold a scan mid-flight.
	blockOnList bool
	entered     chan struct{}
	release     chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		hasKey:     true,
		idsByPUUID: map[string][]string{},
		idErrs:     map[string]error{},
		matches:    map[string]riot.Match{},
		matchErrs:  map[string]error{},
	}
}

func (f *fakeSource) HasKey() bool {
	return f.hasKey
}

func (f *fakeSource) MatchIDs(_ context.Context, _ string, puuid string, _ int, _ time.Time) ([]string, error) {
	if f.blockOnList {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++

	if err, found := f.idErrs[puuid]; found {
		return nil, err
	}

	return f.idsByPUUID[puuid], nil
}

func (f *fakeSource) Match(_ context.Context, _ string, matchID string) (riot.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, matchID)

	if err, found := f.matchErrs[matchID]; found {
		return riot.Match{}, err
	}

	return f.matches[matchID], nil
}

type fakeRoster struct {
	mu      sync.Mutex
	players []player.Player
}

func (f *fakeRoster) LinkedPlayers(_ context.Context) ([]player.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var linked []player.Player

	for _, rosterPlayer := range f.players {
		if rosterPlayer.Linked() {
			linked = append(linked, rosterPlayer)
		}
	}

	return linked, nil
}

func (f *fakeRoster) SetChampionPool(_ context.Context, playerID int64, pool []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for idx := range f.players {
		if f.players[idx].PlayerID == playerID {
			f.players[idx].ChampionPool = pool
		}
	}

	return nil
}

func (f *fakeRoster) pool(playerID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rosterPlayer := range f.players {
		if rosterPlayer.PlayerID == playerID {
			return rosterPlayer.ChampionPool
		}
	}

	return nil
}

func makeParticipant(puuid string, champion string, win bool, teamID int) riot.MatchParticipant {
	return riot.MatchParticipant{
		PUUID:                       puuid,
		RiotIDGameName:              puuid,
		ChampionName:                champion,
		Kills:                       5,
		Deaths:                      3,
		Assists:                     7,
		TotalMinionsKilled:          150,
		NeutralMinionsKilled:        20,
		TotalDamageDealtToChampions: 18000,
		TotalDamageTaken:            15000,
		Win:                         win,
		TeamID:                      teamID,
	}
}

func makeMatch(matchID string, participants ...riot.MatchParticipant) riot.Match {
	return riot.Match{
		Metadata: riot.MatchMetadata{MatchID: matchID},
		Info: riot.MatchInfo{
			GameCreation: time.Now().Add(-time.Hour).UnixMilli(),
			GameDuration: 1800,
			GameMode:     "CLASSIC",
			Participants: participants,
		},
	}
}

func twoPlayerRoster() *fakeRoster {
	return &fakeRoster{players: []player.Player{
		{PlayerID: 1, SummonerName: "PlayerA", Region: "na", RiotPUUID: "puuid-a", ChampionPool: []string{}},
		{PlayerID: 2, SummonerName: "PlayerB", Region: "na", RiotPUUID: "puuid-b", ChampionPool: []string{}},
	}}
}

func TestScanRecordsQualifyingMatch(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idsByPUUID["puuid-a"] = []string{"NA1_100"}
	source.idsByPUUID["puuid-b"] = []string{"NA1_100"}
	source.matches["NA1_100"] = makeMatch("NA1_100",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100),
		makeParticipant("enemy-1", "Zed", false, 200))

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	report, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, 1, report.MatchesScanned)
	require.Equal(t, 1, report.PracticeMatchesFound)
	require.Equal(t, 2, report.PlayersUpdated)

	matches, count, errMatches := tracker.Matches(context.Background(), 25, 0, 0)
	require.NoError(t, errMatches)
	require.EqualValues(t, 1, count)
	require.Equal(t, "NA1_100", matches[0].MatchID)
	require.Equal(t, 2, matches[0].RosterCount)
	require.Equal(t, 100, matches[0].WinningTeam)
	require.Len(t, matches[0].Participants, 3)

	statsA, errStats := tracker.PlayerStats(context.Background(), 1)
	require.NoError(t, errStats)
	require.Len(t, statsA, 1)
	require.Equal(t, "Ahri", statsA[0].Champion)
	require.Equal(t, 1, statsA[0].Games)
	require.Equal(t, 1, statsA[0].Wins)
	require.Equal(t, 170, statsA[0].CS)

	settings, errSettings := tracker.Settings(context.Background())
	require.NoError(t, errSettings)
	require.NotNil(t, settings.LastScanOn)

	// A second scan with no new provider data changes nothing.
	report2, errScan2 := tracker.Scan(context.Background())
	require.NoError(t, errScan2)
	require.Equal(t, 0, report2.MatchesScanned)
	require.Equal(t, 0, report2.PracticeMatchesFound)

	statsA2, _ := tracker.PlayerStats(context.Background(), 1)
	require.Equal(t, 1, statsA2[0].Games)
}

func TestScanIgnoresSoloMatches(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idsByPUUID["puuid-a"] = []string{"NA1_200"}
	source.matches["NA1_200"] = makeMatch("NA1_200",
		makeParticipant("puuid-a", "Ahri", false, 100),
		makeParticipant("enemy-1", "Zed", true, 200))

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	report, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, 1, report.MatchesScanned)
	require.Equal(t, 0, report.PracticeMatchesFound)
	require.Equal(t, 0, report.PlayersUpdated)

	_, count, _ := tracker.Matches(context.Background(), 25, 0, 0)
	require.EqualValues(t, 0, count)

	stats, _ := tracker.PlayerStats(context.Background(), 1)
	require.Empty(t, stats)
}

func TestScanRequiresAPIKey(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.hasKey = false

	tracker := practice.NewTracker(newMemStore(), source, twoPlayerRoster(), 20, time.Time{})

	_, errScan := tracker.Scan(context.Background())
	require.ErrorIs(t, errScan, riot.ErrNoAPIKey)
}

func TestScanRequiresTwoLinkedPlayers(t *testing.T) {
	t.Parallel()

	// No qualifying match can exist below two linked players, so the scan
	// refuses before any provider call.
	for name, roster := range map[string]*fakeRoster{
		"none linked": {players: []player.Player{
			{PlayerID: 1, SummonerName: "Unlinked", Region: "na"},
		}},
		"one linked": {players: []player.Player{
			{PlayerID: 1, SummonerName: "PlayerA", Region: "na", RiotPUUID: "puuid-a"},
			{PlayerID: 2, SummonerName: "Unlinked", Region: "na"},
		}},
	} {
		source := newFakeSource()
		source.idsByPUUID["puuid-a"] = []string{"NA1_800"}

		tracker := practice.NewTracker(newMemStore(), source, roster, 20, time.Time{})

		_, errScan := tracker.Scan(context.Background())
		require.ErrorIs(t, errScan, practice.ErrRosterTooSmall, name)
		require.Zero(t, source.listCalls, name)
	}
}

func TestScanContinuesAfterFetchFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idsByPUUID["puuid-a"] = []string{"NA1_301", "NA1_302", "NA1_303"}
	source.matches["NA1_301"] = makeMatch("NA1_301",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100))
	source.matchErrs["NA1_302"] = riot.ErrRateLimited
	source.matches["NA1_303"] = makeMatch("NA1_303",
		makeParticipant("puuid-a", "Ahri", false, 100),
		makeParticipant("puuid-b", "Jinx", false, 100))

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	report, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, 2, report.MatchesScanned)
	require.Equal(t, 2, report.PracticeMatchesFound)

	// The failed id was not marked processed and is retried next scan.
	delete(source.matchErrs, "NA1_302")
	source.matches["NA1_302"] = makeMatch("NA1_302",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100))

	report2, errScan2 := tracker.Scan(context.Background())
	require.NoError(t, errScan2)
	require.Equal(t, 1, report2.MatchesScanned)
	require.Equal(t, 1, report2.PracticeMatchesFound)
}

func TestScanAbortsWhenKeyRejected(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idErrs["puuid-a"] = riot.ErrUnauthorized

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	_, errScan := tracker.Scan(context.Background())
	require.ErrorIs(t, errScan, riot.ErrUnauthorized)

	// Nothing was recorded and the last scan marker stays untouched.
	settings, _ := tracker.Settings(context.Background())
	require.Nil(t, settings.LastScanOn)
}

func TestScanAbortsMidFetchWhenKeyRejected(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idsByPUUID["puuid-a"] = []string{"NA1_401", "NA1_402"}
	source.matches["NA1_401"] = makeMatch("NA1_401",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100))
	source.matchErrs["NA1_402"] = riot.ErrUnauthorized

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	report, errScan := tracker.Scan(context.Background())
	require.ErrorIs(t, errScan, riot.ErrUnauthorized)
	// Candidates are evaluated in ascending id order, so the first match
	// was already recorded before the abort.
	require.Equal(t, 1, report.MatchesScanned)
	require.Equal(t, 1, report.PracticeMatchesFound)
}

func TestScanSkipsAggregationOnDuplicateInsert(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.hideKnownMatches = true

	source := newFakeSource()
	roster := twoPlayerRoster()

	source.idsByPUUID["puuid-a"] = []string{"NA1_500"}
	source.matches["NA1_500"] = makeMatch("NA1_500",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100))

	// The match is already on disk even though MatchIDs hides it.
	store.matches["NA1_500"] = practice.Match{MatchID: "NA1_500"}

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	report, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, 1, report.MatchesScanned)
	require.Equal(t, 0, report.PracticeMatchesFound)

	stats, _ := tracker.PlayerStats(context.Background(), 1)
	require.Empty(t, stats)
}

func TestScanSingleFlight(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	source.blockOnList = true
	source.entered = make(chan struct{}, 2)
	source.release = make(chan struct{})

	roster := twoPlayerRoster()
	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	done := make(chan error, 1)

	go func() {
		_, errScan := tracker.Scan(context.Background())
		done <- errScan
	}()

	<-source.entered

	_, errSecond := tracker.Scan(context.Background())
	require.ErrorIs(t, errSecond, practice.ErrScanInProgress)

	close(source.release)

	require.NoError(t, <-done)
}

func TestScanEvaluatesCandidatesInOrder(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	// Discovery order differs per player, evaluation order must not.
	source.idsByPUUID["puuid-a"] = []string{"NA1_903", "NA1_901"}
	source.idsByPUUID["puuid-b"] = []string{"NA1_902", "NA1_903"}

	for _, matchID := range []string{"NA1_901", "NA1_902", "NA1_903"} {
		source.matches[matchID] = makeMatch(matchID,
			makeParticipant("puuid-a", "Ahri", true, 100),
			makeParticipant("puuid-b", "Jinx", true, 100))
	}

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	_, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, []string{"NA1_901", "NA1_902", "NA1_903"}, source.fetched)
}

func TestPromotePoolsThreshold(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()
	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	playMatch := func(matchID string) {
		source.mu.Lock()
		source.idsByPUUID["puuid-a"] = append(source.idsByPUUID["puuid-a"], matchID)
		source.matches[matchID] = makeMatch(matchID,
			makeParticipant("puuid-a", "Ahri", true, 100),
			makeParticipant("puuid-b", "Jinx", true, 100))
		source.mu.Unlock()
	}

	playMatch("NA1_601")
	playMatch("NA1_602")

	report, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)
	require.Equal(t, 0, report.PoolsUpdated)
	require.NotContains(t, roster.pool(1), "Ahri")

	// The third qualifying game crosses the threshold.
	playMatch("NA1_603")

	report2, errScan2 := tracker.Scan(context.Background())
	require.NoError(t, errScan2)
	require.Equal(t, 2, report2.PoolsUpdated)
	require.Contains(t, roster.pool(1), "Ahri")
	require.Contains(t, roster.pool(2), "Jinx")
}

func TestPromotePoolsMonotonic(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()
	roster.players[0].ChampionPool = []string{"Ahri"}

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	// Raising the threshold never removes a promoted champion.
	_, errSave := tracker.SaveSettings(context.Background(), practice.Settings{AutoPoolThreshold: 20})
	require.NoError(t, errSave)

	promoted, errPromote := tracker.PromotePools(context.Background())
	require.NoError(t, errPromote)
	require.Equal(t, 0, promoted)
	require.Contains(t, roster.pool(1), "Ahri")
}

func TestSaveSettingsClampsThreshold(t *testing.T) {
	t.Parallel()

	tracker := practice.NewTracker(newMemStore(), newFakeSource(), twoPlayerRoster(), 20, time.Time{})

	low, errLow := tracker.SaveSettings(context.Background(), practice.Settings{AutoPoolThreshold: 0})
	require.NoError(t, errLow)
	require.Equal(t, 1, low.AutoPoolThreshold)

	high, errHigh := tracker.SaveSettings(context.Background(), practice.Settings{AutoPoolThreshold: 99})
	require.NoError(t, errHigh)
	require.Equal(t, 20, high.AutoPoolThreshold)

	mid, errMid := tracker.SaveSettings(context.Background(), practice.Settings{AutoPoolThreshold: 5})
	require.NoError(t, errMid)
	require.Equal(t, 5, mid.AutoPoolThreshold)
}

func TestScanGamesMatchRecordedMatches(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := twoPlayerRoster()

	for _, matchID := range []string{"NA1_701", "NA1_702", "NA1_703"} {
		source.idsByPUUID["puuid-a"] = append(source.idsByPUUID["puuid-a"], matchID)
		source.matches[matchID] = makeMatch(matchID,
			makeParticipant("puuid-a", "Ahri", true, 100),
			makeParticipant("puuid-b", "Jinx", true, 100))
	}

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	_, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)

	// Total games per player equals the number of recorded matches they
	// appear in, so nothing was counted twice.
	_, count, _ := tracker.Matches(context.Background(), 25, 0, 0)

	for _, playerID := range []int64{1, 2} {
		stats, errStats := tracker.PlayerStats(context.Background(), playerID)
		require.NoError(t, errStats)

		games := 0
		for _, stat := range stats {
			games += stat.Games
		}

		require.EqualValues(t, count, int64(games))
	}
}

func TestMatchesFilteredByPlayer(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	source := newFakeSource()
	roster := &fakeRoster{players: []player.Player{
		{PlayerID: 1, SummonerName: "PlayerA", Region: "na", RiotPUUID: "puuid-a", ChampionPool: []string{}},
		{PlayerID: 2, SummonerName: "PlayerB", Region: "na", RiotPUUID: "puuid-b", ChampionPool: []string{}},
		{PlayerID: 3, SummonerName: "PlayerC", Region: "na", RiotPUUID: "puuid-c", ChampionPool: []string{}},
	}}

	source.idsByPUUID["puuid-a"] = []string{"NA1_801"}
	source.idsByPUUID["puuid-b"] = []string{"NA1_801", "NA1_802"}
	source.matches["NA1_801"] = makeMatch("NA1_801",
		makeParticipant("puuid-a", "Ahri", true, 100),
		makeParticipant("puuid-b", "Jinx", true, 100))
	source.matches["NA1_802"] = makeMatch("NA1_802",
		makeParticipant("puuid-b", "Jinx", false, 100),
		makeParticipant("puuid-c", "Ornn", false, 100))

	tracker := practice.NewTracker(store, source, roster, 20, time.Time{})

	_, errScan := tracker.Scan(context.Background())
	require.NoError(t, errScan)

	all, allCount, errAll := tracker.Matches(context.Background(), 25, 0, 0)
	require.NoError(t, errAll)
	require.EqualValues(t, 2, allCount)
	require.Len(t, all, 2)

	mine, mineCount, errMine := tracker.Matches(context.Background(), 25, 0, 1)
	require.NoError(t, errMine)
	require.EqualValues(t, 1, mineCount)
	require.Len(t, mine, 1)
	require.Equal(t, "NA1_801", mine[0].MatchID)

	shared, sharedCount, errShared := tracker.Matches(context.Background(), 25, 0, 2)
	require.NoError(t, errShared)
	require.EqualValues(t, 2, sharedCount)
	require.Len(t, shared, 2)
}
