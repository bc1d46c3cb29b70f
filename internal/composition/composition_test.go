package composition_test

import (
	"context"
	"testing"

	"github.com/fivestack-gg/fivestack/internal/composition"
	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/stretchr/testify/require"
)

type fakeRoster struct {
	players []player.Player
}

func (f fakeRoster) Players(_ context.Context) ([]player.Player, error) {
	return f.players, nil
}

func TestSuggestionsOrderedByRole(t *testing.T) {
	t.Parallel()

	roster := fakeRoster{players: []player.Player{
		{PlayerID: 1, SummonerName: "SupportMain", TeamRole: "Support", ChampionPool: []string{"Thresh", "Lulu"}},
		{PlayerID: 2, SummonerName: "TopMain", TeamRole: "Top", ChampionPool: []string{"Ornn"}},
		{PlayerID: 3, SummonerName: "MidMain", TeamRole: "Mid", ChampionPool: []string{"Ahri"}},
		{PlayerID: 4, SummonerName: "Sub", TeamRole: "Fill"},
		{PlayerID: 5, SummonerName: "JungleMain", TeamRole: "Jungle", ChampionPool: []string{"LeeSin"}},
		{PlayerID: 6, SummonerName: "ADCMain", TeamRole: "ADC", ChampionPool: []string{"Jinx"}},
	}}

	compositions := composition.NewCompositions(composition.Repository{}, roster)

	suggestions, errSuggestions := compositions.Suggestions(context.Background())
	require.NoError(t, errSuggestions)
	require.Len(t, suggestions, 6)

	roles := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		roles = append(roles, suggestion.Role)
	}

	require.Equal(t, []string{"Top", "Jungle", "Mid", "ADC", "Support", "Fill"}, roles)

	require.Equal(t, []string{"Ornn"}, suggestions[0].ChampionPool)
	require.Equal(t, []string{"Thresh", "Lulu"}, suggestions[4].ChampionPool)

	// Players with no pool still show up with an empty, non-nil pool.
	require.NotNil(t, suggestions[5].ChampionPool)
	require.Empty(t, suggestions[5].ChampionPool)
}

func TestSaveRequiresName(t *testing.T) {
	t.Parallel()

	compositions := composition.NewCompositions(composition.Repository{}, fakeRoster{})

	errSave := compositions.Save(context.Background(), &composition.Composition{})
	require.ErrorIs(t, errSave, composition.ErrNameMissing)
}
