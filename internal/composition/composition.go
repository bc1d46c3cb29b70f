// Package composition manages saved team compositions and draft suggestions
// derived from the roster's champion pools.
package composition

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/fivestack-gg/fivestack/pkg/fp"
)

var ErrNameMissing = errors.New("composition name cannot be empty")

type Composition struct {
	CompositionID   int64     `json:"composition_id"`
	UserID          int64     `json:"user_id"`
	AuthorName      string    `json:"author_name"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	TopChampion     string    `json:"top_champion"`
	JungleChampion  string    `json:"jungle_champion"`
	MidChampion     string    `json:"mid_champion"`
	ADCChampion     string    `json:"adc_champion"`
	SupportChampion string    `json:"support_champion"`
	Tags            []string  `json:"tags"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
}

// Suggestion is one roster slot with the champions its player can field.
type Suggestion struct {
	Role         string   `json:"role"`
	SummonerName string   `json:"summoner_name"`
	ChampionPool []string `json:"champion_pool"`
}

// Roster is the slice of the player service the suggestion builder reads.
type Roster interface {
	Players(ctx context.Context) ([]player.Player, error)
}

type Compositions struct {
	repo    Repository
	players Roster
}

func NewCompositions(repo Repository, players Roster) Compositions {
	return Compositions{repo: repo, players: players}
}

func (u Compositions) All(ctx context.Context) ([]Composition, error) {
	return u.repo.All(ctx)
}

func (u Compositions) ByID(ctx context.Context, compositionID int64) (Composition, error) {
	return u.repo.ByID(ctx, compositionID)
}

func (u Compositions) Save(ctx context.Context, composition *Composition) error {
	if composition.Name == "" {
		return ErrNameMissing
	}

	composition.Tags = fp.Uniq(composition.Tags)

	return u.repo.Save(ctx, composition)
}

func (u Compositions) Delete(ctx context.Context, compositionID int64) error {
	return u.repo.Delete(ctx, compositionID)
}

var roleOrder = map[string]int{
	"Top":     1,
	"Jungle":  2,
	"Mid":     3,
	"ADC":     4,
	"Support": 5,
}

// Suggestions lists the roster in standard draft order with each player's
// current champion pool, the raw material for building a composition.
func (u Compositions) Suggestions(ctx context.Context) ([]Suggestion, error) {
	roster, errRoster := u.players.Players(ctx)
	if errRoster != nil {
		return nil, errRoster
	}

	sort.SliceStable(roster, func(i, j int) bool {
		return roleRank(roster[i].TeamRole) < roleRank(roster[j].TeamRole)
	})

	suggestions := make([]Suggestion, 0, len(roster))

	for _, rosterPlayer := range roster {
		pool := rosterPlayer.ChampionPool
		if pool == nil {
			pool = []string{}
		}

		suggestions = append(suggestions, Suggestion{
			Role:         rosterPlayer.TeamRole,
			SummonerName: rosterPlayer.SummonerName,
			ChampionPool: pool,
		})
	}

	return suggestions, nil
}

func roleRank(role string) int {
	if rank, found := roleOrder[role]; found {
		return rank
	}

	return len(roleOrder) + 1
}
