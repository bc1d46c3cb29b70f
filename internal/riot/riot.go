// Package riot implements a minimal, rate limited client for the parts of the
// Riot Games API the app consumes: account-v1, summoner-v4, league-v4 and
// match-v5. The client performs no retries, callers decide how to handle the
// classified errors.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/ratelimit"
)

var (
	// ErrNoAPIKey is returned when a request is attempted without a configured key.
	ErrNoAPIKey = errors.New("riot api key not configured")
	// ErrNotFound maps a 404 response, e.g. an unknown riot id or match id.
	ErrNotFound = errors.New("entity not found on riot api")
	// ErrUnauthorized maps 401/403, an invalid or expired api key.
	ErrUnauthorized = errors.New("riot api key rejected")
	// ErrRateLimited maps 429.
	ErrRateLimited = errors.New("riot api rate limit exceeded")
	ErrRequest     = errors.New("failed to perform riot api request")
	ErrResponse    = errors.New("invalid response code returned from riot api")
	ErrDecode      = errors.New("failed to decode riot api response")
)

type Client struct {
	apiKey  string
	client  *http.Client
	limiter ratelimit.Limiter
}

// NewClient returns a client which allows at most ratePerSec requests per second
// across all callers. The limiter blocks instead of erroring, so a scan naturally
// paces itself under the provider budget.
func NewClient(apiKey string, ratePerSec int, httpClient *http.Client) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Second * 10}
	}

	return &Client{
		apiKey:  apiKey,
		client:  httpClient,
		limiter: ratelimit.New(ratePerSec),
	}
}

func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// Routing maps a region to the continental routing value used by account-v1 and match-v5.
func Routing(region string) string {
	switch region {
	case "na", "br", "lan", "las":
		return "americas"
	case "euw", "eune", "tr", "ru":
		return "europe"
	case "kr", "jp":
		return "asia"
	case "oce":
		return "sea"
	default:
		return "americas"
	}
}

// Platform maps a region to the platform host used by summoner-v4 and league-v4.
func Platform(region string) string {
	switch region {
	case "na":
		return "na1"
	case "br":
		return "br1"
	case "lan":
		return "la1"
	case "las":
		return "la2"
	case "euw":
		return "euw1"
	case "eune":
		return "eun1"
	case "tr":
		return "tr1"
	case "ru":
		return "ru"
	case "kr":
		return "kr"
	case "jp":
		return "jp1"
	case "oce":
		return "oc1"
	default:
		return "na1"
	}
}

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID            string `json:"id"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID string `json:"matchId"`
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"` // unix millis
	GameDuration int64              `json:"gameDuration"` // seconds
	GameMode     string             `json:"gameMode"`
	Participants []MatchParticipant `json:"participants"`
}

type MatchParticipant struct {
	PUUID                       string `json:"puuid"`
	RiotIDGameName              string `json:"riotIdGameName"`
	SummonerName                string `json:"summonerName"`
	ChampionName                string `json:"championName"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	TotalDamageDealtToChampions int64  `json:"totalDamageDealtToChampions"`
	TotalDamageTaken            int64  `json:"totalDamageTaken"`
	Win                         bool   `json:"win"`
	TeamID                      int    `json:"teamId"`
}

// CS is the creep score, lane minions plus jungle camps.
func (p MatchParticipant) CS() int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}

// Name prefers the riot id game name over the legacy summoner name.
func (p MatchParticipant) Name() string {
	if p.RiotIDGameName != "" {
		return p.RiotIDGameName
	}

	return p.SummonerName
}

// Account resolves a riot id (gameName#tagLine) to an account.
func (c *Client) Account(ctx context.Context, region string, gameName string, tagLine string) (Account, error) {
	var account Account

	reqURL := fmt.Sprintf("https://%s.api.riotgames.com/riot/account/v1/accounts/by-riot-id/%s/%s",
		Routing(region), url.PathEscape(gameName), url.PathEscape(tagLine))

	if err := c.get(ctx, reqURL, &account); err != nil {
		return Account{}, err
	}

	return account, nil
}

func (c *Client) Summoner(ctx context.Context, region string, puuid string) (Summoner, error) {
	var summoner Summoner

	reqURL := fmt.Sprintf("https://%s.api.riotgames.com/lol/summoner/v4/summoners/by-puuid/%s",
		Platform(region), url.PathEscape(puuid))

	if err := c.get(ctx, reqURL, &summoner); err != nil {
		return Summoner{}, err
	}

	return summoner, nil
}

func (c *Client) LeagueEntries(ctx context.Context, region string, summonerID string) ([]LeagueEntry, error) {
	var entries []LeagueEntry

	reqURL := fmt.Sprintf("https://%s.api.riotgames.com/lol/league/v4/entries/by-summoner/%s",
		Platform(region), url.PathEscape(summonerID))

	if err := c.get(ctx, reqURL, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// MatchIDs lists the most recent match ids for a puuid, newest first. A zero
// since time omits the lower bound.
func (c *Client) MatchIDs(ctx context.Context, region string, puuid string, count int, since time.Time) ([]string, error) {
	var matchIDs []string

	reqURL := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/by-puuid/%s/ids?count=%d",
		Routing(region), url.PathEscape(puuid), count)
	if !since.IsZero() {
		reqURL += "&startTime=" + strconv.FormatInt(since.Unix(), 10)
	}

	if err := c.get(ctx, reqURL, &matchIDs); err != nil {
		return nil, err
	}

	return matchIDs, nil
}

func (c *Client) Match(ctx context.Context, region string, matchID string) (Match, error) {
	var match Match

	reqURL := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/%s",
		Routing(region), url.PathEscape(matchID))

	if err := c.get(ctx, reqURL, &match); err != nil {
		return Match{}, err
	}

	return match, nil
}

func (c *Client) get(ctx context.Context, reqURL string, target any) error {
	if !c.HasKey() {
		return ErrNoAPIKey
	}

	c.limiter.Take()

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if errReq != nil {
		return errors.Join(errReq, ErrRequest)
	}

	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, errResp := c.client.Do(req)
	if errResp != nil {
		return errors.Join(errResp, ErrRequest)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: %d", ErrResponse, resp.StatusCode)
	}

	if errDecode := json.NewDecoder(resp.Body).Decode(target); errDecode != nil {
		return errors.Join(errDecode, ErrDecode)
	}

	return nil
}
