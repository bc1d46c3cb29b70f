package player

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/fivestack-gg/fivestack/pkg/log"
	"github.com/gin-gonic/gin"
)

type playerHandler struct {
	players Players
}

func NewHandler(engine *gin.Engine, players Players, auth httphelper.Authenticator) {
	handler := playerHandler{players: players}

	viewerGrp := engine.Group("/")
	{
		viewer := viewerGrp.Use(auth.Middleware(permission.Viewer))
		viewer.GET("/api/players", handler.onAPIGetPlayers())
		viewer.GET("/api/players/:player_id", handler.onAPIGetPlayer())
		viewer.GET("/api/riot/lookup", handler.onAPILookup())
	}

	adminGrp := engine.Group("/")
	{
		admin := adminGrp.Use(auth.Middleware(permission.Admin))
		admin.POST("/api/players", handler.onAPICreatePlayer())
		admin.POST("/api/players/:player_id", handler.onAPIUpdatePlayer())
		admin.DELETE("/api/players/:player_id", handler.onAPIDeletePlayer())
		admin.PUT("/api/players/:player_id/pool", handler.onAPISetPool())
		admin.POST("/api/players/:player_id/link", handler.onAPILinkPlayer())
	}
}

func (h playerHandler) onAPIGetPlayers() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		players, errPlayers := h.players.Players(ctx)
		if errPlayers != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errPlayers, httphelper.ErrInternal)))

			return
		}

		if players == nil {
			players = []Player{}
		}

		ctx.JSON(http.StatusOK, players)
	}
}

func (h playerHandler) onAPIGetPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		player, errPlayer := h.players.PlayerByID(ctx, playerID)
		if errPlayer != nil {
			if errors.Is(errPlayer, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound,
					httphelper.ErrNotFound))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errPlayer, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, player)
	}
}

type playerRequest struct {
	SummonerName string   `json:"summoner_name"`
	TeamRole     string   `json:"team_role"`
	Region       string   `json:"region"`
	ChampionPool []string `json:"champion_pool"`
	UserID       *int64   `json:"user_id"`
}

func (h playerHandler) onAPICreatePlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req playerRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		player := Player{
			UserID:       req.UserID,
			SummonerName: req.SummonerName,
			TeamRole:     req.TeamRole,
			Region:       req.Region,
			ChampionPool: req.ChampionPool,
		}

		if errSave := h.players.Save(ctx, &player); errSave != nil {
			if errors.Is(errSave, ErrNameMissing) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, ErrNameMissing))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusCreated, player)
	}
}

func (h playerHandler) onAPIUpdatePlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		var req playerRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		player, errPlayer := h.players.PlayerByID(ctx, playerID)
		if errPlayer != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound))

			return
		}

		player.SummonerName = req.SummonerName
		player.TeamRole = req.TeamRole
		player.UserID = req.UserID

		if req.Region != "" {
			player.Region = req.Region
		}

		if req.ChampionPool != nil {
			player.ChampionPool = req.ChampionPool
		}

		if errSave := h.players.Save(ctx, &player); errSave != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, player)
	}
}

func (h playerHandler) onAPIDeletePlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		if errDelete := h.players.Delete(ctx, playerID); errDelete != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errDelete, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{})
	}
}

type poolRequest struct {
	ChampionPool []string `json:"champion_pool"`
}

func (h playerHandler) onAPISetPool() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		var req poolRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		if errSet := h.players.SetChampionPool(ctx, playerID, req.ChampionPool); errSet != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSet, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{"champion_pool": req.ChampionPool})
	}
}

type linkRequest struct {
	GameName string `json:"game_name"`
	TagLine  string `json:"tag_line"`
}

func (h playerHandler) onAPILinkPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		var req linkRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		player, errLink := h.players.Link(ctx, playerID, req.GameName, req.TagLine)
		if errLink != nil {
			httphelper.SetError(ctx, riotAPIError(errLink))

			return
		}

		ctx.JSON(http.StatusOK, player)
	}
}

type lookupQuery struct {
	Region   string `schema:"region"`
	GameName string `schema:"game_name"`
	TagLine  string `schema:"tag_line"`
}

func (h playerHandler) onAPILookup() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var query lookupQuery
		if !httphelper.BindQuery(ctx, &query) {
			return
		}

		if query.GameName == "" || query.TagLine == "" {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest,
				httphelper.ErrBadRequest))

			return
		}

		if query.Region == "" {
			query.Region = "na"
		}

		summary, errLookup := h.players.Lookup(ctx, query.Region, query.GameName, query.TagLine)
		if errLookup != nil {
			slog.Warn("Riot lookup failed", log.ErrAttr(errLookup))
			httphelper.SetError(ctx, riotAPIError(errLookup))

			return
		}

		ctx.JSON(http.StatusOK, summary)
	}
}

func riotAPIError(err error) httphelper.APIError {
	switch {
	case errors.Is(err, riot.ErrNotFound):
		return httphelper.NewAPIError(http.StatusNotFound, err)
	case errors.Is(err, riot.ErrUnauthorized), errors.Is(err, riot.ErrNoAPIKey):
		return httphelper.NewAPIError(http.StatusBadGateway, err)
	case errors.Is(err, riot.ErrRateLimited):
		return httphelper.NewAPIError(http.StatusTooManyRequests, err)
	case errors.Is(err, database.ErrNoResult):
		return httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound)
	default:
		return httphelper.NewAPIError(http.StatusInternalServerError,
			errors.Join(err, httphelper.ErrInternal))
	}
}
