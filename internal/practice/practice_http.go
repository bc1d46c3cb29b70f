package practice

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/fivestack-gg/fivestack/internal/player"
	"github.com/fivestack-gg/fivestack/internal/riot"
	"github.com/fivestack-gg/fivestack/pkg/log"
	"github.com/gin-gonic/gin"
)

// CronSecretHeader lets a scheduler trigger scans without a user session.
const CronSecretHeader = "X-Cron-Secret"

type practiceHandler struct {
	tracker    *Tracker
	players    player.Players
	cronSecret string
}

func NewHandler(engine *gin.Engine, tracker *Tracker, players player.Players, cronSecret string, authenticator httphelper.Authenticator) {
	handler := practiceHandler{
		tracker:    tracker,
		players:    players,
		cronSecret: cronSecret,
	}

	viewerGrp := engine.Group("/")
	{
		viewer := viewerGrp.Use(authenticator.Middleware(permission.Viewer))
		viewer.GET("/api/practice/matches", handler.onAPIGetMatches())
		viewer.GET("/api/practice/stats", handler.onAPIGetStats())
		viewer.GET("/api/practice/stats/:player_id", handler.onAPIGetPlayerStats())
		viewer.GET("/api/practice/overview", handler.onAPIGetOverview())
	}

	adminGrp := engine.Group("/")
	{
		admin := adminGrp.Use(authenticator.Middleware(permission.Admin))
		admin.GET("/api/practice/settings", handler.onAPIGetSettings())
		admin.PUT("/api/practice/settings", handler.onAPISaveSettings())
	}

	// The scan route authorizes itself: either an admin session or the
	// shared secret a scheduler sends.
	scanGrp := engine.Group("/")
	{
		scan := scanGrp.Use(authenticator.Middleware(permission.Guest))
		scan.POST("/api/practice/scan", handler.onAPIScan())
	}
}

func (h practiceHandler) scanAllowed(ctx *gin.Context) bool {
	if h.cronSecret != "" {
		secret := ctx.GetHeader(CronSecretHeader)
		if secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) == 1 {
			return true
		}
	}

	return auth.CurrentProfile(ctx).PermissionLevel >= permission.Admin
}

func (h practiceHandler) onAPIScan() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !h.scanAllowed(ctx) {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusForbidden,
				httphelper.ErrPermissionDenied))

			return
		}

		report, errScan := h.tracker.Scan(ctx)
		if errScan != nil {
			switch {
			case errors.Is(errScan, riot.ErrNoAPIKey):
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errScan))
			case errors.Is(errScan, ErrScanInProgress):
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusConflict, errScan))
			case errors.Is(errScan, ErrRosterTooSmall):
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errScan))
			case errors.Is(errScan, riot.ErrUnauthorized):
				slog.Error("Scan aborted, riot rejected the api key",
					slog.Int("scanned", report.MatchesScanned), log.ErrAttr(errScan))
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadGateway, errScan))
			default:
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
					errors.Join(errScan, httphelper.ErrInternal)))
			}

			return
		}

		ctx.JSON(http.StatusOK, report)
	}
}

type matchesQuery struct {
	Limit    uint64 `schema:"limit"`
	Offset   uint64 `schema:"offset"`
	PlayerID int64  `schema:"player_id"`
}

func (h practiceHandler) onAPIGetMatches() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var query matchesQuery
		if !httphelper.BindQuery(ctx, &query) {
			return
		}

		matches, count, errMatches := h.tracker.Matches(ctx, query.Limit, query.Offset, query.PlayerID)
		if errMatches != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errMatches, httphelper.ErrInternal)))

			return
		}

		if matches == nil {
			matches = []Match{}
		}

		ctx.JSON(http.StatusOK, gin.H{"matches": matches, "count": count})
	}
}

func (h practiceHandler) onAPIGetStats() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		stats, errStats := h.tracker.AllStats(ctx)
		if errStats != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errStats, httphelper.ErrInternal)))

			return
		}

		if stats == nil {
			stats = []ChampionStats{}
		}

		ctx.JSON(http.StatusOK, stats)
	}
}

func (h practiceHandler) onAPIGetPlayerStats() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetInt64Param(ctx, "player_id")
		if !idFound {
			return
		}

		stats, errStats := h.tracker.PlayerStats(ctx, playerID)
		if errStats != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errStats, httphelper.ErrInternal)))

			return
		}

		if stats == nil {
			stats = []ChampionStats{}
		}

		ctx.JSON(http.StatusOK, stats)
	}
}

func (h practiceHandler) onAPIGetOverview() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		roster, errRoster := h.players.Players(ctx)
		if errRoster != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errRoster, httphelper.ErrInternal)))

			return
		}

		names := make(map[int64]string, len(roster))
		for _, rosterPlayer := range roster {
			names[rosterPlayer.PlayerID] = rosterPlayer.SummonerName
		}

		overview, errOverview := h.tracker.Overview(ctx, names)
		if errOverview != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errOverview, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, overview)
	}
}

func (h practiceHandler) onAPIGetSettings() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		settings, errSettings := h.tracker.Settings(ctx)
		if errSettings != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSettings, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, settings)
	}
}

type settingsRequest struct {
	AutoPoolThreshold int `json:"auto_pool_threshold"`
}

func (h practiceHandler) onAPISaveSettings() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req settingsRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		settings, errSave := h.tracker.SaveSettings(ctx, Settings{AutoPoolThreshold: req.AutoPoolThreshold})
		if errSave != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, settings)
	}
}
