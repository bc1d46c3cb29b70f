package composition

import (
	"errors"
	"net/http"

	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/gin-gonic/gin"
)

type compositionHandler struct {
	compositions Compositions
}

func NewHandler(engine *gin.Engine, compositions Compositions, authenticator httphelper.Authenticator) {
	handler := compositionHandler{compositions: compositions}

	authGrp := engine.Group("/")
	{
		authed := authGrp.Use(authenticator.Middleware(permission.Viewer))
		authed.GET("/api/compositions", handler.onAPIGetCompositions())
		authed.GET("/api/compositions/suggestions", handler.onAPIGetSuggestions())
		authed.POST("/api/compositions", handler.onAPICreateComposition())
		authed.POST("/api/compositions/:composition_id", handler.onAPIUpdateComposition())
		authed.DELETE("/api/compositions/:composition_id", handler.onAPIDeleteComposition())
	}
}

func (h compositionHandler) onAPIGetCompositions() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		compositions, errAll := h.compositions.All(ctx)
		if errAll != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errAll, httphelper.ErrInternal)))

			return
		}

		if compositions == nil {
			compositions = []Composition{}
		}

		ctx.JSON(http.StatusOK, compositions)
	}
}

func (h compositionHandler) onAPIGetSuggestions() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		suggestions, errSuggestions := h.compositions.Suggestions(ctx)
		if errSuggestions != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSuggestions, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, suggestions)
	}
}

type compositionRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TopChampion     string   `json:"top_champion"`
	JungleChampion  string   `json:"jungle_champion"`
	MidChampion     string   `json:"mid_champion"`
	ADCChampion     string   `json:"adc_champion"`
	SupportChampion string   `json:"support_champion"`
	Tags            []string `json:"tags"`
}

func (h compositionHandler) onAPICreateComposition() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req compositionRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		composition := Composition{
			UserID:          auth.CurrentProfile(ctx).UserID,
			Name:            req.Name,
			Description:     req.Description,
			TopChampion:     req.TopChampion,
			JungleChampion:  req.JungleChampion,
			MidChampion:     req.MidChampion,
			ADCChampion:     req.ADCChampion,
			SupportChampion: req.SupportChampion,
			Tags:            req.Tags,
		}

		if errSave := h.compositions.Save(ctx, &composition); errSave != nil {
			if errors.Is(errSave, ErrNameMissing) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, ErrNameMissing))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		composition.AuthorName = auth.CurrentProfile(ctx).Username

		ctx.JSON(http.StatusCreated, composition)
	}
}

func (h compositionHandler) onAPIUpdateComposition() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		compositionID, idFound := httphelper.GetInt64Param(ctx, "composition_id")
		if !idFound {
			return
		}

		var req compositionRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		composition, errComposition := h.compositions.ByID(ctx, compositionID)
		if errComposition != nil {
			if errors.Is(errComposition, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound,
					httphelper.ErrNotFound))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errComposition, httphelper.ErrInternal)))

			return
		}

		if req.Name != "" {
			composition.Name = req.Name
		}

		composition.Description = req.Description
		composition.TopChampion = req.TopChampion
		composition.JungleChampion = req.JungleChampion
		composition.MidChampion = req.MidChampion
		composition.ADCChampion = req.ADCChampion
		composition.SupportChampion = req.SupportChampion

		if req.Tags != nil {
			composition.Tags = req.Tags
		}

		if errSave := h.compositions.Save(ctx, &composition); errSave != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, composition)
	}
}

func (h compositionHandler) onAPIDeleteComposition() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		compositionID, idFound := httphelper.GetInt64Param(ctx, "composition_id")
		if !idFound {
			return
		}

		if errDelete := h.compositions.Delete(ctx, compositionID); errDelete != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errDelete, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{})
	}
}
