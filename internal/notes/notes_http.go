package notes

import (
	"errors"
	"net/http"

	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/gin-gonic/gin"
)

type notesHandler struct {
	notes Notes
}

func NewHandler(engine *gin.Engine, notes Notes, authenticator httphelper.Authenticator) {
	handler := notesHandler{notes: notes}

	authGrp := engine.Group("/")
	{
		authed := authGrp.Use(authenticator.Middleware(permission.Viewer))
		authed.GET("/api/notes", handler.onAPIGetNotes())
		authed.POST("/api/notes", handler.onAPISaveNote())
		authed.POST("/api/notes/:note_id", handler.onAPIUpdateNote())
		authed.DELETE("/api/notes/:note_id", handler.onAPIDeleteNote())
		authed.GET("/api/notes/champion", handler.onAPIGetChampionNotes())
		authed.POST("/api/notes/champion", handler.onAPISaveChampionNote())
	}
}

func (h notesHandler) onAPIGetNotes() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		profile := auth.CurrentProfile(ctx)

		userNotes, errNotes := h.notes.NotesByUser(ctx, profile.UserID)
		if errNotes != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errNotes, httphelper.ErrInternal)))

			return
		}

		if userNotes == nil {
			userNotes = []Note{}
		}

		ctx.JSON(http.StatusOK, userNotes)
	}
}

type noteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (h notesHandler) onAPISaveNote() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req noteRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		note := Note{
			UserID:   auth.CurrentProfile(ctx).UserID,
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
		}

		if errSave := h.notes.Save(ctx, &note); errSave != nil {
			if errors.Is(errSave, ErrTitleMissing) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, ErrTitleMissing))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusCreated, note)
	}
}

func (h notesHandler) onAPIUpdateNote() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		noteID, idFound := httphelper.GetInt64Param(ctx, "note_id")
		if !idFound {
			return
		}

		var req noteRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		profile := auth.CurrentProfile(ctx)

		note, errNote := h.notes.NoteByID(ctx, profile.UserID, noteID)
		if errNote != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound))

			return
		}

		if req.Title != "" {
			note.Title = req.Title
		}

		note.Content = req.Content

		if req.Category != "" {
			note.Category = req.Category
		}

		if errSave := h.notes.Save(ctx, &note); errSave != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, note)
	}
}

func (h notesHandler) onAPIDeleteNote() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		noteID, idFound := httphelper.GetInt64Param(ctx, "note_id")
		if !idFound {
			return
		}

		profile := auth.CurrentProfile(ctx)

		if errDelete := h.notes.Delete(ctx, profile.UserID, noteID); errDelete != nil {
			if errors.Is(errDelete, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound,
					httphelper.ErrNotFound))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errDelete, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{})
	}
}

func (h notesHandler) onAPIGetChampionNotes() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		profile := auth.CurrentProfile(ctx)

		championNotes, errNotes := h.notes.ChampionNotes(ctx, profile.UserID)
		if errNotes != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errNotes, httphelper.ErrInternal)))

			return
		}

		if championNotes == nil {
			championNotes = []ChampionNote{}
		}

		ctx.JSON(http.StatusOK, championNotes)
	}
}

type championNoteRequest struct {
	Champion string `json:"champion"`
	Notes    string `json:"notes"`
}

func (h notesHandler) onAPISaveChampionNote() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req championNoteRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		note := ChampionNote{
			UserID:   auth.CurrentProfile(ctx).UserID,
			Champion: req.Champion,
			Notes:    req.Notes,
		}

		if errSave := h.notes.SaveChampionNote(ctx, note); errSave != nil {
			if errors.Is(errSave, ErrChampionMissing) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, ErrChampionMissing))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{})
	}
}
