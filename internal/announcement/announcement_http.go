package announcement

import (
	"errors"
	"net/http"

	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/gin-gonic/gin"
)

type announcementHandler struct {
	announcements Announcements
}

func NewHandler(engine *gin.Engine, announcements Announcements, authenticator httphelper.Authenticator) {
	handler := announcementHandler{announcements: announcements}

	// Announcements are readable without a session so the login page can
	// show them.
	guestGrp := engine.Group("/")
	{
		guest := guestGrp.Use(authenticator.Middleware(permission.Guest))
		guest.GET("/api/announcements", handler.onAPIGetAnnouncements())
	}

	adminGrp := engine.Group("/")
	{
		admin := adminGrp.Use(authenticator.Middleware(permission.Admin))
		admin.POST("/api/announcements", handler.onAPICreateAnnouncement())
		admin.POST("/api/announcements/:announcement_id", handler.onAPIUpdateAnnouncement())
		admin.DELETE("/api/announcements/:announcement_id", handler.onAPIDeleteAnnouncement())
	}
}

func (h announcementHandler) onAPIGetAnnouncements() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		announcements, errAll := h.announcements.All(ctx)
		if errAll != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errAll, httphelper.ErrInternal)))

			return
		}

		if announcements == nil {
			announcements = []Announcement{}
		}

		ctx.JSON(http.StatusOK, announcements)
	}
}

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h announcementHandler) onAPICreateAnnouncement() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req announcementRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		entry := Announcement{
			AuthorID: auth.CurrentProfile(ctx).UserID,
			Title:    req.Title,
			Content:  req.Content,
		}

		if errSave := h.announcements.Save(ctx, &entry); errSave != nil {
			if errors.Is(errSave, ErrEmptyBody) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, ErrEmptyBody))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		entry.AuthorName = auth.CurrentProfile(ctx).Username

		ctx.JSON(http.StatusCreated, entry)
	}
}

func (h announcementHandler) onAPIUpdateAnnouncement() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		announcementID, idFound := httphelper.GetInt64Param(ctx, "announcement_id")
		if !idFound {
			return
		}

		var req announcementRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		entry, errEntry := h.announcements.ByID(ctx, announcementID)
		if errEntry != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound))

			return
		}

		if req.Title != "" {
			entry.Title = req.Title
		}

		if req.Content != "" {
			entry.Content = req.Content
		}

		if errSave := h.announcements.Save(ctx, &entry); errSave != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, entry)
	}
}

func (h announcementHandler) onAPIDeleteAnnouncement() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		announcementID, idFound := httphelper.GetInt64Param(ctx, "announcement_id")
		if !idFound {
			return
		}

		if errDelete := h.announcements.Delete(ctx, announcementID); errDelete != nil {
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
