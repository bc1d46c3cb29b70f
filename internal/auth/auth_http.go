package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/internal/httphelper"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type authHandler struct {
	auth *Authentication
	repo Repository
}

func NewHandler(engine *gin.Engine, authentication *Authentication, repo Repository) {
	handler := authHandler{auth: authentication, repo: repo}

	engine.POST("/api/auth/register", handler.onAPIPostRegister())
	engine.POST("/api/auth/login", handler.onAPIPostLogin())

	authedGrp := engine.Group("/")
	{
		authed := authedGrp.Use(authentication.Middleware(permission.Viewer))
		authed.GET("/api/auth/logout", handler.onAPIGetLogout())
		authed.GET("/api/auth/profile", handler.onAPIGetProfile())
	}
}

type loginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

func (h authHandler) onAPIPostRegister() gin.HandlerFunc {
	type registerRequest struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	return func(ctx *gin.Context) {
		var req registerRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		if len(req.Password) < minPasswordLength {
			httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, httphelper.ErrTooShort,
				"Password must be at least %d characters", minPasswordLength))

			return
		}

		hash, errHash := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if errHash != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errHash, httphelper.ErrInternal)))

			return
		}

		// The first registered user becomes the admin.
		level := permission.Player

		count, errCount := h.repo.UserCount(ctx)
		if errCount != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errCount, httphelper.ErrInternal)))

			return
		}

		if count == 0 {
			level = permission.Admin
		}

		user := User{
			Username:        req.Username,
			Email:           req.Email,
			PasswordHash:    string(hash),
			PermissionLevel: level,
			CreatedOn:       time.Now(),
			UpdatedOn:       time.Now(),
		}

		if errSave := h.repo.SaveUser(ctx, &user); errSave != nil {
			if errors.Is(errSave, database.ErrDuplicate) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusConflict, ErrDuplicateUser))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		tokens, errTokens := h.auth.MakeToken(ctx, user)
		if errTokens != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errTokens, httphelper.ErrInternal)))

			return
		}

		setFingerprintCookie(ctx, tokens.Fingerprint)
		ctx.JSON(http.StatusCreated, loginResponse{Token: tokens.Access, User: user.Profile()})
	}
}

func (h authHandler) onAPIPostLogin() gin.HandlerFunc {
	type loginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	return func(ctx *gin.Context) {
		var req loginRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		user, errUser := h.repo.GetUserByUsername(ctx, req.Username)
		if errUser != nil {
			if errors.Is(errUser, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusUnauthorized, ErrInvalidCredential))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errUser, httphelper.ErrInternal)))

			return
		}

		if errCompare := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); errCompare != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusUnauthorized, ErrInvalidCredential))

			return
		}

		tokens, errTokens := h.auth.MakeToken(ctx, user)
		if errTokens != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errTokens, httphelper.ErrInternal)))

			return
		}

		setFingerprintCookie(ctx, tokens.Fingerprint)
		ctx.JSON(http.StatusOK, loginResponse{Token: tokens.Access, User: user.Profile()})
	}
}

func (h authHandler) onAPIGetLogout() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fingerprint, errCookie := ctx.Cookie(FingerprintCookieName)
		if errCookie == nil && fingerprint != "" {
			if errDelete := h.repo.DeleteUserAuthByFingerprint(ctx, fingerprint); errDelete != nil {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errDelete, httphelper.ErrInternal)))

				return
			}
		}

		ctx.SetCookie(FingerprintCookieName, "", -1, "/", "", false, true)
		ctx.JSON(http.StatusOK, gin.H{})
	}
}

func (h authHandler) onAPIGetProfile() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, CurrentProfile(ctx))
	}
}

func setFingerprintCookie(ctx *gin.Context, fingerprint string) {
	ctx.SetCookie(FingerprintCookieName, fingerprint, int(AuthTokenDuration.Seconds()), "/", "", false, true)
}
