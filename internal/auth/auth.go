package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivestack-gg/fivestack/internal/auth/permission"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/pkg/log"
	"github.com/fivestack-gg/fivestack/pkg/stringutil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthTokenDuration     = time.Hour * 24 * 7
	FingerprintCookieName = "fingerprint"

	ctxKeyUserProfile = "user_profile"
)

var (
	ErrCookieKeyMissing  = errors.New("cookie key is not set")
	ErrCreateToken       = errors.New("failed to create new access token")
	ErrSaveToken         = errors.New("failed to save access token")
	ErrAuthHeader        = errors.New("failed to parse auth header")
	ErrMalformedAuthHdr  = errors.New("invalid auth header format")
	ErrSigningMethod     = errors.New("invalid signing method")
	ErrTokenParse        = errors.New("failed to parse auth token")
	ErrTokenInvalid      = errors.New("auth token invalid")
	ErrTokenExpired      = errors.New("auth token expired")
	ErrTokenFingerprint  = errors.New("token fingerprint mismatch")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrDuplicateUser     = errors.New("username or email already taken")
)

type User struct {
	UserID          int64                `json:"user_id"`
	Username        string               `json:"username"`
	Email           string               `json:"email"`
	PasswordHash    string               `json:"-"`
	PermissionLevel permission.Privilege `json:"permission_level"`
	CreatedOn       time.Time            `json:"created_on"`
	UpdatedOn       time.Time            `json:"updated_on"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		UserID:          u.UserID,
		Username:        u.Username,
		Email:           u.Email,
		PermissionLevel: u.PermissionLevel,
	}
}

type UserProfile struct {
	UserID          int64                `json:"user_id"`
	Username        string               `json:"username"`
	Email           string               `json:"email"`
	PermissionLevel permission.Privilege `json:"permission_level"`
}

func (p UserProfile) LoggedIn() bool {
	return p.UserID > 0
}

type UserTokens struct {
	Access      string `json:"access"`
	Fingerprint string `json:"fingerprint"`
}

type UserAuthClaims struct {
	// user context to prevent side-jacking
	// https://cheatsheetseries.owasp.org/cheatsheets/JSON_Web_Token_for_Java_Cheat_Sheet.html#token-sidejacking
	Fingerprint string `json:"fingerprint"`
	jwt.RegisteredClaims
}

type UserAuth struct {
	UserAuthID  int64     `json:"user_auth_id"`
	UserID      int64     `json:"user_id"`
	AccessToken string    `json:"access_token"`
	Fingerprint string    `json:"fingerprint"`
	CreatedOn   time.Time `json:"created_on"`
}

type Authentication struct {
	repo      Repository
	cookieKey string
}

func NewAuthentication(repo Repository, cookieKey string) *Authentication {
	return &Authentication{repo: repo, cookieKey: cookieKey}
}

// MakeToken generates a new jwt access token along with a random fingerprint
// that must be presented back as a cookie.
func (a *Authentication) MakeToken(ctx *gin.Context, user User) (UserTokens, error) {
	if a.cookieKey == "" {
		return UserTokens{}, ErrCookieKeyMissing
	}

	fingerprint := stringutil.SecureRandomString(40)

	accessToken, errAccess := a.NewUserToken(user.UserID, fingerprint, AuthTokenDuration)
	if errAccess != nil {
		return UserTokens{}, errors.Join(errAccess, ErrCreateToken)
	}

	userAuth := UserAuth{
		UserID:      user.UserID,
		AccessToken: accessToken,
		Fingerprint: fingerprint,
		CreatedOn:   time.Now(),
	}

	if saveErr := a.repo.SaveUserAuth(ctx, &userAuth); saveErr != nil {
		return UserTokens{}, errors.Join(saveErr, ErrSaveToken)
	}

	return UserTokens{Access: accessToken, Fingerprint: fingerprint}, nil
}

func (a *Authentication) NewUserToken(userID int64, fingerprint string, validDuration time.Duration) (string, error) {
	now := time.Now()
	claims := UserAuthClaims{
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, errSign := token.SignedString([]byte(a.cookieKey))
	if errSign != nil {
		return "", errors.Join(errSign, ErrCreateToken)
	}

	return signed, nil
}

// UserIDFromToken validates the access token signature, expiry and fingerprint
// binding, returning the embedded user id.
func (a *Authentication) UserIDFromToken(token string, fingerprint string) (int64, error) {
	claims := &UserAuthClaims{}

	parsed, errParse := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrSigningMethod, t.Header["alg"])
		}

		return []byte(a.cookieKey), nil
	})
	if errParse != nil {
		if errors.Is(errParse, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}

		return 0, errors.Join(errParse, ErrTokenParse)
	}

	if !parsed.Valid {
		return 0, ErrTokenInvalid
	}

	if fingerprint != claims.Fingerprint {
		return 0, ErrTokenFingerprint
	}

	userID, errID := strconv.ParseInt(claims.Subject, 10, 64)
	if errID != nil || userID <= 0 {
		return 0, ErrTokenInvalid
	}

	return userID, nil
}

func TokenFromHeader(ctx *gin.Context, emptyOK bool) (string, error) {
	hdr := ctx.GetHeader("Authorization")
	if hdr == "" {
		if emptyOK {
			return "", nil
		}

		return "", ErrAuthHeader
	}

	pieces := strings.SplitN(hdr, " ", 2)
	if len(pieces) != 2 || !strings.EqualFold(pieces[0], "Bearer") {
		return "", ErrMalformedAuthHdr
	}

	return pieces[1], nil
}

// Middleware authenticates the request and enforces the required privilege
// level. Guest level routes still resolve the profile when a token is present so
// handlers can apply their own rules.
func (a *Authentication) Middleware(level permission.Privilege) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, errToken := TokenFromHeader(ctx, level == permission.Guest)
		if errToken != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)

			return
		}

		if token == "" {
			ctx.Set(ctxKeyUserProfile, UserProfile{PermissionLevel: permission.Guest, Username: "Guest"})
			ctx.Next()

			return
		}

		fingerprint, errFingerprint := ctx.Cookie(FingerprintCookieName)
		if errFingerprint != nil {
			slog.Warn("Failed to load fingerprint cookie", log.ErrAttr(errFingerprint))
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		userID, errUserID := a.UserIDFromToken(token, fingerprint)
		if errUserID != nil {
			if errors.Is(errUserID, ErrTokenExpired) {
				ctx.AbortWithStatus(http.StatusUnauthorized)

				return
			}

			slog.Error("Failed to load user id from access token", log.ErrAttr(errUserID))
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		user, errUser := a.repo.GetUserByID(ctx, userID)
		if errUser != nil {
			if errors.Is(errUser, database.ErrNoResult) {
				ctx.AbortWithStatus(http.StatusForbidden)

				return
			}

			slog.Error("Failed to load user during auth", log.ErrAttr(errUser))
			ctx.AbortWithStatus(http.StatusInternalServerError)

			return
		}

		if user.PermissionLevel < level {
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		ctx.Set(ctxKeyUserProfile, user.Profile())
		ctx.Next()
	}
}

// CurrentProfile returns the profile attached by Middleware, or a guest profile.
func CurrentProfile(ctx *gin.Context) UserProfile {
	value, found := ctx.Get(ctxKeyUserProfile)
	if !found {
		return UserProfile{PermissionLevel: permission.Guest, Username: "Guest"}
	}

	profile, ok := value.(UserProfile)
	if !ok {
		return UserProfile{PermissionLevel: permission.Guest, Username: "Guest"}
	}

	return profile
}
