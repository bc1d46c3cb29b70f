package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	t.Parallel()

	authentication := auth.NewAuthentication(auth.Repository{}, "test-cookie-key")

	token, errToken := authentication.NewUserToken(42, "finger", time.Hour)
	require.NoError(t, errToken)
	require.NotEmpty(t, token)

	userID, errParse := authentication.UserIDFromToken(token, "finger")
	require.NoError(t, errParse)
	require.EqualValues(t, 42, userID)
}

func TestUserTokenFingerprintMismatch(t *testing.T) {
	t.Parallel()

	authentication := auth.NewAuthentication(auth.Repository{}, "test-cookie-key")

	token, errToken := authentication.NewUserToken(42, "finger", time.Hour)
	require.NoError(t, errToken)

	_, errParse := authentication.UserIDFromToken(token, "other")
	require.ErrorIs(t, errParse, auth.ErrTokenFingerprint)
}

func TestUserTokenExpired(t *testing.T) {
	t.Parallel()

	authentication := auth.NewAuthentication(auth.Repository{}, "test-cookie-key")

	token, errToken := authentication.NewUserToken(42, "finger", -time.Minute)
	require.NoError(t, errToken)

	_, errParse := authentication.UserIDFromToken(token, "finger")
	require.ErrorIs(t, errParse, auth.ErrTokenExpired)
}

func TestUserTokenWrongKey(t *testing.T) {
	t.Parallel()

	issuer := auth.NewAuthentication(auth.Repository{}, "key-one")
	verifier := auth.NewAuthentication(auth.Repository{}, "key-two")

	token, errToken := issuer.NewUserToken(42, "finger", time.Hour)
	require.NoError(t, errToken)

	_, errParse := verifier.UserIDFromToken(token, "finger")
	require.ErrorIs(t, errParse, auth.ErrTokenParse)
}

func TestTokenFromHeader(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)

	makeCtx := func(header string) *gin.Context {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest("GET", "/", nil)

		if header != "" {
			ctx.Request.Header.Set("Authorization", header)
		}

		return ctx
	}

	token, errOK := auth.TokenFromHeader(makeCtx("Bearer abc.def.ghi"), false)
	require.NoError(t, errOK)
	require.Equal(t, "abc.def.ghi", token)

	_, errMissing := auth.TokenFromHeader(makeCtx(""), false)
	require.ErrorIs(t, errMissing, auth.ErrAuthHeader)

	empty, errEmptyOK := auth.TokenFromHeader(makeCtx(""), true)
	require.NoError(t, errEmptyOK)
	require.Empty(t, empty)

	_, errMalformed := auth.TokenFromHeader(makeCtx("Basic abc"), false)
	require.ErrorIs(t, errMalformed, auth.ErrMalformedAuthHdr)
}
