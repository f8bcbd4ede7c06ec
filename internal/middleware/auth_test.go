package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"identity-service/pkg/config"
	"identity-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key"})
	token, err := jwtutil.GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	c, _ := newAuthContext(t, "Bearer "+token)

	called := false
	next := func(c echo.Context) error {
		called = true
		return nil
	}

	require.NoError(t, AuthMiddleware(next)(c))
	assert.True(t, called)
	assert.Equal(t, "u1", CallerIdentity(c))
	assert.Equal(t, "a@example.com", c.Get(EmailKey))
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	c, rec := newAuthContext(t, "")

	next := func(c echo.Context) error {
		t.Fatal("handler must not run without a token")
		return nil
	}

	require.NoError(t, AuthMiddleware(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_NotBearer(t *testing.T) {
	c, rec := newAuthContext(t, "Basic dXNlcjpwYXNz")

	next := func(c echo.Context) error {
		t.Fatal("handler must not run with a malformed header")
		return nil
	}

	require.NoError(t, AuthMiddleware(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key"})

	c, rec := newAuthContext(t, "Bearer not-a-jwt")

	next := func(c echo.Context) error {
		t.Fatal("handler must not run with an invalid token")
		return nil
	}

	require.NoError(t, AuthMiddleware(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallerIdentity_Unset(t *testing.T) {
	c, _ := newAuthContext(t, "")
	assert.Equal(t, "", CallerIdentity(c))
}
