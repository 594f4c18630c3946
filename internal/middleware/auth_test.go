package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func doRequest(m *AuthMiddleware, authz string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = m.RequireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, c
}

func TestRequireAuthValidToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	tok := signToken(t, testSecret, "buyer-1", "buyer", time.Now().Add(time.Hour))

	rec, c := doRequest(m, "Bearer "+tok)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buyer-1", c.Get("uid"))
	assert.Equal(t, "buyer", c.Get("role"))
}

func TestRequireAuthRejects(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	tests := []struct {
		name  string
		authz string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "buyer-1", "buyer", time.Now().Add(time.Hour))},
		{"expired", "Bearer " + signToken(t, testSecret, "buyer-1", "buyer", time.Now().Add(-time.Hour))},
		{"empty subject", "Bearer " + signToken(t, testSecret, "", "buyer", time.Now().Add(time.Hour))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(m, tt.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	e := echo.New()

	handler := m.RequireAuth(m.RequireRole("admin")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	run := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-1", role, time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()
		_ = handler(e.NewContext(req, rec))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("admin"))
	assert.Equal(t, http.StatusForbidden, run("buyer"))
	assert.Equal(t, http.StatusForbidden, run("seller"))
}
