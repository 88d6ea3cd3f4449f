package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvarela/coldtrack/internal/auth"
	"github.com/nvarela/coldtrack/internal/model"
	"github.com/nvarela/coldtrack/internal/utils"
)

const testSecret = "test-secret"

func protectedRequest(t *testing.T, mw ...echo.MiddlewareFunc) func(authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := func(c echo.Context) error {
		uid, _ := c.Get("user_id").(uint64)
		return c.JSON(http.StatusOK, echo.Map{"user_id": uid, "role": c.Get("role")})
	}
	e.GET("/guarded", h, mw...)

	return func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	do := protectedRequest(t, JWTAuth(testSecret))

	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleSupervisor, 5)
	require.NoError(t, err)

	rec := do("Bearer " + tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
	assert.Contains(t, rec.Body.String(), `"role":"SUPERVISOR"`)
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	do := protectedRequest(t, JWTAuth(testSecret))

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer not-a-token").Code)

	wrongKey, err := utils.NewAccessToken("other-secret", 42, model.RoleOperator, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+wrongKey.Token).Code)
}

func TestRequirePermissionEnforcesMatrix(t *testing.T) {
	do := protectedRequest(t, JWTAuth(testSecret), RequirePermission(auth.OpFormReview))

	supervisor, err := utils.NewAccessToken(testSecret, 3, model.RoleSupervisor, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do("Bearer "+supervisor.Token).Code)

	operator, err := utils.NewAccessToken(testSecret, 7, model.RoleOperator, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do("Bearer "+operator.Token).Code)

	auditor, err := utils.NewAccessToken(testSecret, 9, model.RoleAuditor, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do("Bearer "+auditor.Token).Code)
}
