package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	xhttp "github.com/andrewPaul004/ColorGarbApp-sub004/pkg/http"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	var captured model.Principal
	var called bool
	next := func(ctx *xhttp.RequestCtx) {
		called = true
		captured, _ = principalFrom(ctx)
	}
	mw := AuthMiddleware(testSecret)(next)

	t.Run("valid staff token passes through", func(t *testing.T) {
		called = false
		token := signToken(t, jwt.MapClaims{
			"user_id": float64(7),
			"role":    model.RoleStaff,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
		mw(ctx)

		assert.True(t, called)
		assert.Equal(t, int64(7), captured.UserID)
		assert.True(t, captured.IsStaff())
	})

	t.Run("client token carries organization", func(t *testing.T) {
		called = false
		token := signToken(t, jwt.MapClaims{
			"user_id":         float64(2),
			"organization_id": float64(77),
			"role":            model.RoleClient,
			"exp":             time.Now().Add(time.Hour).Unix(),
		})

		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
		mw(ctx)

		assert.True(t, called)
		assert.Equal(t, int64(77), captured.OrganizationID)
		assert.False(t, captured.IsStaff())
	})

	t.Run("missing header gets 401", func(t *testing.T) {
		called = false
		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		mw(ctx)

		assert.False(t, called)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("bad signature gets 401", func(t *testing.T) {
		called = false
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(1), "role": "staff"})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+signed)
		mw(ctx)

		assert.False(t, called)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("expired token gets 401", func(t *testing.T) {
		called = false
		token := signToken(t, jwt.MapClaims{
			"user_id": float64(1),
			"role":    model.RoleStaff,
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})

		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
		mw(ctx)

		assert.False(t, called)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("client token without organization gets 401", func(t *testing.T) {
		called = false
		token := signToken(t, jwt.MapClaims{
			"user_id": float64(1),
			"role":    model.RoleClient,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		ctx := setupTestContext("GET", "/api/v1/communication-audit/logs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
		mw(ctx)

		assert.False(t, called)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("health endpoint skips auth", func(t *testing.T) {
		called = false
		ctx := setupTestContext("GET", "/api/v1/health", nil)
		mw(ctx)

		assert.True(t, called)
	})

	t.Run("webhook endpoint skips auth", func(t *testing.T) {
		called = false
		ctx := setupTestContext("POST", "/api/v1/webhooks/delivery", nil)
		mw(ctx)

		assert.True(t, called)
	})
}
