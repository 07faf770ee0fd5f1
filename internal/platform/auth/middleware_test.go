package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newProtectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", RequireAuth(testSecret), RequireRole(roles...))
	g.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"/"+Role(c))
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_AcceptsIssuedToken(t *testing.T) {
	svc := NewService(NewMemoryStore(), testSecret, time.Hour)
	tok, err := svc.IssueToken("staff-a", RoleStaff)
	require.NoError(t, err)

	w := get(newProtectedRouter(RoleStaff, RoleAdmin), tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-a/staff", w.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	r := newProtectedRouter(RoleStaff)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "not-a-jwt").Code)

	other := NewService(NewMemoryStore(), []byte("other-secret"), time.Hour)
	tok, err := other.IssueToken("staff-a", RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, tok).Code)

	expired := NewService(NewMemoryStore(), testSecret, -time.Minute)
	tok, err = expired.IssueToken("staff-a", RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, tok).Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	svc := NewService(NewMemoryStore(), testSecret, time.Hour)
	tok, err := svc.IssueToken("parent-1", RoleGuardian)
	require.NoError(t, err)

	w := get(newProtectedRouter(RoleStaff, RoleAdmin), tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginAndEnsureAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), testSecret, time.Hour)

	require.NoError(t, svc.EnsureAccount(ctx, "admin", "change-me", RoleAdmin))
	require.NoError(t, svc.EnsureAccount(ctx, "admin", "ignored", RoleAdmin))
	require.NoError(t, svc.EnsureAccount(ctx, "", "", RoleAdmin))

	tok, err := svc.Login(ctx, "admin", "change-me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(newProtectedRouter(RoleStaff), tok).Code)

	_, err = svc.Login(ctx, "admin", "ignored")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = svc.Login(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrAuthFailed)

	assert.ErrorIs(t, svc.Register(ctx, "s1", "password1", "nurse"), ErrInvalidRole)
	assert.ErrorIs(t, svc.Register(ctx, "admin", "password1", RoleStaff), ErrAlreadyExists)
}
