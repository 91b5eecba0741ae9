package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/config"
	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

const testSecret = "middleware-test-secret"

func authFixture(t *testing.T) (*gorm.DB, *utils.TokenIssuer, *gin.Engine) {
	t.Helper()
	cfg := &config.Config{Env: "test", Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}}
	db, err := config.InitDB(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { config.CloseDB(db) })

	tokens := utils.NewTokenIssuer(testSecret, time.Hour)
	r := gin.New()
	r.Use(ErrorHandler(quietLogger(), false))

	who := func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Name})
	}
	r.GET("/private", AuthMiddleware(tokens, db), who)
	r.GET("/optional", OptionalAuthMiddleware(tokens, db), who)
	r.GET("/admin", AuthMiddleware(tokens, db), RequireAdmin(), who)
	return db, tokens, r
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@uni.edu", Password: "x", Role: role, AuthProvider: models.ProviderLocal}
	require.NoError(t, db.Create(u).Error)
	return u
}

func tokenFor(t *testing.T, tokens *utils.TokenIssuer, u *models.User) string {
	t.Helper()
	tok, err := tokens.GenerateToken(u.ID.String(), string(u.Role))
	require.NoError(t, err)
	return tok
}

func TestTokenSources(t *testing.T) {
	db, tokens, r := authFixture(t)
	u := createUser(t, db, "asha", models.RoleStudent)
	tok := tokenFor(t, tokens, u)

	tests := []struct {
		name  string
		setup func(*http.Request)
		code  int
	}{
		{"bearer header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"x-auth-token", func(req *http.Request) { req.Header.Set("X-Auth-Token", tok) }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "token", Value: tok}) }, http.StatusOK},
		{"logged out cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "token", Value: "none"}) }, http.StatusUnauthorized},
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nonsense") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(req)
			w := serve(r, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "asha", decode(t, w)["user"])
			}
		})
	}
}

func TestExpiredAndDeletedSessions(t *testing.T) {
	db, tokens, r := authFixture(t)
	u := createUser(t, db, "asha", models.RoleStudent)

	expired, err := utils.NewTokenIssuer(testSecret, -time.Minute).GenerateToken(u.ID.String(), string(u.Role))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token expired", decode(t, w)["message"])

	tok := tokenFor(t, tokens, u)
	require.NoError(t, db.Delete(u).Error)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User no longer exists", decode(t, w)["message"])
}

func TestOptionalAuth(t *testing.T) {
	db, tokens, r := authFixture(t)
	u := createUser(t, db, "asha", models.RoleStudent)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, u))
	w = serve(r, req)
	assert.Equal(t, "asha", decode(t, w)["user"])
}

func TestRequireAdminUsesStoredRole(t *testing.T) {
	db, tokens, r := authFixture(t)
	student := createUser(t, db, "student", models.RoleStudent)
	admin := createUser(t, db, "admin", models.RoleAdmin)

	forged, err := tokens.GenerateToken(student.ID.String(), string(models.RoleAdmin))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role student is not authorized to access this route", decode(t, w)["message"])

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, admin))
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
