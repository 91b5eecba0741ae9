package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, "development", c.Env)
	assert.False(t, c.IsProduction())
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL())
	assert.Equal(t, 7*24*time.Hour, c.CookieTTL())
	assert.Equal(t, 15*time.Minute, c.RateLimitWindow())
	assert.Equal(t, 100, c.RateLimit.Max)
	assert.Equal(t, "firebase", c.Identity.Backend)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("JWT_EXPIRE", "12h")
	t.Setenv("JWT_COOKIE_EXPIRE", "1")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("SMTP_PORT", "465")

	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.IsProduction())
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, ":memory:", c.Database.Path)
	assert.Equal(t, 12*time.Hour, c.TokenTTL())
	assert.Equal(t, 24*time.Hour, c.CookieTTL())
	assert.Equal(t, 5, c.RateLimit.Max)
	assert.Equal(t, 465, c.SMTP.Port)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseExpire(t *testing.T) {
	d, err := ParseExpire("30d")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, d)

	d, err = ParseExpire("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	for _, bad := range []string{"", "xd", "-1d", "soon"} {
		_, err := ParseExpire(bad)
		assert.Error(t, err, bad)
	}
}

func TestPostgresDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "college", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=college port=5432 sslmode=disable TimeZone=UTC", db.PostgresDSN())

	db.DSN = "postgres://u:p@db/college"
	assert.Equal(t, "postgres://u:p@db/college", db.PostgresDSN())
}
