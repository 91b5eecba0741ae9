package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	Env       string          `mapstructure:"env"`
	ClientURL string          `mapstructure:"client_url"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire string `mapstructure:"expire"`
	// CookieExpireDays is the lifetime of the session cookie in days.
	CookieExpireDays int `mapstructure:"cookie_expire"`
}

type RateLimitConfig struct {
	WindowMS int `mapstructure:"window_ms"`
	Max      int `mapstructure:"max"`
}

type IdentityConfig struct {
	Backend            string `mapstructure:"backend"`
	FirebaseProjectID  string `mapstructure:"firebase_project_id"`
	FirebaseCredential string `mapstructure:"firebase_service_account"`
	GoogleClientID     string `mapstructure:"google_client_id"`
}

type SupabaseConfig struct {
	URL    string `mapstructure:"url"`
	Key    string `mapstructure:"key"`
	Bucket string `mapstructure:"bucket"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

var envBindings = map[string]string{
	"port":                              "PORT",
	"env":                               "NODE_ENV",
	"client_url":                        "CLIENT_URL",
	"database.driver":                   "DB_DRIVER",
	"database.dsn":                      "DB_DSN",
	"database.path":                     "DB_PATH",
	"database.host":                     "DB_HOST",
	"database.port":                     "DB_PORT",
	"database.user":                     "DB_USER",
	"database.password":                 "DB_PASSWORD",
	"database.dbname":                   "DB_NAME",
	"database.sslmode":                  "DB_SSLMODE",
	"jwt.secret":                        "JWT_SECRET",
	"jwt.expire":                        "JWT_EXPIRE",
	"jwt.cookie_expire":                 "JWT_COOKIE_EXPIRE",
	"rate_limit.window_ms":              "RATE_LIMIT_WINDOW_MS",
	"rate_limit.max":                    "RATE_LIMIT_MAX",
	"identity.backend":                  "IDENTITY_BACKEND",
	"identity.firebase_project_id":      "FIREBASE_PROJECT_ID",
	"identity.firebase_service_account": "FIREBASE_SERVICE_ACCOUNT",
	"identity.google_client_id":         "GOOGLE_CLIENT_ID",
	"supabase.url":                      "SUPABASE_URL",
	"supabase.key":                      "SUPABASE_KEY",
	"supabase.bucket":                   "SUPABASE_BUCKET",
	"smtp.host":                         "SMTP_HOST",
	"smtp.port":                         "SMTP_PORT",
	"smtp.email":                        "SMTP_EMAIL",
	"smtp.password":                     "SMTP_PASSWORD",
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "5000")
	v.SetDefault("env", "development")
	v.SetDefault("client_url", "http://localhost:3000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.path", "college_lover.db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("jwt.expire", "7d")
	v.SetDefault("jwt.cookie_expire", 7)
	v.SetDefault("rate_limit.window_ms", 15*60*1000)
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("identity.backend", "firebase")
	v.SetDefault("supabase.bucket", "materials")
	v.SetDefault("smtp.port", 587)

	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := ParseExpire(cfg.JWT.Expire); err != nil {
		return nil, err
	}
	if cfg.RateLimit.WindowMS <= 0 || cfg.RateLimit.Max <= 0 {
		return nil, fmt.Errorf("rate limit window and max must be positive")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL is the parsed JWT_EXPIRE value.
func (c *Config) TokenTTL() time.Duration {
	ttl, _ := ParseExpire(c.JWT.Expire)
	return ttl
}

func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWT.CookieExpireDays) * 24 * time.Hour
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMS) * time.Millisecond
}

// ParseExpire accepts a day count such as "7d" or any time.ParseDuration string.
func ParseExpire(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid JWT_EXPIRE %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid JWT_EXPIRE %q", s)
	}
	return d, nil
}

func (c *DatabaseConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}
