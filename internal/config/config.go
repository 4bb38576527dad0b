package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"
)

// Config holds the server configuration, decoded from the environment.
//
// use POSTBOARD_DB="file:postboard.db?_pragma=busy_timeout(5000)" for a
// persistent store, or "file:dev?mode=memory&cache=shared" for a throwaway one.
type Config struct {
	Port        int           `env:"PORT,default=3000" description:"the listen port"`
	DBPath      string        `env:"POSTBOARD_DB,default=postboard.db" description:"the sqlite connection string"`
	JWTSecret   string        `env:"POSTBOARD_JWT_SECRET" description:"the HMAC secret used to sign tokens"`
	TokenTTL    time.Duration `env:"POSTBOARD_TOKEN_TTL,default=0s" description:"token lifetime, 0 disables expiry"`
	AdminEmail  string        `env:"POSTBOARD_ADMIN_EMAIL,default=admin@example.com" description:"signups with this email get the admin role"`
	HashCost    int           `env:"POSTBOARD_HASH_COST,default=10" description:"bcrypt cost"`
	MaxPageSize int           `env:"POSTBOARD_MAX_PAGE_LIMIT,default=100" description:"upper bound for the limit query parameter, 0 disables"`
	LogLevel    string        `env:"POSTBOARD_LOG_LEVEL,default=info"`
	CORSOrigins string        `env:"POSTBOARD_CORS_ORIGINS,default=*" description:"comma separated list of allowed origins"`
	TrustProxy  bool          `env:"POSTBOARD_TRUST_PROXY,default=false" description:"take the client IP from X-Forwarded-For, only behind a proxy that sets it"`
	RateLimits  RateLimits
}

type RateLimits struct {
	LoginPerMinute  int `env:"POSTBOARD_RL_LOGIN_PER_MIN,default=20"`
	SignupPerMinute int `env:"POSTBOARD_RL_SIGNUP_PER_MIN,default=10"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("POSTBOARD_JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TokenTTL < 0 {
		return errors.New("POSTBOARD_TOKEN_TTL must not be negative")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Level falls back to info for unknown names.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
