package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string   `mapstructure:"REDIS_URL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	StorageTTL     time.Duration `mapstructure:"STORAGE_TTL"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	LandingURL         string        `mapstructure:"LANDING_URL"`
	ErrorURL           string        `mapstructure:"ERROR_URL"`
	LandingTokenSecret string        `mapstructure:"LANDING_TOKEN_SECRET"`
	LandingTokenTTL    time.Duration `mapstructure:"LANDING_TOKEN_TTL"`

	StaffJWTSecret string `mapstructure:"STAFF_JWT_SECRET"`
	StaffJWTIssuer string `mapstructure:"STAFF_JWT_ISSUER"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaAcks    string `mapstructure:"KAFKA_ACKS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "CORS_ORIGINS", "SESSION_TTL", "STORAGE_TTL", "BODY_LIMIT",
	"REQUEST_TIMEOUT", "LANDING_URL", "ERROR_URL", "LANDING_TOKEN_SECRET",
	"LANDING_TOKEN_TTL", "STAFF_JWT_SECRET", "STAFF_JWT_ISSUER", "KAFKA_BROKERS",
	"KAFKA_TOPIC", "KAFKA_ACKS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("STORAGE_TTL", "24h")
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LANDING_URL", "http://localhost:3000/welcome")
	v.SetDefault("ERROR_URL", "http://localhost:3000/error")
	v.SetDefault("LANDING_TOKEN_TTL", "15m")
	v.SetDefault("STAFF_JWT_ISSUER", "enrollment")
	v.SetDefault("KAFKA_TOPIC", "enrollment.events")
	v.SetDefault("KAFKA_ACKS", "all")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// KafkaEnabled reports whether completed enrollments are published.
func (c *Config) KafkaEnabled() bool {
	return c.KafkaBrokers != ""
}

// Validate checks cross-field rules. Outside development the landing token
// and staff JWT secrets must be set and long enough for HS256.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\", \"staging\", or \"production\", got %q", c.Env)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.LandingURL == "" || c.ErrorURL == "" {
		return fmt.Errorf("LANDING_URL and ERROR_URL are required")
	}
	if !c.IsDev() {
		if len(c.LandingTokenSecret) < 32 {
			return fmt.Errorf("LANDING_TOKEN_SECRET must be at least 32 bytes outside development")
		}
		if len(c.StaffJWTSecret) < 32 {
			return fmt.Errorf("STAFF_JWT_SECRET must be at least 32 bytes outside development")
		}
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.KafkaAcks {
	case "0", "1", "all", "":
	default:
		return fmt.Errorf("KAFKA_ACKS must be 0, 1 or all, got %q", c.KafkaAcks)
	}
	return nil
}
