// Package config loads service configuration from CIVIC_* environment
// variables, an optional YAML file, and built-in defaults, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys double as YAML keys; the env var is CIVIC_ plus the upper-cased key.
const (
	KeyAddr             = "addr"
	KeyDatabaseURL      = "database_url"
	KeyRedisURL         = "redis_url"
	KeyKafkaBrokers     = "kafka_brokers"
	KeyKafkaTopic       = "kafka_topic"
	KeyJWTSigningKey    = "jwt_signing_key"
	KeyTokenTTL         = "token_ttl"
	KeyLateFeeRate      = "late_fee_rate"
	KeyLateFeeCap       = "late_fee_cap"
	KeyDefaultSLA       = "default_sla"
	KeyReopenWindow     = "reopen_window"
	KeyLogLevel         = "log_level"
	KeyRateLimitOff     = "rate_limit_disabled"
	KeyRateLimitAllow   = "rate_limit_allowlist"
	KeyGlobalRateLimit  = "rate_limit_global_per_second"
	KeyLoginAttempts    = "login_attempts_per_window"
	KeyLoginHardLock    = "login_hard_lock_threshold"
	KeyLoginLockout     = "login_lockout_duration"
	KeyReportInterval   = "report_interval"
	KeyShutdownTimeout  = "shutdown_timeout"
	KeyRequestTimeout   = "request_timeout"
	KeyBootstrapAdmin   = "bootstrap_admin_email"
	KeyBootstrapAdminPW = "bootstrap_admin_password"
)

const envPrefix = "CIVIC"

// DevSigningKey is used when no key is configured. Config.Validate refuses it
// outside development.
const DevSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig selects the Postgres backend. Empty URL means in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the Redis backend for revocations, counters and rate limits.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables forwarding domain events to a broker.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig configures access tokens.
type AuthConfig struct {
	JWTSigningKey string
	TokenTTL      time.Duration
	Issuer        string
	// Optional first admin created at startup when no admin exists.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	// Failed-login lockout per email and client address.
	LoginAttemptsPerWindow int
	LoginHardLockThreshold int
	LoginLockoutDuration   time.Duration
}

// RateLimitConfig holds limits that apply across endpoint classes.
type RateLimitConfig struct {
	Disabled bool
	// Allowlist holds addresses or CIDR ranges exempt from rate limiting.
	Allowlist []string
	// GlobalPerSecond caps all traffic regardless of caller; 0 disables it.
	GlobalPerSecond int
}

// BillingConfig holds late-fee parameters as fractions of the bill amount.
type BillingConfig struct {
	LateFeeRate float64
	LateFeeCap  float64
}

// ComplaintsConfig holds complaint lifecycle windows.
type ComplaintsConfig struct {
	DefaultSLA   time.Duration
	ReopenWindow time.Duration
}

// Config is the full service configuration.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Auth       AuthConfig
	Billing    BillingConfig
	Complaints ComplaintsConfig
	RateLimit  RateLimitConfig

	LogLevel       slog.Level
	ReportInterval time.Duration
	Environment    string
}

// NewViper returns a viper instance bound to the CIVIC_ environment with
// defaults applied. Callers may bind flags or read a config file before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyKafkaTopic, "civic.events")
	v.SetDefault(KeyJWTSigningKey, DevSigningKey)
	v.SetDefault(KeyTokenTTL, 15*time.Minute)
	v.SetDefault(KeyLateFeeRate, 0.02)
	v.SetDefault(KeyLateFeeCap, 0.25)
	v.SetDefault(KeyDefaultSLA, 72*time.Hour)
	v.SetDefault(KeyReopenWindow, 14*24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRateLimitOff, false)
	v.SetDefault(KeyGlobalRateLimit, 500)
	v.SetDefault(KeyLoginAttempts, 5)
	v.SetDefault(KeyLoginHardLock, 10)
	v.SetDefault(KeyLoginLockout, 15*time.Minute)
	v.SetDefault(KeyReportInterval, time.Minute)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault("environment", "development")
	return v
}

// ReadFile merges a YAML config file into v. A missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	level, err := parseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: Server{
			Addr:            v.GetString(KeyAddr),
			ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
			RequestTimeout:  v.GetDuration(KeyRequestTimeout),
		},
		Database: DatabaseConfig{
			URL:             v.GetString(KeyDatabaseURL),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          v.GetString(KeyRedisURL),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString(KeyKafkaBrokers)),
			Topic:   v.GetString(KeyKafkaTopic),
		},
		Auth: AuthConfig{
			JWTSigningKey:          v.GetString(KeyJWTSigningKey),
			TokenTTL:               v.GetDuration(KeyTokenTTL),
			Issuer:                 "civic",
			BootstrapAdminEmail:    v.GetString(KeyBootstrapAdmin),
			BootstrapAdminPassword: v.GetString(KeyBootstrapAdminPW),
			LoginAttemptsPerWindow: v.GetInt(KeyLoginAttempts),
			LoginHardLockThreshold: v.GetInt(KeyLoginHardLock),
			LoginLockoutDuration:   v.GetDuration(KeyLoginLockout),
		},
		Billing: BillingConfig{
			LateFeeRate: v.GetFloat64(KeyLateFeeRate),
			LateFeeCap:  v.GetFloat64(KeyLateFeeCap),
		},
		Complaints: ComplaintsConfig{
			DefaultSLA:   v.GetDuration(KeyDefaultSLA),
			ReopenWindow: v.GetDuration(KeyReopenWindow),
		},
		RateLimit: RateLimitConfig{
			Disabled:        v.GetBool(KeyRateLimitOff),
			Allowlist:       splitList(v.GetString(KeyRateLimitAllow)),
			GlobalPerSecond: v.GetInt(KeyGlobalRateLimit),
		},
		LogLevel:       level,
		ReportInterval: v.GetDuration(KeyReportInterval),
		Environment:    v.GetString("environment"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the environment so main stays lean.
func FromEnv() (*Config, error) {
	return Load(NewViper())
}

// Validate checks ranges that would otherwise surface as odd runtime behaviour.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("addr is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.Environment != "development" && c.Auth.JWTSigningKey == DevSigningKey {
		return errors.New("jwt_signing_key must be set outside development")
	}
	if len(c.Auth.JWTSigningKey) < 16 {
		return errors.New("jwt_signing_key must be at least 16 bytes")
	}
	if c.Billing.LateFeeRate < 0 || c.Billing.LateFeeRate > 1 {
		return errors.New("late_fee_rate must be within [0,1]")
	}
	if c.Billing.LateFeeCap < 0 || c.Billing.LateFeeCap > 1 {
		return errors.New("late_fee_cap must be within [0,1]")
	}
	if c.Complaints.DefaultSLA <= 0 {
		return errors.New("default_sla must be positive")
	}
	if c.Auth.LoginAttemptsPerWindow < 1 {
		return errors.New("login_attempts_per_window must be at least 1")
	}
	if c.Auth.LoginLockoutDuration <= 0 {
		return errors.New("login_lockout_duration must be positive")
	}
	if c.RateLimit.GlobalPerSecond < 0 {
		return errors.New("rate_limit_global_per_second must not be negative")
	}
	if c.ReportInterval <= 0 {
		return errors.New("report_interval must be positive")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
