package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application-wide configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Offer     OfferConfig     `mapstructure:"offer"`
	TimeSheet TimeSheetConfig `mapstructure:"timesheet"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Timezone  TimezoneConfig  `mapstructure:"timezone"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port       int           `mapstructure:"port"`
	Mode       string        `mapstructure:"mode"` // debug | release | test
	BodyLimit  int64         `mapstructure:"body_limit"`
	RateLimit  int           `mapstructure:"rate_limit"` // requests per window per client, 0 disables
	RateWindow time.Duration `mapstructure:"rate_window"`
	CORS       CORSConfig    `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig database connection settings
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres | sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// MigrateURL builds the URL form golang-migrate expects
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig bearer token verification
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LogConfig logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// SchedulerConfig deferred task queue
type SchedulerConfig struct {
	Queue        string        `mapstructure:"queue"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int64         `mapstructure:"batch_size"`
}

// OfferConfig follow-up notification timing for job offers.
// The values are product decisions that have not been confirmed; keep them configurable.
type OfferConfig struct {
	ResendDelay      time.Duration `mapstructure:"resend_delay"`
	ImmediateDelay   time.Duration `mapstructure:"immediate_delay"`
	MorningHour      int           `mapstructure:"morning_hour"`
	DayBoundaryHour  int           `mapstructure:"day_boundary_hour"`
	LateWindow       time.Duration `mapstructure:"late_window"`
	GraceAfterStart  time.Duration `mapstructure:"grace_after_start"`
	MorningCutoff    time.Duration `mapstructure:"morning_cutoff"`
	FastTrackHorizon time.Duration `mapstructure:"fast_track_horizon"`
	ShortNotice      time.Duration `mapstructure:"short_notice"`
}

// TimeSheetConfig defaults applied when a timesheet is created for an accepted offer
type TimeSheetConfig struct {
	BreakStartOffset time.Duration `mapstructure:"break_start_offset"`
	BreakLength      time.Duration `mapstructure:"break_length"`
	ShiftLength      time.Duration `mapstructure:"shift_length"`
	GoingToWorkLead  time.Duration `mapstructure:"going_to_work_lead"`
	PlacementGrace   time.Duration `mapstructure:"placement_grace"`
	AutoApproveAfter time.Duration `mapstructure:"auto_approve_after"`
	AutoFillLength   time.Duration `mapstructure:"auto_fill_length"`
}

// NotifyConfig notification delivery
type NotifyConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
}

// WorkflowConfig location of the timesheet workflow rules
type WorkflowConfig struct {
	RulesPath string `mapstructure:"rules_path"` // empty uses the built-in rules
}

// TimezoneConfig fallback zone for sites without a resolvable timezone
type TimezoneConfig struct {
	Default string `mapstructure:"default"`
}

// Load reads configuration from .env, the config file and the environment.
// Precedence: environment > config file > defaults
func Load(path string) (*Config, error) {
	// a missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("STAFFLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_window", "1m")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "staffline")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.sqlite_path", "staffline.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "staffline")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.queue", "staffline:tasks")
	v.SetDefault("scheduler.poll_interval", "1s")
	v.SetDefault("scheduler.batch_size", 50)

	v.SetDefault("offer.resend_delay", "10s")
	v.SetDefault("offer.immediate_delay", "10s")
	v.SetDefault("offer.morning_hour", 10)
	v.SetDefault("offer.day_boundary_hour", 5)
	v.SetDefault("offer.late_window", "1h")
	v.SetDefault("offer.grace_after_start", "2h")
	v.SetDefault("offer.morning_cutoff", "1h30m")
	v.SetDefault("offer.fast_track_horizon", "96h")
	v.SetDefault("offer.short_notice", "1h")

	v.SetDefault("timesheet.break_start_offset", "5h")
	v.SetDefault("timesheet.break_length", "30m")
	v.SetDefault("timesheet.shift_length", "8h30m")
	v.SetDefault("timesheet.going_to_work_lead", "2h")
	v.SetDefault("timesheet.placement_grace", "2h")
	v.SetDefault("timesheet.auto_approve_after", "72h")
	v.SetDefault("timesheet.auto_fill_length", "4h")

	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("workflow.rules_path", "")
	v.SetDefault("timezone.default", "Europe/London")
}

// Validate checks the settings the process cannot start without
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	if c.Server.Mode == "release" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters in release mode")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.Database.Driver)
	}
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("config: scheduler.poll_interval must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone.Default); err != nil {
		return fmt.Errorf("config: timezone.default: %w", err)
	}
	return nil
}
