package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all terminal configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Ledger   LedgerConfig
	Resolver ResolverConfig
	Camera   CameraConfig
	Guard    GuardConfig
	Journal  JournalConfig
	Cache    CacheConfig
}

// ServerConfig holds the local terminal API server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port            int           `envconfig:"SERVER_PORT" default:"8088"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds terminal-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"venuepoint-terminal"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	MerchantID  string `envconfig:"MERCHANT_ID" default:""`
	TerminalID  string `envconfig:"TERMINAL_ID" default:""`
	TerminalKey string `envconfig:"TERMINAL_KEY" default:""` // operator login key for this terminal
}

// LedgerConfig holds the remote loyalty backend settings.
type LedgerConfig struct {
	BaseURL string        `envconfig:"LEDGER_BASE_URL" default:"https://api.venuepoint.example"`
	APIKey  string        `envconfig:"LEDGER_API_KEY" default:""`
	Timeout time.Duration `envconfig:"LEDGER_TIMEOUT" default:"10s"`
}

// ResolverConfig holds identity resolution settings.
type ResolverConfig struct {
	QuietInterval  time.Duration `envconfig:"RESOLVER_QUIET_INTERVAL" default:"500ms"`
	MinQueryLength int           `envconfig:"RESOLVER_MIN_QUERY_LENGTH" default:"10"`
}

// CameraConfig holds camera capture settings.
type CameraConfig struct {
	Enabled bool `envconfig:"CAMERA_ENABLED" default:"true"`
	// FrameDir, when set, backs the camera with still images from disk
	// (development terminals without capture hardware).
	FrameDir      string        `envconfig:"CAMERA_FRAME_DIR" default:""`
	FrameInterval time.Duration `envconfig:"CAMERA_FRAME_INTERVAL" default:"66ms"`
}

// GuardConfig holds merchant balance guard settings.
type GuardConfig struct {
	// CacheTTL bounds how long a cached balance snapshot survives a restart.
	CacheTTL time.Duration `envconfig:"GUARD_CACHE_TTL" default:"24h"`
}

// JournalConfig holds local transaction journal settings.
type JournalConfig struct {
	Type string `envconfig:"JOURNAL_DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"JOURNAL_DB_PATH" default:"./data/journal.db"`
	// Retention settings
	MaxAge       time.Duration `envconfig:"JOURNAL_MAX_AGE" default:"2160h"` // 90 days
	CleanupEvery time.Duration `envconfig:"JOURNAL_CLEANUP_INTERVAL" default:"24h"`
	// MySQL settings
	Host     string `envconfig:"JOURNAL_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"JOURNAL_DB_PORT" default:"3306"`
	Name     string `envconfig:"JOURNAL_DB_NAME" default:"venuepoint"`
	User     string `envconfig:"JOURNAL_DB_USER" default:"root"`
	Password string `envconfig:"JOURNAL_DB_PASS" default:""`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name for the journal.
func (j *JournalConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		j.User, j.Password, j.Host, j.Port, j.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
