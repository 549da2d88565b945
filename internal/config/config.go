// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Realm     RealmConfig     `yaml:"realm" mapstructure:"realm"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Tracker   TrackerConfig   `yaml:"tracker" mapstructure:"tracker"`
}

// StoreConfig configures the Postgres backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	Secret         string `yaml:"secret" mapstructure:"secret"`
	TokenTTLHours  int    `yaml:"token_ttl_hours" mapstructure:"token_ttl_hours"`
	MinPasswordLen int    `yaml:"min_password_len" mapstructure:"min_password_len"`
}

// IngestConfig configures snapshot ingestion.
type IngestConfig struct {
	BatchSize  int `yaml:"batch_size" mapstructure:"batch_size"`
	SheetIndex int `yaml:"sheet_index" mapstructure:"sheet_index"`
}

// RealmConfig configures the departure sweep.
type RealmConfig struct {
	PowerFloor         int64 `yaml:"power_floor" mapstructure:"power_floor"`
	InactiveCutoffDays int   `yaml:"inactive_cutoff_days" mapstructure:"inactive_cutoff_days"`
}

// AnalyticsConfig configures the derived-view thresholds. These are
// operator tunables, not domain invariants.
type AnalyticsConfig struct {
	MeritFloor int64   `yaml:"merit_floor" mapstructure:"merit_floor"`
	KillFloor  int64   `yaml:"kill_floor" mapstructure:"kill_floor"`
	Brackets   []int64 `yaml:"brackets" mapstructure:"brackets"`
}

// UploadConfig configures the upload endpoint.
type UploadConfig struct {
	MaxBytes   int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	RatePerMin float64 `yaml:"rate_per_min" mapstructure:"rate_per_min"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TrackerConfig holds miscellaneous tracker settings.
type TrackerConfig struct {
	TunablesFile string `yaml:"tunables_file" mapstructure:"tunables_file"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("auth.min_password_len", 10)
	v.SetDefault("ingest.batch_size", 500)
	v.SetDefault("ingest.sheet_index", 0)
	v.SetDefault("realm.power_floor", 10_000_000)
	v.SetDefault("realm.inactive_cutoff_days", 7)
	v.SetDefault("analytics.merit_floor", 10_000)
	v.SetDefault("analytics.kill_floor", 10_000)
	v.SetDefault("analytics.brackets", []int64{5_000_000, 10_000_000, 20_000_000, 50_000_000})
	v.SetDefault("upload.max_bytes", 20<<20)
	v.SetDefault("upload.rate_per_min", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings every command needs. Missing required values
// fail startup rather than surfacing later as runtime errors.
func (c *Config) Validate() error {
	if c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required (TRACKER_STORE_DATABASE_URL)")
	}
	return nil
}

// ValidateServe checks the additional settings the API server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.Secret == "" {
		return eris.New("config: auth.secret is required (TRACKER_AUTH_SECRET)")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
