package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig configures the Postgres target.
type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// IngestConfig configures batch runs.
type IngestConfig struct {
	Delay    time.Duration `yaml:"delay" mapstructure:"delay"`
	DebugDir string        `yaml:"debug_dir" mapstructure:"debug_dir"`
}

// ProviderConfig holds the fundamentals provider API settings.
type ProviderConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	IDsPath     string `yaml:"ids_path" mapstructure:"ids_path"`
	CompanyPath string `yaml:"company_path" mapstructure:"company_path"`
}

// SnapshotConfig configures where raw payloads are kept.
type SnapshotConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Dir    string `yaml:"dir" mapstructure:"dir"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// A missing .env is fine; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDAMENTALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "FUNDAMENTALS_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, eris.Wrap(err, "config: bind database url")
	}

	// Defaults
	v.SetDefault("database.url", "")
	v.SetDefault("ingest.delay", time.Second)
	v.SetDefault("ingest.debug_dir", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.user_agent", "fundamentals-cli/1.0")
	v.SetDefault("provider.timeout_secs", 30)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.ids_path", "/companies")
	v.SetDefault("provider.company_path", "/companies/{id}")
	v.SetDefault("snapshot.driver", "dir")
	v.SetDefault("snapshot.dir", "raw_data")
	v.SetDefault("snapshot.dsn", "snapshots.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command needs are present. mode is
// the command name.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "ingest":
		if c.Database.URL == "" {
			errs = append(errs, "database.url is required (FUNDAMENTALS_DATABASE_URL or DATABASE_URL)")
		}
		if c.Provider.BaseURL == "" {
			errs = append(errs, "provider.base_url is required")
		}
		if c.Ingest.Delay < 0 {
			errs = append(errs, "ingest.delay must not be negative")
		}
	case "replay":
		if c.Database.URL == "" {
			errs = append(errs, "database.url is required (FUNDAMENTALS_DATABASE_URL or DATABASE_URL)")
		}
		if c.Snapshot.Driver == "none" {
			errs = append(errs, "snapshot.driver must be dir or sqlite to replay")
		}
	case "migrate", "runs":
		if c.Database.URL == "" {
			errs = append(errs, "database.url is required (FUNDAMENTALS_DATABASE_URL or DATABASE_URL)")
		}
	}

	switch c.Snapshot.Driver {
	case "dir", "sqlite", "none":
	default:
		errs = append(errs, "snapshot.driver must be one of dir, sqlite, none")
	}

	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
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
