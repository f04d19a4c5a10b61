package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// RetryAttempts bounds retries of transient connection and lock errors.
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port      int      `yaml:"port" mapstructure:"port"`
	RateLimit float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	Origins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TierMultipliers holds the score modifier applied per evidence tier.
type TierMultipliers struct {
	Tier0 float64 `yaml:"tier_0" mapstructure:"tier_0"`
	Tier1 float64 `yaml:"tier_1" mapstructure:"tier_1"`
	Tier2 float64 `yaml:"tier_2" mapstructure:"tier_2"`
}

// ScoringConfig configures the scoring engine and gap identification.
type ScoringConfig struct {
	TierMultipliers       TierMultipliers `yaml:"tier_multipliers" mapstructure:"tier_multipliers"`
	WeightTolerance       float64         `yaml:"weight_tolerance" mapstructure:"weight_tolerance"`
	GapThreshold          float64         `yaml:"gap_threshold" mapstructure:"gap_threshold"`
	MaxConcurrentSections int             `yaml:"max_concurrent_sections" mapstructure:"max_concurrent_sections"`
	WriteBack             bool            `yaml:"write_back" mapstructure:"write_back"`
}

// DefaultScoringConfig returns the scoring defaults used when no
// configuration overrides them.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TierMultipliers: TierMultipliers{
			Tier0: 0.6,
			Tier1: 0.8,
			Tier2: 1.0,
		},
		WeightTolerance:       1e-4,
		GapThreshold:          3.5,
		MaxConcurrentSections: 4,
		WriteBack:             true,
	}
}

// Validate checks that a ScoringConfig is internally consistent.
func (c ScoringConfig) Validate() error {
	var errs []string

	m := c.TierMultipliers
	if m.Tier0 <= 0 {
		errs = append(errs, "tier_0 multiplier must be > 0")
	}
	if m.Tier1 <= m.Tier0 {
		errs = append(errs, fmt.Sprintf("tier_1 multiplier (%.2f) must be > tier_0 (%.2f)", m.Tier1, m.Tier0))
	}
	if m.Tier2 < m.Tier1 {
		errs = append(errs, fmt.Sprintf("tier_2 multiplier (%.2f) must be >= tier_1 (%.2f)", m.Tier2, m.Tier1))
	}
	if c.WeightTolerance <= 0 {
		errs = append(errs, "weight_tolerance must be > 0")
	}
	if c.GapThreshold < 0 || c.GapThreshold > 5 {
		errs = append(errs, "gap_threshold must be between 0 and 5")
	}
	if c.MaxConcurrentSections < 0 {
		errs = append(errs, "max_concurrent_sections must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: scoring validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration required by a command mode:
// "score", "import" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "score", "import", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.RetryAttempts < 0 {
		errs = append(errs, "store.retry_attempts must be >= 0")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
			errs = append(errs, "server.rate_burst must be > 0 when rate_limit is set")
		}
	}

	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPLIANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	def := DefaultScoringConfig()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "compliance.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_backoff", 200*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("scoring.tier_multipliers.tier_0", def.TierMultipliers.Tier0)
	v.SetDefault("scoring.tier_multipliers.tier_1", def.TierMultipliers.Tier1)
	v.SetDefault("scoring.tier_multipliers.tier_2", def.TierMultipliers.Tier2)
	v.SetDefault("scoring.weight_tolerance", def.WeightTolerance)
	v.SetDefault("scoring.gap_threshold", def.GapThreshold)
	v.SetDefault("scoring.max_concurrent_sections", def.MaxConcurrentSections)
	v.SetDefault("scoring.write_back", def.WriteBack)

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
