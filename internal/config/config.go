// Package config loads application configuration from config.yaml and
// FRONTAGE_* environment variables, and initializes the global logger.
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
	Analyze AnalyzeConfig `yaml:"analyze" mapstructure:"analyze"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// AnalyzeConfig configures the facing analysis pipeline.
type AnalyzeConfig struct {
	CompassResolution int     `yaml:"compass_resolution" mapstructure:"compass_resolution"`
	DistanceUnits     string  `yaml:"distance_units" mapstructure:"distance_units"`
	TieBreakTolerance float64 `yaml:"tie_break_tolerance" mapstructure:"tie_break_tolerance"`
	MaxDistanceMeters float64 `yaml:"max_distance_meters" mapstructure:"max_distance_meters"`
	Workers           int     `yaml:"workers" mapstructure:"workers"`
}

// IngestConfig configures input parsing.
type IngestConfig struct {
	RoadIDField string `yaml:"road_id_field" mapstructure:"road_id_field"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FRONTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("analyze.compass_resolution", 8)
	v.SetDefault("analyze.distance_units", "meters")
	v.SetDefault("analyze.tie_break_tolerance", 1e-9)
	v.SetDefault("analyze.max_distance_meters", 200.0)
	v.SetDefault("analyze.workers", 0)
	v.SetDefault("ingest.road_id_field", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "frontage.db")
	v.SetDefault("server.port", 8080)
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
