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
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RenderConfig holds defaults for map rendering. Classification scheme is
// deliberately absent: it must be chosen explicitly per invocation.
type RenderConfig struct {
	Width       int     `yaml:"width" mapstructure:"width"`
	Height      int     `yaml:"height" mapstructure:"height"`
	Palette     string  `yaml:"palette" mapstructure:"palette"`
	PaletteFile string  `yaml:"palette_file" mapstructure:"palette_file"`
	Classes     int     `yaml:"classes" mapstructure:"classes"`
	FillOpacity float64 `yaml:"fill_opacity" mapstructure:"fill_opacity"`
}

// BoundaryConfig configures the PostGIS administrative boundary source.
type BoundaryConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
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
	v.SetEnvPrefix("CHOROMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("render.width", 1200)
	v.SetDefault("render.height", 900)
	v.SetDefault("render.palette", "ylorrd")
	v.SetDefault("render.classes", 5)
	v.SetDefault("render.fill_opacity", 1.0)
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
