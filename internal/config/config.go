// Package config loads application configuration and initializes logging.
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
	Guide   GuideConfig  `yaml:"guide" mapstructure:"guide"`
	Sources SourceConfig `yaml:"sources" mapstructure:"sources"`
	Fetch   FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
}

// GuideConfig configures guide presentation metadata.
type GuideConfig struct {
	Title string `yaml:"title" mapstructure:"title"`
}

// SourceConfig names the two input files. Each source may be a local path or
// an http(s):// or ftp:// URL. A manifest file, when set, overrides both.
type SourceConfig struct {
	Manifest   string `yaml:"manifest" mapstructure:"manifest"`
	Survey     string `yaml:"survey" mapstructure:"survey"`
	Boundaries string `yaml:"boundaries" mapstructure:"boundaries"`
	// SurveySheet selects the worksheet for XLSX survey exports.
	SurveySheet string `yaml:"survey_sheet" mapstructure:"survey_sheet"`
	// SurveyCharset overrides charset detection for CSV survey exports
	// (e.g. "windows-1252").
	SurveyCharset string `yaml:"survey_charset" mapstructure:"survey_charset"`
}

// FetchConfig configures remote input fetching.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	HostRate    float64 `yaml:"host_rate" mapstructure:"host_rate"`
}

// ServerConfig configures the guide API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("VOTERGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs an entry so AutomaticEnv can bind it.
	v.SetDefault("guide.title", "Voter Guide")
	v.SetDefault("sources.manifest", "")
	v.SetDefault("sources.survey", "")
	v.SetDefault("sources.boundaries", "")
	v.SetDefault("sources.survey_sheet", "")
	v.SetDefault("sources.survey_charset", "")
	v.SetDefault("fetch.user_agent", "voterguide/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.host_rate", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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
