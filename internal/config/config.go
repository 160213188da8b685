package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/parcel-finder/pkg/cadastre"
)

// Config holds the full application configuration.
type Config struct {
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Cadastre CadastreConfig `yaml:"cadastre" mapstructure:"cadastre"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Reverse  ReverseConfig  `yaml:"reverse" mapstructure:"reverse"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the two lookup caches.
type CacheConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	RedisAddr   string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	TTL         time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MemorySize  int           `yaml:"memory_size" mapstructure:"memory_size"`
}

// GeocoderConfig holds the municipality search endpoint.
type GeocoderConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CadastreConfig holds the parcel API settings.
type CadastreConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RegistryConfig holds the buildings registry (BDNB) settings.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ReverseConfig configures the reverse-geocoding address fallback.
type ReverseConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// HTTPConfig holds shared HTTP client settings.
type HTTPConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OutputConfig configures how results are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// Load reads configuration from file and environment. An empty path searches
// the working directory for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dir", ".")
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("cache.memory_size", 256)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("geocoder.base_url", "https://api-adresse.data.gouv.fr")
	v.SetDefault("cadastre.base_url", "https://apicarto.ign.fr")
	v.SetDefault("cadastre.page_size", 1000)
	v.SetDefault("cadastre.timeout_secs", 30)
	v.SetDefault("registry.base_url", "https://api.bdnb.io")
	v.SetDefault("reverse.enabled", false)
	v.SetDefault("reverse.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("reverse.user_agent", "parcel-finder/1.0")
	v.SetDefault("http.timeout_secs", 10)
	v.SetDefault("output.format", "text")

	// Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case "sqlite", "redis", "postgres", "memory":
	default:
		return eris.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.Driver == "postgres" && c.Cache.DatabaseURL == "" {
		return eris.New("config: cache.database_url is required for the postgres driver")
	}
	if c.Cadastre.PageSize <= 0 || c.Cadastre.PageSize > cadastre.MaxPageSize {
		return eris.Errorf("config: cadastre.page_size must be between 1 and %d, got %d", cadastre.MaxPageSize, c.Cadastre.PageSize)
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return eris.Errorf("config: unknown output format %q", c.Output.Format)
	}
	return nil
}

// verbosityLevels maps -v 0..5 from quietest to most verbose.
var verbosityLevels = [...]zapcore.Level{
	zapcore.FatalLevel,
	zapcore.ErrorLevel,
	zapcore.WarnLevel,
	zapcore.InfoLevel,
	zapcore.DebugLevel,
	zapcore.DebugLevel,
}

// ApplyVerbosity overrides the log level from a -v value. Level 5 also turns
// on the development logger (caller and stack traces on warnings).
func (l *LogConfig) ApplyVerbosity(verbosity int) error {
	if verbosity < 0 || verbosity >= len(verbosityLevels) {
		return eris.Errorf("config: verbosity must be between 0 and %d, got %d", len(verbosityLevels)-1, verbosity)
	}
	l.Level = verbosityLevels[verbosity].String()
	if verbosity == len(verbosityLevels)-1 {
		l.Development = true
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Development = false
		zapCfg.DisableStacktrace = true
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	// stdout carries the results.
	zapCfg.OutputPaths = []string{"stderr"}

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
