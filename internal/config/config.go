package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

const (
	DefaultLogLevel = "info"

	defaultInterval            = 60
	defaultDBPath              = "/var/lib/ecobeectl/history.db"
	defaultMode                = "cool"
	defaultAlertThreshold      = 1.5
	defaultLookbackDays        = 30
	defaultRetentionDays       = 30
	defaultPurgeIntervalHours  = 6
	defaultWeatherCacheSeconds = 300
	defaultAssumedDrawKW       = 3.5
	defaultCyclesPerDay        = 24
	defaultBaselinePerDegree   = 200
)

// Config holds every recognized option and its default. Values are
// immutable after Load.
type Config struct {
	ClimateEntity string `mapstructure:"climate_entity"`
	HAURL         string `mapstructure:"ha_url"`
	HAToken       string `mapstructure:"ha_token"`
	Mode          string `mapstructure:"mode"`
	Interval      int    `mapstructure:"interval"`
	DBPath        string `mapstructure:"db_path"`
	SnapshotPath  string `mapstructure:"snapshot_path"`
	LogLevel      string `mapstructure:"log_level"`

	EnergyRate    float64 `mapstructure:"energy_rate"`
	AssumedDrawKW float64 `mapstructure:"assumed_draw_kw"`
	CyclesPerDay  float64 `mapstructure:"cycles_per_day"`

	AlertThreshold           float64 `mapstructure:"alert_threshold"`
	LookbackDays             int     `mapstructure:"lookback_days"`
	RetentionDays            int     `mapstructure:"retention_days"`
	PurgeIntervalHours       int     `mapstructure:"purge_interval_hours"`
	BaselineSecondsPerDegree int     `mapstructure:"baseline_seconds_per_degree"`

	WeatherCacheSeconds int    `mapstructure:"weather_cache_seconds"`
	WeatherAPIKey       string `mapstructure:"weather_api_key"`
	ZipCode             string `mapstructure:"zip_code"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("ecobeectl", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	configFlag := fs.String("config", "", "Path to configuration file")
	fs.String("climate-entity", "", "Climate entity to track")
	fs.String("db-path", "", "Path to the cycle history database")
	fs.Int("interval", 0, "Seconds between device polls")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	// Empty defaults register the keys so environment overrides are seen
	// by Unmarshal.
	v.SetDefault("climate_entity", "")
	v.SetDefault("ha_url", "")
	v.SetDefault("ha_token", "")
	v.SetDefault("snapshot_path", "")
	v.SetDefault("weather_api_key", "")
	v.SetDefault("zip_code", "")
	v.SetDefault("energy_rate", 0.0)
	v.SetDefault("mode", defaultMode)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("alert_threshold", defaultAlertThreshold)
	v.SetDefault("lookback_days", defaultLookbackDays)
	v.SetDefault("retention_days", defaultRetentionDays)
	v.SetDefault("purge_interval_hours", defaultPurgeIntervalHours)
	v.SetDefault("weather_cache_seconds", defaultWeatherCacheSeconds)
	v.SetDefault("assumed_draw_kw", defaultAssumedDrawKW)
	v.SetDefault("cycles_per_day", defaultCyclesPerDay)
	v.SetDefault("baseline_seconds_per_degree", defaultBaselinePerDegree)

	v.SetEnvPrefix("ECOBEECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("ECOBEECTL_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	} else {
		v.SetConfigName("ecobeectl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
			}
		}
	}

	// Flags override file and environment values
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.ClimateEntity == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "climate_entity is required")
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Mode != "cool" && c.Mode != "heat" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "mode must be cool or heat").WithData(c.Mode)
	}
	if c.DBPath == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "db_path is required")
	}
	if c.EnergyRate < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "energy_rate must not be negative")
	}
	if c.AlertThreshold <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "alert_threshold must be positive")
	}
	if c.LookbackDays <= 0 || c.RetentionDays <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "lookback_days and retention_days must be positive")
	}
	if c.WeatherCacheSeconds <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "weather_cache_seconds must be positive")
	}
	if c.WeatherAPIKey != "" && c.ZipCode == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "zip_code is required when weather_api_key is set")
	}
	if c.ZipCode != "" && c.WeatherAPIKey == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "weather_api_key is required when zip_code is set")
	}
	if !validLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
