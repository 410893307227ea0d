package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/glabrego/busybird-cli/internal/busybird"
)

const (
	envPrefix      = "BUSYBIRD"
	defaultBaseURL = "http://127.0.0.1:5000"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	BaseURL        string
	Timeline       string
	DBPath         string
	LogFile        string
	RequestTimeout time.Duration
	PollLevel      string
	CountsLevelNum int
	// Format selects statuses.html ("html") or statuses.json ("json").
	Format string
}

// Load reads settings from BUSYBIRD_* environment variables and an optional
// config.yaml, environment first. Callers apply their overrides and then
// call Validate.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("timeline", "home")
	v.SetDefault("db_path", "busybird.db")
	v.SetDefault("log_file", "busybird.log")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("poll_level", busybird.TotalKey)
	v.SetDefault("counts_level_num", 2)
	v.SetDefault("format", "html")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv(envPrefix + "_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	if dir, err := homedir.Expand("~/.config/busybird"); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		BaseURL:        v.GetString("base_url"),
		Timeline:       v.GetString("timeline"),
		DBPath:         v.GetString("db_path"),
		LogFile:        v.GetString("log_file"),
		RequestTimeout: v.GetDuration("request_timeout"),
		PollLevel:      v.GetString("poll_level"),
		CountsLevelNum: v.GetInt("counts_level_num"),
		Format:         strings.ToLower(v.GetString("format")),
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BUSYBIRD_BASE_URL is required")
	}
	if c.BaseURL[len(c.BaseURL)-1] == '/' {
		return fmt.Errorf("BaseURL must not end with '/': %s", c.BaseURL)
	}
	if c.Timeline == "" {
		return errors.New("BUSYBIRD_TIMELINE is required")
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be positive: %s", c.RequestTimeout)
	}
	if !busybird.ValidLevel(c.PollLevel) {
		return fmt.Errorf("PollLevel must be total or a number: %s", c.PollLevel)
	}
	if c.CountsLevelNum <= 0 {
		return fmt.Errorf("CountsLevelNum must be positive: %d", c.CountsLevelNum)
	}
	if c.Format != "html" && c.Format != "json" {
		return fmt.Errorf("Format must be html or json: %s", c.Format)
	}
	return nil
}

func (c Config) StatusFormat() busybird.Format {
	if c.Format == "json" {
		return busybird.FormatJSON
	}
	return busybird.FormatHTML
}
