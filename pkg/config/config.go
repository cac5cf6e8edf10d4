package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/travigo/bods-client/pkg/util"
	"gopkg.in/yaml.v3"
)

const environmentPrefix = "BODS_"

// Current is the configuration loaded at start up by the command line.
var Current = defaults()

type Config struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxRetries uint64        `yaml:"max_retries"`

	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	Archive ArchiveConfig `yaml:"archive"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database" validate:"gte=0,lte=15"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// Enabled reports whether a Redis server has been configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type LoggingConfig struct {
	Format string `yaml:"format" validate:"omitempty,oneof=JSON CONSOLE"`
	Debug  bool   `yaml:"debug"`
	File   string `yaml:"file"`
}

type ArchiveConfig struct {
	Path string `yaml:"path"`
}

var ErrMissingAPIKey = errors.New("no BODS api key configured, set BODS_API_KEY or api_key")

func defaults() *Config {
	return &Config{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		Redis: RedisConfig{
			CacheTTL: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Format: "CONSOLE",
		},
		Archive: ArchiveConfig{
			Path: "bods-archive.sqlite",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// any .env files and finally BODS_ prefixed environment variables. Missing
// .env files are ignored; a missing YAML file is only an error when path is
// set.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvironment(util.GetEnvironmentVariables(environmentPrefix)); err != nil {
		return nil, err
	}

	cfg.Logging.Format = strings.ToUpper(cfg.Logging.Format)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["BODS_API_KEY"] != "" {
		c.APIKey = env["BODS_API_KEY"]
	}
	if env["BODS_BASE_URL"] != "" {
		c.BaseURL = env["BODS_BASE_URL"]
	}

	if env["BODS_REDIS_ADDRESS"] != "" {
		c.Redis.Address = env["BODS_REDIS_ADDRESS"]
	}
	if env["BODS_REDIS_PASSWORD"] != "" {
		c.Redis.Password = env["BODS_REDIS_PASSWORD"]
	}
	if env["BODS_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["BODS_REDIS_DATABASE"])
		if err != nil {
			return fmt.Errorf("BODS_REDIS_DATABASE: %w", err)
		}
		c.Redis.Database = n
	}

	if env["BODS_LOG_FORMAT"] != "" {
		c.Logging.Format = env["BODS_LOG_FORMAT"]
	}
	if env["BODS_DEBUG"] == "YES" {
		c.Logging.Debug = true
	}
	if env["BODS_LOG_FILE"] != "" {
		c.Logging.File = env["BODS_LOG_FILE"]
	}

	return nil
}

// RequireAPIKey is checked by the commands that talk to the API.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	return nil
}
