package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SPENDLOG_HTTP_PORT.
const EnvPrefix = "SPENDLOG_"

type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Log       Log       `koanf:"log"`
	Storage   Storage   `koanf:"storage"`
	AMQP      AMQP      `koanf:"amqp"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type HTTP struct {
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type Log struct {
	Level string `koanf:"level"`
}

// Storage selects where the expense list is kept.
type Storage struct {
	Backend    string `koanf:"backend"`
	DataDir    string `koanf:"datadir"`
	SQLitePath string `koanf:"sqlitepath"`
	Key        string `koanf:"key"`
}

// AMQP is optional; change notifications are off when URL is empty.
type AMQP struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	Queue    string `koanf:"queue"`
}

type RateLimit struct {
	PerMinute int `koanf:"perminute"`
}

// Backends lists the accepted storage.backend values.
var Backends = []string{"memory", "file", "sqlite"}

func Default() Config {
	return Config{
		HTTP: HTTP{
			Port:            "8081",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info"},
		Storage: Storage{
			Backend:    "file",
			DataDir:    "./data",
			SQLitePath: "./data/spendlog.db",
			Key:        "smart_expense_tracker_data",
		},
		AMQP: AMQP{
			Exchange: "spendlog",
			Queue:    "expense_changes",
		},
		RateLimit: RateLimit{PerMinute: 60},
	}
}

// Load layers defaults, the YAML file at path (if present) and SPENDLOG_*
// environment variables, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", path, err)
			}
			slog.Info("Config file not found, using defaults and environment", "path", path)
		} else {
			slog.Info("Loaded configuration from file", "path", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.HTTP.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.HTTP.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.HTTP.ShutdownTimeout))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.Log.Level))
	}

	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.DataDir == "" {
			problems = append(problems, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if filepath.Ext(c.Storage.SQLitePath) == "" {
			problems = append(problems, fmt.Sprintf("SQLite database path '%s' needs a file extension", c.Storage.SQLitePath))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.Storage.Backend, Backends))
	}
	if c.Storage.Key == "" || strings.ContainsAny(c.Storage.Key, `/\`) || strings.HasPrefix(c.Storage.Key, ".") {
		problems = append(problems, fmt.Sprintf("invalid storage key '%s'", c.Storage.Key))
	}

	if c.AMQP.URL != "" {
		if parsed, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimit.PerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit.PerMinute))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether change notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQP.URL != ""
}
