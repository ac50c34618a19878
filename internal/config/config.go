// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads the chatroom server configuration.
//
// Sources are layered lowest to highest: built-in defaults, the YAML config
// file, environment variables (after loading .env), then command-line flags.
package config

import (
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/schema"
)

// Supported storage drivers.
const (
	DriverPgx  = "pgx"
	DriverGorm = "gorm"
)

// Environment variables read on top of the config file.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "CHATROOM_JWT_SECRET"
)

// Config is the complete server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" json:"http,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	Auth     AuthConfig     `koanf:"auth" json:"auth,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr,omitempty" jsonschema:"description=API listen address"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
}

// MetricsConfig configures the metrics and health listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// DatabaseConfig selects and configures the store.
type DatabaseConfig struct {
	URL             string        `koanf:"url" json:"url,omitempty"`
	Driver          string        `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=pgx,enum=gorm"`
	ConnectAttempts uint64        `koanf:"connect_attempts" json:"connect_attempts,omitempty"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" json:"connect_timeout,omitempty"`
}

// AuthConfig configures password hashing and session tokens.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret" json:"jwt_secret,omitempty"`
	TokenTTL  time.Duration `koanf:"token_ttl" json:"token_ttl,omitempty"`
	Argon2    Argon2Config  `koanf:"argon2" json:"argon2,omitempty"`
}

// Argon2Config overrides the argon2id cost parameters. Zero values keep the defaults.
type Argon2Config struct {
	Time      uint32 `koanf:"time" json:"time,omitempty"`
	MemoryKiB uint32 `koanf:"memory_kib" json:"memory_kib,omitempty"`
	Threads   uint8  `koanf:"threads" json:"threads,omitempty"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Params returns the argon2id parameters with overrides applied.
func (c Argon2Config) Params() auth.Argon2Params {
	p := auth.DefaultArgon2Params
	if c.Time > 0 {
		p.Time = c.Time
	}
	if c.MemoryKiB > 0 {
		p.Memory = c.MemoryKiB
	}
	if c.Threads > 0 {
		p.Threads = c.Threads
	}
	return p
}

var defaults = map[string]any{
	"http.addr":                 ":8080",
	"http.shutdown_timeout":     "10s",
	"metrics.addr":              "127.0.0.1:9100",
	"database.driver":           DriverPgx,
	"database.connect_attempts": uint64(10),
	"database.connect_timeout":  "30s",
	"auth.token_ttl":            auth.DefaultTokenTTL.String(),
	"log.format":                "json",
	"log.level":                 "info",
}

// flagKeys maps command-line flag names to config keys. Flags not listed are
// not configuration.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"database-url":    "database.url",
	"database-driver": "database.driver",
	"log-format":      "log.format",
	"log-level":       "log.level",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", "", "API listen address")
	fs.String("metrics-addr", "", "metrics and health listen address (empty disables)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("database-driver", "", "storage driver: pgx or gorm")
	fs.String("log-format", "", "log format: json or text")
	fs.String("log-level", "", "log level: debug, info, warn or error")
}

// LoadOptions tells Load where to read from.
type LoadOptions struct {
	// File is an optional YAML config file.
	File string
	// EnvFiles are .env files to load. Missing files are ignored.
	EnvFiles []string
	// Flags are the parsed command-line flags, if any.
	Flags *pflag.FlagSet
}

// Load builds the configuration from every source. It does not validate.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("file", opts.File).Wrap(err)
		}
		if err := fileValidator.ValidateYAML(data); err != nil {
			return nil, oops.With("file", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if err := loadEnv(k, opts.EnvFiles); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

func loadEnv(k *koanf.Koanf, envFiles []string) error {
	var present []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return oops.Code("CONFIG_READ_FAILED").With("files", present).Wrap(err)
		}
	}

	for env, key := range map[string]string{
		EnvDatabaseURL: "database.url",
		EnvJWTSecret:   "auth.jwt_secret",
	} {
		if val := os.Getenv(env); val != "" {
			if err := k.Set(key, val); err != nil {
				return oops.Code("CONFIG_INVALID").With("env", env).Wrap(err)
			}
		}
	}
	return nil
}

// minSecretLen is the shortest accepted HS256 signing secret.
const minSecretLen = 32

// Validate checks the configuration needed to serve.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return invalid("http.addr", "http.addr is required")
	case c.Database.URL == "":
		return invalid("database.url", "database.url is required (or set "+EnvDatabaseURL+")")
	case !slices.Contains([]string{DriverPgx, DriverGorm}, c.Database.Driver):
		return invalid("database.driver", "database.driver must be pgx or gorm")
	case len(c.Auth.JWTSecret) < minSecretLen:
		return invalid("auth.jwt_secret", "auth.jwt_secret must be at least 32 bytes (or set "+EnvJWTSecret+")")
	case c.Auth.TokenTTL <= 0:
		return invalid("auth.token_ttl", "auth.token_ttl must be positive")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "log.format must be json or text")
	}
	return nil
}

// ValidateDatabase checks only what database commands need.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database.url is required (or set "+EnvDatabaseURL+")")
	}
	return nil
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s", msg)
}

// SchemaID is the $id of the config file schema.
const SchemaID = "https://chatroom.holomush.dev/schemas/config.schema.json"

// Schema returns the JSON Schema of the YAML config file.
func Schema() ([]byte, error) {
	return schema.Generate(&Config{}, schema.Meta{
		ID:          SchemaID,
		Title:       "Chatroom Server Config",
		Description: "Schema for the chatroom YAML configuration file",
	})
}

var fileValidator = schema.NewValidator(Schema)
