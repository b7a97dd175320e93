// Package config loads server configuration. Sources are layered, later ones
// winning: built-in defaults, an optional YAML file, CLIENT_URL, VAULTCONNECT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/Lekka141/VaultConnect/internal/crypto"
	"github.com/Lekka141/VaultConnect/internal/server"
	"github.com/Lekka141/VaultConnect/internal/server/jwt"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: VAULTCONNECT_AUTH__TOKEN_TTL sets auth.token_ttl.
const EnvPrefix = "VAULTCONNECT_"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrSecretMissing is returned when no signing secret is configured.
	ErrSecretMissing = errors.New("auth.secret is required")

	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the complete server configuration.
type Config struct {
	Server        server.Config       `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Storage       StorageConfig       `koanf:"storage"`
	Log           LogConfig           `koanf:"log"`
	Auth          AuthConfig          `koanf:"auth"`
	Hash          HashConfig          `koanf:"hash"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// HashConfig configures password hashing and its worker bound.
type HashConfig struct {
	crypto.HasherConfig `koanf:",squash"`
	Workers             int `koanf:"workers"`
}

// StorageConfig selects the account store.
type StorageConfig struct {
	Driver         string        `koanf:"driver"`
	DSN            string        `koanf:"dsn"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig configures the metrics listener. An empty Addr disables it.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

func defaults() map[string]any {
	srv := server.DefaultConfig()
	hash := crypto.DefaultHasherConfig()

	return map[string]any{
		"server.addr":             srv.Addr,
		"server.read_timeout":     srv.ReadTimeout,
		"server.write_timeout":    srv.WriteTimeout,
		"server.idle_timeout":     srv.IdleTimeout,
		"server.shutdown_timeout": srv.ShutdownTimeout,
		"server.cors_origins":     []string{},

		"observability.addr": "127.0.0.1:9090",

		"storage.driver":          DriverSQLite,
		"storage.dsn":             "vaultconnect.db",
		"storage.connect_timeout": 30 * time.Second,

		"log.level":  "info",
		"log.format": "json",

		"auth.secret":    "",
		"auth.token_ttl": time.Hour,

		"hash.algorithm":       hash.Algorithm,
		"hash.argon2.memory":   hash.Argon2.Memory,
		"hash.argon2.time":     hash.Argon2.Time,
		"hash.argon2.threads":  hash.Argon2.Threads,
		"hash.argon2.salt_len": hash.Argon2.SaltLen,
		"hash.argon2.key_len":  hash.Argon2.KeyLen,
		"hash.bcrypt_cost":     hash.BcryptCost,
		"hash.workers":         runtime.GOMAXPROCS(0),
	}
}

// RegisterFlags adds the command-line overrides to fs. Flag names are
// config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("server.addr", ":8080", "API listen address")
	fs.String("observability.addr", "127.0.0.1:9090", "metrics listen address (empty disables)")
	fs.String("storage.driver", DriverSQLite, "account store: sqlite or postgres")
	fs.String("storage.dsn", "vaultconnect.db", "sqlite file path or postgres URL")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.format", "json", "log format: json or text")
	fs.Duration("auth.token_ttl", time.Hour, "session token lifetime")
	fs.Int("hash.workers", runtime.GOMAXPROCS(0), "concurrent password hash operations")
}

// Load builds a Config from every source and validates it. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := Read(fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds a Config from every source without validating it, for
// commands such as migrate that need only part of it.
func Read(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	var path string
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	clientURL := env.ProviderWithValue("CLIENT_URL", ".", func(key, value string) (string, any) {
		if key != "CLIENT_URL" || value == "" {
			return "", nil
		}
		return "server.cors_origins", splitList(value)
	})
	if err := k.Load(clientURL, nil); err != nil {
		return nil, fmt.Errorf("load CLIENT_URL: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "server.cors_origins" {
		return key, splitList(value)
	}
	return key, value
}

func flagKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if f.Name == "config" {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return ErrSecretMissing
	}
	if len(c.Auth.Secret) < jwt.MinSecretLen {
		return fmt.Errorf("%w: auth.secret must be at least %d bytes", ErrInvalidConfig, jwt.MinSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", ErrInvalidConfig)
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("%w: log.format must be 'json' or 'text', got %q", ErrInvalidConfig, c.Log.Format)
	}

	if _, err := crypto.NewHasher(c.Hash.HasherConfig); err != nil {
		return fmt.Errorf("%w: hash: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Validate checks the driver and DSN.
func (c StorageConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: storage.driver must be %q or %q, got %q", ErrInvalidConfig, DriverSQLite, DriverPostgres, c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required", ErrInvalidConfig)
	}
	return nil
}
