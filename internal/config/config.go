// Package config loads and validates the mbxsync configuration file: a
// JSON document with ${VAR} environment substitution applied before
// parsing. The result is an explicit validated structure passed by value
// into the engine; the core holds no global configuration state.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mt-climate-office/mbxsync/internal/backends"
	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Backend types accepted in the configuration.
var supportedBackends = []string{"airtable", "baserow", "nocodb"}

// Config is the root configuration document.
type Config struct {
	Backend       BackendConfig     `mapstructure:"backend"`
	Database      DatabaseConfig    `mapstructure:"database"`
	TableMappings map[string]string `mapstructure:"table_mappings"`
	SyncOptions   SyncOptions       `mapstructure:"sync_options"`
}

// BackendConfig selects and parameterizes the inventory backend.
type BackendConfig struct {
	Type    string            `mapstructure:"type"`
	Options map[string]string `mapstructure:"config"`
}

// DatabaseConfig describes the relational store connection.
type DatabaseConfig struct {
	// Driver is "postgres" (default) or "sqlite" for local mode.
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// Schema is the PostgreSQL schema holding the mirrored tables.
	Schema string `mapstructure:"schema"`
	// Path is the sqlite database file for local mode.
	Path string `mapstructure:"path"`
}

// SyncOptions bound the sync run.
type SyncOptions struct {
	BatchSize     int `mapstructure:"batch_size"`
	TimeoutSecs   int `mapstructure:"timeout"`
	RetryAttempts int `mapstructure:"retry_attempts"`
}

// Timeout returns the operation timeout as a duration.
func (o SyncOptions) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// Defaults applied before the file is read.
const (
	defaultBatchSize     = 100
	defaultTimeoutSecs   = 30
	defaultRetryAttempts = 3
	defaultSchema        = "network"
	defaultPort          = 5432
)

// Load reads the configuration file, substitutes ${VAR} references from
// the environment, parses, and validates. Any failure is a
// *types.ConfigurationError; nothing runs on a bad configuration.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &types.ConfigurationError{Err: err}
	}

	expanded, err := substituteEnv(string(raw))
	if err != nil {
		return Config{}, &types.ConfigurationError{Err: err}
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("database.port", defaultPort)
	v.SetDefault("database.driver", string(store.DialectPostgres))
	v.SetDefault("database.schema", defaultSchema)
	v.SetDefault("sync_options.batch_size", defaultBatchSize)
	v.SetDefault("sync_options.timeout", defaultTimeoutSecs)
	v.SetDefault("sync_options.retry_attempts", defaultRetryAttempts)
	if err := v.ReadConfig(bytes.NewReader([]byte(expanded))); err != nil {
		return Config{}, &types.ConfigurationError{Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &types.ConfigurationError{Err: fmt.Errorf("unmarshal %s: %w", path, err)}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnv replaces ${VAR} references with environment values. An
// unset variable is an error rather than an empty credential.
func substituteEnv(text string) (string, error) {
	var missing []string
	out := envRef.ReplaceAllStringFunc(text, func(ref string) string {
		name := envRef.FindStringSubmatch(ref)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unset environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Validate checks the configuration against the documented bounds.
func (c Config) Validate() error {
	if err := c.Backend.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	return c.SyncOptions.validate()
}

func (b BackendConfig) validate() error {
	switch b.Type {
	case "airtable":
		return b.requireOptions("api_key", "base_id")
	case "baserow", "nocodb":
		return b.requireOptions("api_key", "base_url")
	default:
		return &types.ConfigurationError{
			Field: "backend.type",
			Err:   fmt.Errorf("must be one of %s", strings.Join(supportedBackends, ", ")),
		}
	}
}

func (b BackendConfig) requireOptions(keys ...string) error {
	for _, key := range keys {
		if b.Options[key] == "" {
			return &types.ConfigurationError{
				Field: "backend.config." + key,
				Err:   errors.New("required for backend type " + b.Type),
			}
		}
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	switch store.Dialect(d.Driver) {
	case store.DialectSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return &types.ConfigurationError{Field: "database.path", Err: errors.New("required for sqlite driver")}
		}
		return nil
	case store.DialectPostgres:
		if strings.TrimSpace(d.Host) == "" {
			return &types.ConfigurationError{Field: "database.host", Err: errors.New("cannot be empty")}
		}
		if d.Port < 1 || d.Port > 65535 {
			return &types.ConfigurationError{Field: "database.port", Err: errors.New("must be between 1 and 65535")}
		}
		if strings.TrimSpace(d.Database) == "" || strings.TrimSpace(d.Username) == "" {
			return &types.ConfigurationError{Field: "database", Err: errors.New("database and username cannot be empty")}
		}
		return nil
	default:
		return &types.ConfigurationError{Field: "database.driver", Err: fmt.Errorf("unknown driver %q", d.Driver)}
	}
}

func (o SyncOptions) validate() error {
	if o.BatchSize < 1 || o.BatchSize > 1000 {
		return &types.ConfigurationError{Field: "sync_options.batch_size", Err: errors.New("must be between 1 and 1000")}
	}
	if o.TimeoutSecs < 1 || o.TimeoutSecs > 300 {
		return &types.ConfigurationError{Field: "sync_options.timeout", Err: errors.New("must be between 1 and 300 seconds")}
	}
	if o.RetryAttempts < 0 || o.RetryAttempts > 10 {
		return &types.ConfigurationError{Field: "sync_options.retry_attempts", Err: errors.New("must be between 0 and 10")}
	}
	return nil
}

// NewBackend constructs the configured backend adapter. The sync timeout
// bounds each backend HTTP request.
func (c Config) NewBackend() (backends.Backend, error) {
	opts := c.Backend.Options
	client := &http.Client{Timeout: c.SyncOptions.Timeout()}
	switch c.Backend.Type {
	case "airtable":
		a := backends.NewAirtable(opts["api_key"], opts["base_id"])
		a.Client = client
		return a, nil
	case "baserow":
		b := backends.NewBaserow(opts["api_key"], opts["base_url"])
		b.Client = client
		return b, nil
	case "nocodb":
		n := backends.NewNocoDB(opts["api_key"], opts["base_url"])
		n.Client = client
		return n, nil
	default:
		return nil, &types.ConfigurationError{Field: "backend.type", Err: fmt.Errorf("unknown type %q", c.Backend.Type)}
	}
}

// StoreOptions translates the database section into store.Options.
func (c Config) StoreOptions() store.Options {
	d := c.Database
	if store.Dialect(d.Driver) == store.DialectSQLite {
		return store.Options{
			Dialect:        store.DialectSQLite,
			DSN:            d.Path,
			ConnectTimeout: c.SyncOptions.Timeout(),
		}
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Database,
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return store.Options{
		Dialect:        store.DialectPostgres,
		DSN:            u.String(),
		Schema:         d.Schema,
		ConnectTimeout: c.SyncOptions.Timeout(),
	}
}

// BackendTable resolves the backend table name for a relational table,
// preferring the configured mapping over the registry default.
func (c Config) BackendTable(table, registryDefault string) string {
	if name, ok := c.TableMappings[table]; ok && name != "" {
		return name
	}
	return registryDefault
}
