package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/pkg/adapter"
)

// ErrNoDatabase is returned when neither a database URL nor a target is
// configured.
var ErrNoDatabase = errors.New("no database configured: pass --database-url, set RUN_EXAMPLES_DATABASE_URL, or add a target to run-examples.yaml")

// Validate checks values that do not need a database.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 18 {
		return fmt.Errorf("decimal_places must be between 0 and 18, got %d", c.DecimalPlaces)
	}
	if _, err := output.ParseMode(c.Output); err != nil {
		return err
	}
	if c.Target != nil {
		if err := c.Target.Validate(); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// Validate checks the target's adapter type against the registry.
func (t *TargetConfig) Validate() error {
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("target type is required")
	}
	name := adapter.NormalizeType(t.Type)
	if !adapter.IsRegistered(name) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// AdapterConfig returns the connection settings. A database URL takes
// precedence over a target block.
func (c *Config) AdapterConfig() (adapter.Config, error) {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		cfg, err := adapter.ParseURL(c.DatabaseURL)
		if err != nil {
			return adapter.Config{}, err
		}
		if c.Target != nil && len(c.Target.Params) > 0 && adapter.NormalizeType(c.Target.Type) == cfg.Type {
			cfg.Params = c.Target.Params
		}
		return cfg, nil
	}
	if c.Target == nil {
		return adapter.Config{}, ErrNoDatabase
	}

	t := c.Target
	cfg := adapter.Config{
		Type:     adapter.NormalizeType(t.Type),
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
	switch cfg.Type {
	case "duckdb", "sqlite":
		cfg.Path = t.Database
		if cfg.Path == "" {
			cfg.Path = ":memory:"
			cfg.Database = ":memory:"
		}
	case "postgres":
		if cfg.Port == 0 {
			cfg.Port = 5432
		}
	case "mysql":
		if cfg.Port == 0 {
			cfg.Port = 3306
		}
	}
	return cfg, nil
}

// DatabaseLabel describes the configured database without credentials.
func (c *Config) DatabaseLabel() string {
	if c.DatabaseURL != "" {
		return adapter.Redact(c.DatabaseURL)
	}
	if c.Target == nil {
		return ""
	}
	t := c.Target
	switch adapter.NormalizeType(t.Type) {
	case "duckdb", "sqlite":
		db := t.Database
		if db == "" {
			db = ":memory:"
		}
		return adapter.NormalizeType(t.Type) + "://" + db
	default:
		host := t.Host
		if t.Port != 0 {
			host = fmt.Sprintf("%s:%d", host, t.Port)
		}
		return fmt.Sprintf("%s://%s/%s", adapter.NormalizeType(t.Type), host, t.Database)
	}
}
