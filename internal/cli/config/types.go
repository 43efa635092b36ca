// Package config loads run-examples configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// run-examples.yaml file, RUN_EXAMPLES_* environment variables, and
// explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapcheck/internal/uploader"
)

// TargetConfig describes a database as individual fields, as an
// alternative to a database URL.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Database string            `koanf:"database"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	// Params holds adapter-specific settings (DuckDB extensions, secrets).
	Params map[string]any `koanf:"params"`
}

// StorageConfig configures object storage report sinks.
type StorageConfig struct {
	S3  uploader.S3Config  `koanf:"s3"`
	GCS uploader.GCSConfig `koanf:"gcs"`
}

// Config holds all run-examples options.
type Config struct {
	DatabaseURL string        `koanf:"database_url"`
	Target      *TargetConfig `koanf:"target"`

	// Catalogs are YAML or Markdown catalog files or directories. Empty
	// selects the built-in tutorials.
	Catalogs []string `koanf:"catalogs"`
	Only     []string `koanf:"only"`

	// Timeout is the per-statement limit in seconds.
	Timeout       float64 `koanf:"timeout"`
	DecimalPlaces int     `koanf:"decimal_places"`
	// ReleaseStatements run best-effort when the session closes.
	ReleaseStatements []string `koanf:"release_statements"`

	Output  string   `koanf:"output"`
	Reports []string `koanf:"reports"`
	History string   `koanf:"history"`
	Watch   bool     `koanf:"watch"`
	Verbose bool     `koanf:"verbose"`

	Storage StorageConfig `koanf:"storage"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// TimeoutDuration converts Timeout to a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// Default configuration values.
const (
	DefaultTimeout       = 30.0
	DefaultDecimalPlaces = 2
	DefaultOutput        = "auto" // TTY=text, piped=markdown
	EnvPrefix            = "RUN_EXAMPLES_"
)

// ConfigFileNames are searched, in order, from the working directory upward.
var ConfigFileNames = []string{"run-examples.yaml", "run-examples.yml"}
