// Package config loads the optional imagemosaic.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const FileName = "imagemosaic.yaml"

type ConnectionConfig struct {
	URI      string `yaml:"uri,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

type LoadConfig struct {
	Layer           string   `yaml:"layer,omitempty"`
	Threads         int      `yaml:"threads,omitempty"`
	QueueSize       int      `yaml:"queue_size,omitempty"`
	OpenTimeout     Duration `yaml:"open_timeout,omitempty"`
	Timeout         Duration `yaml:"timeout,omitempty"`
	Lenient         *bool    `yaml:"lenient,omitempty"`
	Dedupe          *bool    `yaml:"dedupe,omitempty"`
	IngestionColumn string   `yaml:"ingestion_column,omitempty"`
	WriteRetries    *int     `yaml:"write_retries,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway,omitempty"`
	Job         string `yaml:"job,omitempty"`
}

type FileConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Load       LoadConfig       `yaml:"load"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Duration accepts Go duration strings such as "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration %q cannot be negative", node.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads and strictly decodes the YAML file at path. Unknown keys are an
// error so that a misspelt setting is not silently ignored.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", mosaic.ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}
