package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultSerialBaud   = 9600
	defaultContextLines = 3
)

// Config is the content of a tickc.yaml project file.
type Config struct {
	// Output is the generated sketch path, relative to the config file.
	Output string `yaml:"output,omitempty"`

	// Includes are emitted as #include lines on top of the sketch.
	Includes []string `yaml:"includes,omitempty"`

	// SerialBaud is passed to Serial.begin when the program prints.
	SerialBaud int `yaml:"serial_baud,omitempty"`

	Diagnostics DiagnosticsConfig `yaml:"diagnostics,omitempty"`

	// path is where the config was read from, empty for the default config.
	path string
}

type DiagnosticsConfig struct {
	// ContextLines is the number of source lines printed above an error.
	ContextLines *int `yaml:"context_lines,omitempty"`

	// Color is one of auto, always or never.
	Color ColorMode `yaml:"color,omitempty"`
}

// DefaultConfig is used when no project file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a tickc.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses tickc.yaml content, path is only used in error messages and to resolve output.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	cfg.path = path
	return &cfg, nil
}

// FindConfig searches for tickc.yaml starting from dir and walking up to parent directories.
// It returns an empty path and no error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"tickc.yaml", "tickc.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if c.SerialBaud < 0 {
		return fmt.Errorf("%s: serial_baud must be positive, got %d", path, c.SerialBaud)
	}
	if c.Diagnostics.ContextLines != nil && *c.Diagnostics.ContextLines < 0 {
		return fmt.Errorf("%s: diagnostics.context_lines must not be negative", path)
	}
	switch c.Diagnostics.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: diagnostics.color must be auto, always or never, got %q", path,
			c.Diagnostics.Color)
	}
	for i, include := range c.Includes {
		if strings.TrimSpace(include) == "" {
			return fmt.Errorf("%s: includes[%d] is empty", path, i)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.SerialBaud == 0 {
		c.SerialBaud = defaultSerialBaud
	}
	if c.Diagnostics.ContextLines == nil {
		lines := defaultContextLines
		c.Diagnostics.ContextLines = &lines
	}
	if c.Diagnostics.Color == "" {
		c.Diagnostics.Color = ColorAuto
	}
}

// OutputPath returns where the sketch of source is written.
func (c *Config) OutputPath(source string) string {
	if c.Output == "" {
		return strings.TrimSuffix(source, filepath.Ext(source)) + ".ino"
	}
	if filepath.IsAbs(c.Output) || c.path == "" {
		return c.Output
	}
	return filepath.Join(filepath.Dir(c.path), c.Output)
}

func (c *Config) RenderOptions() RenderOptions {
	return RenderOptions{ContextLines: *c.Diagnostics.ContextLines, Color: c.Diagnostics.Color}
}

func (c *Config) GenerateOptions() GenerateOptions {
	return GenerateOptions{Includes: c.Includes, SerialBaud: c.SerialBaud}
}
