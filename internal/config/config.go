// Package config loads the opsdeck configuration file. Absent values fall
// back to defaults, and a missing file is not an error: the zero setup (demo
// against localhost) should work with no file at all. Command-line flags
// override whatever the file says.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full opsdeck configuration.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Refresh  Refresh  `yaml:"refresh"`
	Redis    Redis    `yaml:"redis"`
	Server   Server   `yaml:"server"`
	Webhooks Webhooks `yaml:"webhooks"`
	// Demo serves seeded in-memory data instead of calling the backend.
	Demo bool `yaml:"demo"`
	// Debug lowers the log level to debug.
	Debug bool `yaml:"debug"`
}

// Backend locates the collaborator services. They share one base URL; the
// resource clients add their own route prefixes.
type Backend struct {
	URL string `yaml:"url"`
}

// Refresh configures the dashboard's polling cadence.
type Refresh struct {
	// Mode is "off", "efficient" or "live".
	Mode string `yaml:"mode"`
	// Interval overrides the mode's cadence when positive, e.g. "45s".
	Interval Duration `yaml:"interval"`
}

// Redis locates the preference store. An empty Addr disables it; preferences
// then live in memory for the session.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Server configures the demo API server.
type Server struct {
	Listen string `yaml:"listen"`
}

// Webhooks locates the per-tool webhook configs served by the demo API.
type Webhooks struct {
	ToolsDir string `yaml:"tools_dir"`
}

// Duration decodes YAML strings like "30s" or "2m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file (or a partial file) is
// present.
func Default() Config {
	return Config{
		Backend:  Backend{URL: "http://localhost:8000"},
		Refresh:  Refresh{Mode: "efficient"},
		Redis:    Redis{KeyPrefix: "opsdeck:prefs:"},
		Server:   Server{Listen: ":8080"},
		Webhooks: Webhooks{ToolsDir: "config/webhooks/tools"},
	}
}

// Load reads the configuration at path, overlaying it on the defaults. A
// missing file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LogLevel maps the debug switch onto a slog level.
func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
