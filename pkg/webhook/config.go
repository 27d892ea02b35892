// Package webhook normalizes inbound events from integrated DevOps tools.
// All tool differences live in per-tool YAML configs: how a delivery is
// verified, how its event type is recognized, and which payload fields map
// into the normalized event. One Adapter handles every tool; adding a tool
// means adding a config file, not code.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Verification methods a tool config may declare.
const (
	VerifyHMACSHA256 = "hmac-sha256"
	VerifyToken      = "token"
	VerifySignature  = "signature"
	VerifyNone       = "none"
)

// ErrToolNotFound is returned when no config exists for a tool ID.
var ErrToolNotFound = errors.New("webhook tool not found")

// ToolConfig describes one integrated tool.
type ToolConfig struct {
	Version     string       `yaml:"version" json:"version"`
	Type        string       `yaml:"type" json:"type"`
	Metadata    ToolMetadata `yaml:"metadata" json:"metadata"`
	Integration Integration  `yaml:"integration" json:"integration"`
	Features    Features     `yaml:"features" json:"features"`
}

// ToolMetadata identifies the tool.
type ToolMetadata struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
}

// Integration holds the tool's inbound wiring.
type Integration struct {
	Webhooks Webhooks `yaml:"webhooks" json:"webhooks"`
}

// Webhooks configures delivery verification and event recognition.
type Webhooks struct {
	Enabled      bool                   `yaml:"enabled" json:"enabled"`
	Endpoint     string                 `yaml:"endpoint" json:"endpoint"`
	Verification Verification           `yaml:"verification" json:"verification"`
	Events       map[string]EventConfig `yaml:"events" json:"events"`
}

// Verification declares how deliveries prove their origin. Secret holds the
// name of an environment variable, never the secret itself, so configs stay
// safe to commit.
type Verification struct {
	Method       string `yaml:"method" json:"method"`
	Header       string `yaml:"header" json:"header"`
	SecretEnvVar string `yaml:"secret_env_var" json:"secret_env_var"`
}

// EventConfig recognizes one event type and maps its payload fields. A
// DataMapping value starting with "$." is a payload path; anything else is a
// literal copied through as-is.
type EventConfig struct {
	HTTPEventHeader string            `yaml:"http_event_header" json:"http_event_header"`
	HeaderValue     string            `yaml:"header_value" json:"header_value"`
	DataMapping     map[string]string `yaml:"data_mapping" json:"data_mapping"`
}

// Features toggles what processing a tool's events receive.
type Features struct {
	// AutoJobCreation enqueues a build job for every push event.
	AutoJobCreation bool `yaml:"auto_job_creation" json:"auto_job_creation"`
}

// Validate reports structural problems a tool config carries.
func (c *ToolConfig) Validate() error {
	if c.Metadata.ID == "" {
		return fmt.Errorf("webhook config: metadata.id is required")
	}
	v := c.Integration.Webhooks.Verification
	switch v.Method {
	case VerifyHMACSHA256, VerifyToken, VerifySignature:
		if v.SecretEnvVar == "" {
			return fmt.Errorf("webhook config %q: secret_env_var required for %s verification", c.Metadata.ID, v.Method)
		}
	case VerifyNone:
	default:
		return fmt.Errorf("webhook config %q: unknown verification method %q", c.Metadata.ID, v.Method)
	}
	if len(c.Integration.Webhooks.Events) == 0 {
		return fmt.Errorf("webhook config %q: no events declared", c.Metadata.ID)
	}
	return nil
}

// ConfigStore loads tool configs from a public directory and an optional
// private one. Private configs live outside version control and shadow
// nothing: the public directory is checked first.
type ConfigStore struct {
	dir        string
	privateDir string
}

// StoreOption adjusts a ConfigStore at construction.
type StoreOption func(*ConfigStore)

// WithPrivateDir adds a second directory searched after the public one.
func WithPrivateDir(dir string) StoreOption {
	return func(cs *ConfigStore) { cs.privateDir = dir }
}

// NewConfigStore creates a store over the given tools directory.
func NewConfigStore(dir string, opts ...StoreOption) *ConfigStore {
	cs := &ConfigStore{dir: dir}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// LoadConfig reads and validates the config for toolID. YAML is the primary
// format with JSON as a fallback; the public directory wins over the private
// one. A missing tool returns ErrToolNotFound.
func (cs *ConfigStore) LoadConfig(toolID string) (*ToolConfig, error) {
	path, ok := cs.findConfig(toolID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("webhook config: reading %s: %w", path, err)
	}

	var cfg ToolConfig
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("webhook config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListTools returns the IDs of every configured tool, sorted.
func (cs *ConfigStore) ListTools() ([]string, error) {
	seen := make(map[string]struct{})
	for _, dir := range []string{cs.dir, cs.privateDir} {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("webhook config: listing %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			ext := filepath.Ext(name)
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				continue
			}
			seen[strings.TrimSuffix(name, ext)] = struct{}{}
		}
	}

	tools := make([]string, 0, len(seen))
	for id := range seen {
		tools = append(tools, id)
	}
	sort.Strings(tools)
	return tools, nil
}

func (cs *ConfigStore) findConfig(toolID string) (string, bool) {
	for _, dir := range []string{cs.dir, cs.privateDir} {
		if dir == "" {
			continue
		}
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			path := filepath.Join(dir, toolID+ext)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}
