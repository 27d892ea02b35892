package domain

import "time"

// Preferences is the persisted per-user dashboard configuration. It is a
// read-only input to the refresh scheduler: the scheduler receives it
// explicitly at construction (or via SetMode), never reads it ambiently.
type Preferences struct {
	// RefreshMode selects the scheduler interval: "off", "efficient" or "live".
	RefreshMode string `json:"refresh_mode" yaml:"refresh_mode"`
	// RefreshInterval overrides the mode's interval when positive.
	RefreshInterval time.Duration `json:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`
	// DemoMode serves seeded in-memory data instead of a live backend.
	DemoMode bool `json:"demo_mode" yaml:"demo_mode"`
}
