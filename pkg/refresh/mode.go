package refresh

import (
	"strings"
	"time"
)

// Mode selects the polling cadence for a dashboard view.
type Mode string

const (
	// ModeOff disables automatic refreshing.
	ModeOff Mode = "off"
	// ModeEfficient polls every 30 seconds.
	ModeEfficient Mode = "efficient"
	// ModeLive polls every 10 seconds.
	ModeLive Mode = "live"
)

// ParseMode normalizes a mode string. Unknown values degrade to ModeOff so a
// stale or mistyped preference can never speed polling up.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeEfficient:
		return ModeEfficient
	case ModeLive:
		return ModeLive
	default:
		return ModeOff
	}
}

// Interval returns the polling period for the mode, or zero for ModeOff and
// any unrecognized value.
func (m Mode) Interval() time.Duration {
	switch m {
	case ModeEfficient:
		return 30 * time.Second
	case ModeLive:
		return 10 * time.Second
	default:
		return 0
	}
}
