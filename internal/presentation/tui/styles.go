package tui

import (
	"strings"

	"github.com/muesli/termenv"
)

// statusColors maps lifecycle states to the hex colors shared by every view.
var statusColors = map[string]string{
	"success":   "#34d399",
	"completed": "#34d399",
	"healthy":   "#34d399",
	"live":      "#34d399",

	"running": "#38bdf8",
	"staging": "#38bdf8",
	"claimed": "#38bdf8",

	"queued":  "#fbbf24",
	"pending": "#fbbf24",
	"staged":  "#fbbf24",

	"degraded": "#fb923c",

	"failed":        "#f87171",
	"dead_lettered": "#f87171",
	"offline":       "#f87171",
	"rolled_back":   "#f87171",
	"error":         "#f87171",
	"timeout":       "#f87171",

	"cancelled": "#9ca3af",
}

// Status renders a lifecycle state in its conventional color. Surrounding
// padding is kept so table cells stay aligned; unknown states come back
// uncolored.
func Status(status string) string {
	hex, ok := statusColors[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return status
	}
	p := termenv.ColorProfile()
	return termenv.String(status).Foreground(p.Color(hex)).String()
}

// Dim renders secondary text such as timestamps and IDs.
func Dim(s string) string {
	return termenv.String(s).Faint().String()
}

// Bold renders section titles.
func Bold(s string) string {
	return termenv.String(s).Bold().String()
}

// Warn renders inline error banners.
func Warn(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#f87171")).String()
}
