package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the opsdeck ASCII art banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Teal-to-indigo ramp, one color per row.
	s1 := termenv.String("                        _              _    ").Foreground(p.Color("#5eead4"))
	s2 := termenv.String("  ___   _ __   ___   __| |  ___   ___ | | __").Foreground(p.Color("#2dd4bf"))
	s3 := termenv.String(" / _ \\ | '_ \\ / __| / _` | / _ \\ / __|| |/ /").Foreground(p.Color("#22d3ee"))
	s4 := termenv.String("| (_) || |_) |\\__ \\| (_| ||  __/| (__ |   < ").Foreground(p.Color("#38bdf8"))
	s5 := termenv.String(" \\___/ | .__/ |___/ \\__,_| \\___| \\___||_|\\_\\").Foreground(p.Color("#60a5fa"))
	s6 := termenv.String("       |_|").Foreground(p.Color("#818cf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
