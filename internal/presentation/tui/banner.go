package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the generator.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient, teal to violet
	s1 := termenv.String("    ___   ____    ___ ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String("   / _ | / __ \\  / _ |").Foreground(p.Color("#38bdf8"))
	s3 := termenv.String("  / __ |/ /_/ / / __ |").Foreground(p.Color("#818cf8"))
	s4 := termenv.String(" /_/ |_|\\___\\_\\/_/ |_|").Foreground(p.Color("#a78bfa"))
	s5 := termenv.String("  compositional question synthesis").Foreground(p.Color("#c084fc"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
