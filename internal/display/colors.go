// Package display renders invoices, customers, backups, and storage usage
// for the terminal, with color and width detection.
package display

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color identifies a semantic output color
type Color string

const (
	ColorReset   Color = "reset"
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorBlue    Color = "blue"
	ColorMagenta Color = "magenta"
	ColorCyan    Color = "cyan"
	ColorBold    Color = "bold"
	ColorDim     Color = "dim"
)

// ColorSystem handles color application and terminal detection
type ColorSystem interface {
	Colorize(text string, c Color) string
	Sprintf(c Color, format string, args ...interface{}) string
	IsColorSupported() bool
}

// colorSystem implements ColorSystem interface
type colorSystem struct {
	colorSupported bool
	profile        termenv.Profile
	colorMap       map[Color]*color.Color
}

// NewColorSystem creates a new color system with terminal detection
func NewColorSystem() ColorSystem {
	cs := &colorSystem{
		colorSupported: detectColorSupport(),
		profile:        termenv.ColorProfile(),
	}
	cs.initializeColorMap()
	return cs
}

// detectColorSupport checks if the terminal supports colors
func detectColorSupport() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// initializeColorMap sets up the mapping between Color constants and fatih/color colors
func (cs *colorSystem) initializeColorMap() {
	cs.colorMap = map[Color]*color.Color{
		ColorReset:   color.New(color.Reset),
		ColorRed:     color.New(color.FgRed),
		ColorGreen:   color.New(color.FgGreen),
		ColorYellow:  color.New(color.FgYellow),
		ColorBlue:    color.New(color.FgBlue),
		ColorMagenta: color.New(color.FgMagenta),
		ColorCyan:    color.New(color.FgCyan),
		ColorBold:    color.New(color.Bold),
		ColorDim:     color.New(color.Faint),
	}
}

// Colorize applies a color to text when the terminal supports it
func (cs *colorSystem) Colorize(text string, c Color) string {
	if !cs.colorSupported {
		return text
	}
	colorizer, exists := cs.colorMap[c]
	if !exists {
		return text
	}
	return colorizer.Sprint(text)
}

// Sprintf formats and colorizes in one step
func (cs *colorSystem) Sprintf(c Color, format string, args ...interface{}) string {
	return cs.Colorize(fmt.Sprintf(format, args...), c)
}

// IsColorSupported reports whether colors will actually be emitted
func (cs *colorSystem) IsColorSupported() bool {
	return cs.colorSupported
}
