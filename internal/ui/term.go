package ui

import (
	"os"
	"strconv"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// GetTerminalSize returns the terminal size, trying each standard stream,
// then COLUMNS/LINES, then 80x24.
func GetTerminalSize() (int, int) {
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if width, height, err := term.GetSize(fd); err == nil && width > 0 && height > 0 {
			return width, height
		}
	}
	return envInt("COLUMNS", defaultWidth), envInt("LINES", defaultHeight)
}

// GetTerminalWidth returns the width of the terminal.
func GetTerminalWidth() int {
	w, _ := GetTerminalSize()
	return w
}

// IsInteractive reports whether stdin and stdout are both terminals; the
// dashboard and huh prompts need one.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalSupportsTrueColor detects if the terminal supports true color (24-bit)
func TerminalSupportsTrueColor() bool {
	return termenv.ColorProfile() == termenv.TrueColor
}

func envInt(name string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}
