package data

import (
	"fmt"
	"sort"

	"github.com/muesli/termenv"
	goghthemes "github.com/willyv3/gogh-themes"
)

const (
	DefaultThemeName string = "Dracula"

	// Formatting Utilities
	BoldSeq      string = "\033[1m"
	UnderlineSeq string = "\033[4m"
	ResetSeq     string = "\033[0m"
)

var (
	CurrentThemeName string = DefaultThemeName
	CurrentTheme     goghthemes.Theme

	// Chat roles
	RoleUserColor      string
	RoleAssistantColor string

	// Status
	StatusErrorColor   string
	StatusSuccessColor string
	StatusWarnColor    string
	StatusInfoColor    string

	// UI
	SectionColor   string
	KeyColor       string
	LabelColor     string
	DetailColor    string
	HighlightColor string

	// Hex codes for lipgloss
	BorderHex     string
	SectionHex    string
	KeyHex        string
	LabelHex      string
	DetailHex     string
	SpinnerHex    string
	BackgroundHex string

	// Status dot
	DotIdleHex   string
	DotActiveHex string
	DotErrorHex  string
	DotWarnHex   string
)

func init() {
	LoadTheme(DefaultThemeName)
}

// LoadTheme loads a theme by name from gogh-themes and updates all color variables.
func LoadTheme(name string) error {
	if name == "" {
		name = DefaultThemeName
	}

	theme, ok := goghthemes.Get(name)
	if !ok {
		return fmt.Errorf("theme '%s' not found", name)
	}

	CurrentThemeName = name
	CurrentTheme = theme
	applyTheme(theme)
	return nil
}

// HexToAnsi converts a hex colour to a foreground escape sequence for the
// current terminal profile.
func HexToAnsi(hex string) string {
	p := termenv.ColorProfile()
	if hex == "" || p == termenv.Ascii {
		return ""
	}
	c := p.Color(hex)
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s%sm", termenv.CSI, c.Sequence(false))
}

// applyTheme maps the Gogh theme colors to our semantic variables.
func applyTheme(t goghthemes.Theme) {
	RoleUserColor = HexToAnsi(t.Green)
	RoleAssistantColor = HexToAnsi(t.Blue)

	StatusErrorColor = HexToAnsi(t.Red)
	StatusSuccessColor = HexToAnsi(t.Green)
	StatusWarnColor = HexToAnsi(t.Yellow)
	StatusInfoColor = HexToAnsi(t.Blue)

	SectionColor = HexToAnsi(t.BrightCyan)
	KeyColor = HexToAnsi(t.BrightMagenta)
	LabelColor = HexToAnsi(t.Foreground)
	DetailColor = HexToAnsi(t.BrightBlack)
	HighlightColor = HexToAnsi(t.BrightGreen)

	BorderHex = t.BrightMagenta
	SectionHex = t.BrightCyan
	KeyHex = t.BrightMagenta
	LabelHex = t.Foreground
	DetailHex = t.BrightBlack
	SpinnerHex = t.BrightMagenta
	BackgroundHex = t.Background

	DotIdleHex = t.BrightBlack
	DotActiveHex = t.Green
	DotErrorHex = t.Red
	DotWarnHex = t.Yellow
}

// ListThemes returns a sorted list of all available theme names.
func ListThemes() []string {
	names := goghthemes.Names()
	sort.Strings(names)
	return names
}

// SaveThemeConfig persists the theme selection to settings.json.
func SaveThemeConfig(name string) error {
	return GetSettingsStore().SetTheme(name)
}

// GetThemeFromConfig retrieves the configured theme name.
func GetThemeFromConfig() string {
	return GetSettingsStore().GetTheme()
}
