package ui

import (
	"strings"

	"github.com/superstarryeyes/bit/ansifonts"
)

const (
	LogoFont = "8bitfortress"
	LogoText = "LULU"
)

// GetLogo renders the banner with a left-to-right gradient. It returns ""
// when the font cannot be loaded.
func GetLogo(textColor string, gradientColor string, scale float64) string {
	font, err := ansifonts.LoadFont(LogoFont)
	if err != nil {
		return ""
	}

	options := ansifonts.RenderOptions{
		CharSpacing:       2,
		WordSpacing:       2,
		LineSpacing:       1,
		TextColor:         textColor,
		GradientColor:     gradientColor,
		UseGradient:       gradientColor != "",
		GradientDirection: ansifonts.LeftRight,
		Alignment:         ansifonts.LeftAlign,
		ScaleFactor:       scale,
	}

	rendered := ansifonts.RenderTextWithOptions(LogoText, font, options)
	return strings.Join(rendered, "\n") + "\n"
}
