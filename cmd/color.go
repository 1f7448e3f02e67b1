package cmd

import (
	"fmt"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/service"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
)

var (
	// Functional colors using SprintFunc
	highlightColor func(a ...interface{}) string
	sectionColor   func(a ...interface{}) string
	keyColor       func(a ...interface{}) string

	// Helper colors
	greenColor  func(a ...interface{}) string
	yellowColor func(a ...interface{}) string
	redColor    func(a ...interface{}) string
	grayColor   func(a ...interface{}) string
)

func init() {
	setupColors()
}

func setupColors() {
	p := termenv.ColorProfile()

	style := func(hex string, bold bool) func(a ...interface{}) string {
		return func(a ...interface{}) string {
			s := termenv.String(fmt.Sprint(a...)).Foreground(p.Color(hex))
			if bold {
				s = s.Bold()
			}
			return s.String()
		}
	}

	if p == termenv.TrueColor {
		highlightColor = style("#00FF7F", true)
		sectionColor = style("#00CED1", true)
		keyColor = style("#FF69B4", true)
		greenColor = style("#00FF00", false)
		yellowColor = style("#FFD700", false)
		redColor = style("#FF4500", false)
		grayColor = style("#808080", false)
		return
	}

	// Fallback to fatih/color for consistent basic/256 output
	if p >= termenv.ANSI256 {
		highlightColor = color.New(color.FgHiGreen, color.Bold).SprintFunc()
		sectionColor = color.New(color.FgHiCyan, color.Bold).SprintFunc()
		keyColor = color.New(color.FgHiMagenta, color.Bold).SprintFunc()
	} else {
		highlightColor = color.New(color.FgGreen, color.Bold).SprintFunc()
		sectionColor = color.New(color.FgCyan, color.Bold).SprintFunc()
		keyColor = color.New(color.FgMagenta, color.Bold).SprintFunc()
	}
	greenColor = color.New(color.FgGreen).SprintFunc()
	yellowColor = color.New(color.FgYellow).SprintFunc()
	redColor = color.New(color.FgRed).SprintFunc()
	grayColor = color.New(color.FgHiBlack).SprintFunc()
}

// emotionColor renders text in the colour associated with an emotion.
func emotionColor(emotion string, text string) string {
	seq := data.HexToAnsi(service.EmotionColor(emotion))
	if seq == "" {
		return text
	}
	return seq + text + data.ResetSeq
}

// kindDot is the coloured status dot for an indicator kind.
func kindDot(kind service.IndicatorKind) string {
	switch kind {
	case service.IndicatorActive:
		return greenColor("●")
	case service.IndicatorError:
		return redColor("●")
	default:
		return grayColor("●")
	}
}
