package service

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	unknownEmotionEmoji = "❓"
	unknownEmotionColor = "#CCCCCC"
)

var emotionEmojis = map[string]string{
	"happy":    "😊",
	"sad":      "😢",
	"angry":    "😠",
	"surprise": "😲",
	"fear":     "😨",
	"neutral":  "😐",
	"disgust":  "🤢",
}

var emotionColors = map[string]string{
	"happy":    "#34C759",
	"sad":      "#007AFF",
	"angry":    "#FF3B30",
	"surprise": "#FF9500",
	"fear":     "#5856D6",
	"neutral":  "#8E8E93",
	"disgust":  "#FF2D92",
}

// EmotionEmoji returns the emoji for an emotion code.
func EmotionEmoji(emotion string) string {
	if e, ok := emotionEmojis[strings.ToLower(emotion)]; ok {
		return e
	}
	return unknownEmotionEmoji
}

// EmotionColor returns the hex colour for an emotion code.
func EmotionColor(emotion string) string {
	if c, ok := emotionColors[strings.ToLower(emotion)]; ok {
		return c
	}
	return unknownEmotionColor
}

// RelativeTime renders t relative to now: "just now" under a minute,
// minutes under an hour, hours under a day, otherwise the date.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(diff/time.Hour))
	default:
		return t.Local().Format("2006-01-02")
	}
}

// Percent renders a 0..1 ratio as a rounded percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(clamp01(v)*100)))
}

// PercentBar renders a 0..1 ratio as a bar of the given width.
func PercentBar(v float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(clamp01(v) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
