package service

import "github.com/activebook/lulu/internal/ui"

// BindIndicator mirrors the display's loading overlay on the terminal
// spinner. One-shot commands use it; the dashboard draws its own overlay.
func BindIndicator(display *StatusDisplay) {
	display.Subscribe(func(ev DisplayEvent) {
		switch ev.Type {
		case EventLoadingShown:
			ui.GetIndicator().Start(ev.Text)
		case EventLoadingHidden:
			ui.GetIndicator().Stop()
		}
	})
}
