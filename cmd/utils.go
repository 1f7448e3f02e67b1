package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/service"
)

// readStdin returns piped input, or "" when stdin is a terminal.
func readStdin() string {
	if !hasStdinData() {
		return ""
	}
	reader := bufio.NewReader(os.Stdin)
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, reader); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
		return ""
	}
	return buffer.String()
}

func hasStdinData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printNotifications echoes display toasts on stderr for one-shot commands.
func printNotifications(display *service.StatusDisplay) {
	display.Subscribe(func(ev service.DisplayEvent) {
		if ev.Type != service.EventNotification {
			return
		}
		service.BeforeLog()
		defer service.AfterLog()
		fmt.Fprintln(os.Stderr, notificationText(ev.Level, ev.Text))
	})
}

func notificationText(level service.NotifyLevel, message string) string {
	switch level {
	case service.NotifySuccess:
		return greenColor("✔ " + message)
	case service.NotifyWarning:
		return yellowColor("! " + message)
	case service.NotifyError:
		return redColor("✘ " + message)
	default:
		return message
	}
}

func transcriptStore() *data.TranscriptStore {
	return data.NewTranscriptStore("")
}
