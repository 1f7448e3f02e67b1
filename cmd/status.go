package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statusOutput string // lulu status --output(-o) json

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text, json or yaml")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll the backend once and print who is there and how they feel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}
		snap, err := withLoading(c.Display, "Fetching status...", func() (service.StatusSnapshot, error) {
			return c.Poller.Poll(cmd.Context())
		})
		if err != nil {
			return fmt.Errorf("failed to fetch status: %w", err)
		}
		return writeSnapshot(os.Stdout, snap, statusOutput, time.Now())
	},
}

// writeSnapshot prints snap in the requested format.
func writeSnapshot(w io.Writer, snap service.StatusSnapshot, format string, now time.Time) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(snap)
	case "text", "":
		fmt.Fprint(w, formatSnapshot(snap, now))
		return nil
	default:
		return fmt.Errorf("unknown output format '%s' (use text, json or yaml)", format)
	}
}

// formatSnapshot renders the snapshot the way the dashboard side panel does.
func formatSnapshot(snap service.StatusSnapshot, now time.Time) string {
	var b strings.Builder

	camera := grayColor(service.CameraStopped)
	if snap.Camera {
		camera = greenColor(service.CameraStarted)
	}
	fmt.Fprintf(&b, "%s %s\n", sectionColor("Camera:"), camera)
	fmt.Fprintf(&b, "%s %d\n", sectionColor("Known users:"), snap.KnownCount)

	user := snap.User
	if user == "" {
		user = grayColor("nobody recognized")
	}
	fmt.Fprintf(&b, "%s %s\n", sectionColor("User:"), user)

	if snap.HasEmotion() {
		label := fmt.Sprintf("%s %s", service.EmotionEmoji(snap.Emotion), snap.EmotionLabel)
		fmt.Fprintf(&b, "%s %s %s\n", sectionColor("Emotion:"),
			emotionColor(snap.Emotion, label), grayColor(service.Percent(snap.Confidence)))
	} else {
		fmt.Fprintf(&b, "%s %s\n", sectionColor("Emotion:"), grayColor("-"))
	}
	if snap.Behavior != "" {
		fmt.Fprintf(&b, "%s %s\n", sectionColor("Behavior:"), snap.Behavior)
	}

	if len(snap.Personality) > 0 {
		fmt.Fprintf(&b, "\n%s\n", sectionColor("Personality"))
		for _, t := range snap.Personality {
			fmt.Fprintf(&b, "  %-14s %s %s\n", t.Label(), service.PercentBar(t.Value, 20), service.Percent(t.Value))
		}
	}

	if len(snap.History) > 0 {
		fmt.Fprintf(&b, "\n%s\n", sectionColor("Recent emotions"))
		for _, h := range snap.History {
			label := fmt.Sprintf("%s %s", service.EmotionEmoji(h.Emotion), h.Label())
			fmt.Fprintf(&b, "  %s %s %s\n", emotionColor(h.Emotion, label),
				grayColor(service.Percent(h.Confidence)), grayColor(service.RelativeTime(h.Timestamp.Time, now)))
		}
	}
	return b.String()
}
