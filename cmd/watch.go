package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

var watchSnapshots bool // lulu watch --snapshots

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchSnapshots, "snapshots", false, "Also print every change of the recognized user or emotion")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the camera and follow the stream without the dashboard",
	Long: `Starts the camera, keeps the video feed connected and reconnects it with
backoff when it drops. Every state change is printed until Ctrl-C, at which
point the camera is stopped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := companionOptions()
		opts.AutoStart = true
		c, err := service.NewCompanion(opts)
		if err != nil {
			return fmt.Errorf("invalid server url: %w", err)
		}
		printNotifications(c.Display)

		c.Display.Subscribe(func(ev service.DisplayEvent) {
			if ev.Type != service.EventStatus {
				return
			}
			// Status listeners run inside session transitions; never call back into it.
			fmt.Printf("%s %s %s\n", grayColor(time.Now().Format("15:04:05")), kindDot(ev.Kind), ev.Text)
		})

		if watchSnapshots {
			var last string
			c.Poller.OnSnapshot(func(s service.StatusSnapshot) {
				line := snapshotLine(s)
				if line == last {
					return
				}
				last = line
				fmt.Printf("%s %s\n", grayColor(time.Now().Format("15:04:05")), line)
			})
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		fmt.Printf("Watching %s, press Ctrl-C to stop\n", keyColor(c.Client.BaseURL()))
		c.Run(ctx)
		<-ctx.Done()

		closeCtx, cancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
		defer cancel()
		stats := c.Feed.Stats()
		connectedAt := c.Feed.ConnectedAt()
		c.Close(closeCtx)

		fmt.Println()
		fmt.Printf("%s %d frames, %d bytes, %d feed errors", sectionColor("Feed:"), stats.Frames, stats.Bytes, stats.Errors)
		if fps := stats.FPS(connectedAt); fps > 0 {
			fmt.Printf(", %.1f fps", fps)
		}
		if stats.Width > 0 {
			fmt.Printf(", %dx%d", stats.Width, stats.Height)
		}
		fmt.Println()
		fmt.Printf("%s %d\n", sectionColor("Reconnect attempts:"), c.Session.Attempts())
		return nil
	},
}

// snapshotLine is the one-line summary printed by watch --snapshots.
func snapshotLine(s service.StatusSnapshot) string {
	user := s.User
	if user == "" {
		user = "-"
	}
	if !s.HasEmotion() {
		return fmt.Sprintf("user=%s emotion=-", user)
	}
	return fmt.Sprintf("user=%s emotion=%s %s (%s)", user,
		service.EmotionEmoji(s.Emotion), s.EmotionLabel, service.Percent(s.Confidence))
}
