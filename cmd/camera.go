package cmd

import (
	"fmt"

	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cameraCmd)
	cameraCmd.AddCommand(cameraStartCmd)
	cameraCmd.AddCommand(cameraStopCmd)
	cameraCmd.AddCommand(cameraStatusCmd)
}

var cameraCmd = &cobra.Command{
	Use:     "camera",
	Aliases: []string{"cam"},
	Short:   "Start, stop or query the device camera",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var cameraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Ask the backend to start the camera",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}
		resp, err := withLoading(c.Display, "Starting camera...", func() (service.CameraResponse, error) {
			return c.Client.StartCamera(cmd.Context())
		})
		if err != nil {
			return fmt.Errorf("failed to start camera: %w", err)
		}
		if !resp.Started() {
			msg := resp.Msg
			if msg == "" {
				msg = "backend did not start the camera"
			}
			return fmt.Errorf("failed to start camera: %s", msg)
		}
		fmt.Printf("Camera %s\n", greenColor("started"))
		fmt.Printf("Feed: %s\n", keyColor(c.Client.FeedURL()))
		return nil
	},
}

var cameraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the backend to stop the camera",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}
		_, err = withLoading(c.Display, "Stopping camera...", func() (struct{}, error) {
			return struct{}{}, c.Client.StopCamera(cmd.Context())
		})
		if err != nil {
			return fmt.Errorf("failed to stop camera: %w", err)
		}
		fmt.Printf("Camera %s\n", grayColor("stopped"))
		return nil
	},
}

var cameraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the camera is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}
		resp, err := c.Client.CameraStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query camera: %w", err)
		}
		state := grayColor(service.CameraStopped)
		if resp.Started() {
			state = greenColor(service.CameraStarted)
		}
		fmt.Printf("%s %s\n", sectionColor("Camera:"), state)
		fmt.Printf("%s %s\n", sectionColor("Server:"), c.Client.BaseURL())
		if resp.Msg != "" {
			fmt.Printf("%s %s\n", sectionColor("Message:"), resp.Msg)
		}
		return nil
	},
}

// withLoading runs fn with the loading overlay showing message.
func withLoading[T any](display *service.StatusDisplay, message string, fn func() (T, error)) (T, error) {
	display.ShowLoading(message)
	defer display.HideLoading()
	return fn()
}
