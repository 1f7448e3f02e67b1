package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register [name]",
	Short: "Register the face in front of the camera under a name",
	Long: `Registers whoever is in front of the camera right now. Registering a name
that already exists updates that user. Without a name lulu asks for one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}

		resp, err := c.Client.CameraStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to reach the server: %w", err)
		}
		if !resp.Started() {
			return errors.New("the camera is not running, start it first with 'lulu camera start'")
		}

		flow := c.Register
		flow.Open()
		if len(args) > 0 {
			flow.SetName(args[0])
		} else {
			name, err := ui.PromptName("Register face", "Look at the camera and enter your name", func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("please enter a name")
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, ui.ErrPromptAborted) {
					flow.Cancel()
					return nil
				}
				return err
			}
			flow.SetName(name)
		}

		// Toasts already told the user what happened.
		if _, err := flow.Submit(cmd.Context()); err != nil {
			if errors.Is(err, service.ErrEmptyName) {
				return err
			}
			return fmt.Errorf("registration failed: %w", err)
		}
		return nil
	},
}
