package cmd

import (
	"errors"
	"fmt"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themePreviewCmd)
}

var themeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Show, choose or switch the colour theme",
	Long: `Without a name lulu shows the current theme and, in a terminal, offers a
list to choose from. With a name it switches to that theme.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return switchTheme(args[0])
		}
		fmt.Printf("Current Theme: %s\n", data.CurrentThemeName)
		if !ui.IsInteractive() {
			return nil
		}
		themes := data.ListThemes()
		name, err := ui.SelectOption("Choose a theme", themes, themes)
		if err != nil {
			if errors.Is(err, ui.ErrPromptAborted) {
				return nil
			}
			return err
		}
		return switchTheme(name)
	},
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available themes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range data.ListThemes() {
			if name == data.CurrentThemeName {
				fmt.Printf("%s* %s%s\n", data.HighlightColor, name, data.ResetSeq)
			} else {
				fmt.Println(name)
			}
		}
	},
}

var themePreviewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Preview a theme without saving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := data.LoadTheme(name); err != nil {
			return err
		}
		fmt.Printf("Previewing Theme: %s\n", name)
		fmt.Println("--- Sample Output ---")
		fmt.Println(ui.FormatChatLine(true, "12:00", "Hello lulu!", 60))
		fmt.Println(ui.FormatChatLine(false, "12:00", fmt.Sprintf("Hi! I love this %s theme!", name), 60))
		fmt.Printf("%sCamera running%s\n", data.StatusSuccessColor, data.ResetSeq)
		fmt.Printf("%sReconnecting in 2.4s%s\n", data.StatusWarnColor, data.ResetSeq)
		fmt.Printf("%sFailed to start camera%s\n", data.StatusErrorColor, data.ResetSeq)
		fmt.Printf("%s %s\n", emotionColor("happy", service.EmotionEmoji("happy")+" happy"), service.PercentBar(0.72, 20))
		return nil
	},
}

func switchTheme(name string) error {
	if err := data.LoadTheme(name); err != nil {
		return err
	}
	if err := data.SaveThemeConfig(name); err != nil {
		fmt.Printf("%sWarning: Failed to save theme config: %v%s\n", data.StatusWarnColor, err, data.ResetSeq)
	}
	fmt.Printf("%sSuccessfully switched to theme: %s%s\n", data.StatusSuccessColor, name, data.ResetSeq)
	return nil
}
