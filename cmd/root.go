// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string // To hold the path to the config file if specified via flag
	debugMode   bool   // Flag to enable debug logging
	serverFlag  string // lulu --server(-s) http://lulubot.local:5001
	versionFlag bool   // lulu --version(-v)

	// Typed configuration, loaded by initConfig
	cfgStore = data.NewConfigStore()

	// Global logger instance
	logger = service.GetLogger()

	rootCmd = &cobra.Command{
		Use:   "lulu",
		Short: "A terminal companion for the lulubot camera device",
		Long: `lulu talks to a lulubot backend: it starts and watches the camera feed,
shows who is in front of the camera and how they feel, and chats with the bot.

Run without arguments to open the full-screen dashboard.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if versionFlag {
				fmt.Printf("%s %s\n", cmd.CommandPath(), version)
				return
			}
			if !ui.IsInteractive() {
				// Nothing to draw on; point at the headless commands instead.
				cmd.Help()
				return
			}
			if err := runDashboard(cmd.Context()); err != nil {
				service.Errorf("%v\n", err)
				os.Exit(1)
			}
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := data.EnsureConfigDir(); err != nil {
		service.Warnf("Error creating config directory '%s': %v\n", data.GetConfigDir(), err)
	}

	if err := rootCmd.Execute(); err != nil {
		service.Errorf("'%s'\n", err)
		os.Exit(1)
	}
}

func init() {
	// Set logrus defaults before configuration is loaded
	// This ensures basic logging works even if config fails
	service.InitLogger()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is %s)", data.GetConfigFilePath()))
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging (overrides config file level)")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Backend base URL (overrides server.url)")

	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Print the version number of lulu")

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	path := cfgFile
	if path == "" {
		path = data.GetConfigFilePath()
	}
	if err := cfgStore.SetConfigFile(path); err != nil {
		service.Errorf("Error reading config file (%s): %v", path, err)
	}

	setupLogging()

	if name := data.GetThemeFromConfig(); name != "" {
		if err := data.LoadTheme(name); err != nil {
			service.Warnf("Theme '%s' unavailable, using %s: %v", name, data.DefaultThemeName, err)
		}
	}
}

// setupLogging configures the global logger; the --debug flag overrides config.
func setupLogging() {
	level := cfgStore.LogLevel()
	if debugMode {
		level = "debug"
	}
	service.SetLogLevel(level)
	service.Debugf("Logger initialized: level=%s ", logger.GetLevel())
}

// companionOptions returns the configured options with flag overrides applied.
func companionOptions() service.CompanionOptions {
	opts := service.OptionsFromConfig(cfgStore)
	if serverFlag != "" {
		opts.ServerURL = serverFlag
	}
	return opts
}

// newCompanion builds a Companion from config and flags for a one-shot
// command: loading shows as the terminal spinner, toasts go to stderr.
func newCompanion() (*service.Companion, error) {
	c, err := service.NewCompanion(companionOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	service.BindIndicator(c.Display)
	printNotifications(c.Display)
	return c, nil
}
