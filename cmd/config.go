// File: cmd/config.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/activebook/lulu/data"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
}

// configCmd represents the base command when called without any subcommands
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Manage lulu configuration",
	Long: `View and manage settings for lulu.

Every key can also be set from the environment: server.url is read from
LULU_SERVER_URL, stream.backoff_cap from LULU_STREAM_BACKOFF_CAP, and so on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the location of the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		used := cfgStore.ConfigFileUsed()
		defaultPath := data.GetConfigFilePath()
		if used == "" {
			fmt.Printf("No configuration file loaded.\nDefault location is: %s\n", defaultPath)
			return
		}
		fmt.Printf("Configuration file in use: %s\n", used)
		if used != defaultPath {
			fmt.Printf("Note: This differs from the default path: %s\n", defaultPath)
		}
		if _, err := os.Stat(used); os.IsNotExist(err) {
			fmt.Println("The file does not exist yet; 'lulu config set' creates it.")
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"ls", "list"},
	Short:   "Show the effective value of every setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, key := range data.Keys() {
			value, err := cfgStore.Get(key)
			if err != nil {
				return err
			}
			if value == "" {
				value = "(empty)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", keyColor(key), value, grayColor(data.KeyHelp(key)))
		}
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting and save the configuration file",
	Example: `lulu config set server.url http://lulubot.local:5001
lulu config set stream.backoff_cap 10s
lulu config set stream.autostart false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfgStore.Set(args[0], args[1]); err != nil {
			return err
		}
		value, _ := cfgStore.Get(args[0])
		fmt.Printf("%s = %s\n", keyColor(args[0]), highlightColor(value))
		return nil
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export configuration to a file",
	Long: `Export current configuration to a file.

If no file is specified, the configuration will be exported to 'lulu-config.yaml'
in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exportFile := "lulu-config.yaml"
		if len(args) > 0 {
			exportFile = args[0]
		}
		if err := cfgStore.Export(exportFile); err != nil {
			return fmt.Errorf("error exporting configuration: %w", err)
		}
		fmt.Printf("Configuration exported successfully to: %s\n", exportFile)
		return nil
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import configuration from a file",
	Long: `Import configuration from a file.

Known keys from the file replace the current values; unknown keys are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		importFile := args[0]
		if _, err := os.Stat(importFile); os.IsNotExist(err) {
			return fmt.Errorf("configuration file does not exist: %s", importFile)
		}
		if err := cfgStore.Import(importFile); err != nil {
			return fmt.Errorf("error importing configuration: %w", err)
		}
		fmt.Printf("Configuration imported successfully from: %s\n", importFile)
		return nil
	},
}
