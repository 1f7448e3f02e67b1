// File: cmd/version.go
package cmd

import (
	"fmt"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/internal/ui"
	"github.com/spf13/cobra"
)

// Hardcode the version string here
const version = "v0.4.0"

var versionLogo bool // lulu version --logo

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionLogo, "logo", true, "Print the logo above the version")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lulu",
	Run: func(cmd *cobra.Command, args []string) {
		if versionLogo && ui.IsInteractive() && data.GetSettingsStore().GetShowLogo() {
			fmt.Print(ui.GetLogo(data.KeyHex, data.SectionHex, 0.5))
		}
		fmt.Printf("%s %s\n", rootCmd.CommandPath(), version)
	},
}
