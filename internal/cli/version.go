package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{
			"version": Version,
			"commit":  Commit,
			"date":    Date,
			"go":      runtime.Version(),
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, info)
		}
		fmt.Printf("storyteller %s (%s, %s, %s)\n", Version, Commit, Date, runtime.Version())
		return nil
	},
}
