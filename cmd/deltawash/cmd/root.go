package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the deltawash entrypoint; every subcommand shares
// --config/--verbose and the exit-code convention documented on
// ExitCodeFor.
var rootCmd = &cobra.Command{
	Use:     "deltawash",
	Short:   "DeltaWash - real-time handwashing compliance interpreter",
	Version: "1.0.0",
}

// Execute runs the selected subcommand and returns its error untranslated;
// main maps it to an exit code via ExitCodeFor.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable development logging")
}
