// Package commands wires fleetplan's Cobra command tree, one file per
// subcommand plus a shared root that registers persistent flags, following
// the corpus's CLI layout.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fleetplan",
	Short: "Donation-pickup logistics network optimizer",
	Long: `fleetplan selects which depots to keep open and builds
profit-maximizing daily truck routes for a donation-pickup network.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (optional)")
	rootCmd.AddCommand(solveCmd)
}
