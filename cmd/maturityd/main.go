// Maturityd gates consulting projects through a maturity progression
// model. Every level or checkpoint transition passes a validation gate,
// a mandatory human decision gate, and, on level crossings, a payment
// gate confirmed by an external billing system.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maturityd",
	Short: "Maturity progression and decision gate daemon",
	Long: `maturityd drives consulting projects through a staged maturity model
(POC, MVP, PILOT, PRODUCTION, SCALE) with human decision gates, milestone
payment gates, and an append-only audit trail.`,
	Version: version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maturityd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/maturityd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
