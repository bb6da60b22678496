// Package commands implements the kerbeiros CLI's cobra command tree,
// adapted from dittofs's cmd/dfsctl/commands root command.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time via -ldflags.
	Version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "kerbeiros",
	Short: "Kerberos v5 AS-exchange client",
	Long: `kerbeiros requests and caches Kerberos v5 ticket-granting tickets.

It performs the AS-exchange (RFC 4120 §3.1, with MS-KILE pre-authentication
extensions) against a configured KDC and writes the resulting credential
to a ccache file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/kerbeiros/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(getTGTCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(serveMetricsCmd)
	rootCmd.AddCommand(versionCmd)
}
