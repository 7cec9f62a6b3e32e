package main

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "cato",
	Short: "Cato - decompression bomb inspector for archives and documents",
	Long: `Cato inspects untrusted archives and office documents for decompression
bombs before they reach a content-extraction pipeline. It analyzes archive
metadata without decompressing entry bodies, recursively inspects nested
containers under hard depth and size limits, and reports one outcome per file.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
