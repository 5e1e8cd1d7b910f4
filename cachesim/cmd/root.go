// Package cmd provides the command-line interface for cachesim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "cachesim",
	Short: "Cachesim replays address traces against a set-associative " +
		"cache model.",
	Long: `Cachesim replays address traces against a set-associative cache ` +
		`model. It reports hit rates and replacement behavior for the LRU, ` +
		`MRU, and random replacement policies, and can record per-access ` +
		`results into a SQLite database.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// Environment files can carry CACHESIM_* defaults. A missing .env file
	// is not an error.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
