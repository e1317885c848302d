package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taxomobile",
	Short: "Merge specimen records into a taxonomy mobile",
	Long: `taxomobile folds per-specimen taxonomy records (kingdom down to species)
into one deduplicated tree and computes the image collage shown at every
level of the mobile. Records come from a data directory of JSON/YAML files
or from the SQLite catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to catalog database (overrides TAXO_DB_PATH)")
	rootCmd.PersistentFlags().String("data", "", "Data directory of specimen files (overrides TAXO_DATA_DIR)")
	rootCmd.PersistentFlags().String("leaf-rule", "", "Which leaf images feed collages: species or deepest")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail when the merged tree is malformed")
}
