package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Displays version, commit, and build date information.`,
	RunE:  runVersion,
}

var versionJSON bool

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionJSON {
		output := map[string]interface{}{
			"version":        Version,
			"commit":         GitCommit,
			"build_date":     BuildDate,
			"schema_version": snapshot.SchemaVersion,
			"supported_commands": []string{
				"tree", "check", "find", "export", "diff",
				"init", "import", "ls", "rm", "log",
				"serve", "version",
			},
			"supported_formats": []string{
				"tree", "json", "ndjson", "yaml", "tsv", "table", "porcelain",
			},
			"leaf_rules": []string{
				string(taxon.LeafRuleSpecies), string(taxon.LeafRuleDeepest),
			},
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "taxomobile version %s\n", Version)
	fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
	fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
	fmt.Fprintf(cmd.OutOrStdout(), "  schema: v%d\n", snapshot.SchemaVersion)

	return nil
}
