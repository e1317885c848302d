package cli

import (
	"fmt"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the specimen catalog",
	Long: `Creates the catalog database if it does not exist and applies any
pending migrations. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.Options{NeedsDB: true, SkipMigrationCheck: true}, runInit),
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(app *appctx.App, cmd *cobra.Command, args []string) error {
	applied, err := app.DB.Migrate()
	if err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog: %s\n", app.DB.Path())
	if len(applied) == 0 {
		fmt.Fprintln(out, "Catalog is up to date")
		return nil
	}
	for _, m := range applied {
		fmt.Fprintf(out, "  applied %s\n", m)
	}
	fmt.Fprintf(out, "Applied %s\n", pluralize(len(applied), "migration", "migrations"))
	return nil
}
