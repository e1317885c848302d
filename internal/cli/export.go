package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the merged tree as a canonical JSON snapshot",
	Long: `Builds the tree and writes a snapshot holding every node with its
leaf image, descendant images and collage grid size.

The snapshot_rev is a sha256 of the canonical form with the timestamp
left out, so identical inputs produce identical revs.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runExport),
}

var (
	exportOutput  string
	exportCatalog bool
	exportPretty  bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to FILE instead of stdout")
	exportCmd.Flags().BoolVar(&exportCatalog, "catalog", false, "Read records from the catalog instead of the data directory")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", false, "Indent the output")
}

func runExport(app *appctx.App, cmd *cobra.Command, args []string) error {
	res, err := buildTree(app, cmd)
	if err != nil {
		return err
	}

	var data []byte
	if exportPretty {
		data, err = snapshot.PrettyJSON(res.Snapshot)
	} else {
		data, err = snapshot.Stamp(res.Snapshot)
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if exportOutput == "" || exportOutput == "-" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot %s\n", res.Rev)
		return nil
	}

	if dir := filepath.Dir(exportOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported snapshot %s to %s\n", res.Rev, exportOutput)
	return nil
}
