package cli

import (
	"context"
	"fmt"

	"github.com/lherron/taxomobile/internal/bulk"
	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/specimen"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [FILE...]",
	Short: "Import specimen records into the catalog",
	Long: `Reads specimen files and stores them in the catalog, keyed by file name.

Without FILE arguments every record in the data directory is imported, in
manifest order when the directory has a manifest. Re-importing a file
updates its specimen in place and keeps its merge position.`,
	RunE: appctx.WithApp(appctx.WithCatalog(), runImport),
}

var (
	importContinueOnError bool
	importDryRun          bool
	importJSON            bool
)

type importResult struct {
	ID      string `json:"id"`
	UUID    string `json:"uuid"`
	Source  string `json:"source"`
	Created bool   `json:"created"`
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importContinueOnError, "continue-on-error", false, "Keep importing after a failure")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse files without writing to the catalog")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output as JSON")
}

func runImport(app *appctx.App, cmd *cobra.Command, args []string) error {
	loader := app.Loader("")
	var (
		records []taxon.Record
		report  *specimen.LoadReport
		err     error
	)
	if len(args) > 0 {
		records, report, err = loader.LoadFiles(cmd.Context(), args)
	} else {
		records, report, err = loader.Load(cmd.Context())
	}
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for _, sk := range report.Skipped {
		fmt.Fprintf(stderr, "⚠ skipped %s: %s\n", sk.File, sk.Reason)
	}
	if len(records) == 0 {
		return exitError(1, specimen.ErrNoRecords)
	}

	out := cmd.OutOrStdout()
	if importDryRun {
		for _, rec := range records {
			fmt.Fprintf(out, "would import %s (depth %d)\n", rec.Source, rec.Depth())
		}
		return nil
	}

	// Sources key the catalog; a repeated source overwrites its earlier row.
	bySource := make(map[string]taxon.Record, len(records))
	var sources []string
	for _, rec := range records {
		if _, seen := bySource[rec.Source]; !seen {
			sources = append(sources, rec.Source)
		}
		bySource[rec.Source] = rec
	}

	var results []importResult
	op := &bulk.Operation{ContinueOnError: importContinueOnError, Log: app.Log}
	res := op.Execute(cmd.Context(), sources, func(ctx context.Context, source string) error {
		ur, err := app.Store.Specimens.Upsert(bySource[source])
		if err != nil {
			return err
		}
		results = append(results, importResult{ID: ur.ID, UUID: ur.UUID, Source: source, Created: ur.Created})
		if !importJSON {
			verb := "updated"
			if ur.Created {
				verb = "imported"
			}
			fmt.Fprintf(out, "%s %s %s\n", verb, ur.ID, source)
		}
		return nil
	})

	if importJSON {
		if results == nil {
			results = []importResult{}
		}
		if err := render.NewRenderer(out, render.Options{}).RenderJSON(results); err != nil {
			return err
		}
	}
	if res.Failed > 0 || res.Skipped > 0 {
		res.PrintSummary(stderr)
	}
	if code := res.ExitCode(); code != 0 {
		return exitError(code, nil)
	}
	return nil
}
