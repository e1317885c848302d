package cli

import (
	"context"
	"fmt"

	"github.com/lherron/taxomobile/internal/bulk"
	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm REF...",
	Short: "Remove specimens from the catalog",
	Long: `Removes specimens by friendly ID (S-00001), UUID or source file name.
Each removal is recorded in the catalog's event log.`,
	Args: cobra.MinimumNArgs(1),
	RunE: appctx.WithApp(appctx.WithCatalog(), runRm),
}

var (
	rmContinueOnError bool
	rmJSON            bool
)

type rmResult struct {
	ID     string `json:"id"`
	UUID   string `json:"uuid"`
	Source string `json:"source"`
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolVar(&rmContinueOnError, "continue-on-error", false, "Continue on errors")
	rmCmd.Flags().BoolVar(&rmJSON, "json", false, "Output as JSON")
}

func runRm(app *appctx.App, cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var removed []rmResult

	op := &bulk.Operation{ContinueOnError: rmContinueOnError, Log: app.Log}
	res := op.Execute(cmd.Context(), args, func(ctx context.Context, ref string) error {
		s, err := app.Store.Specimens.Remove(ref)
		if err != nil {
			return err
		}
		removed = append(removed, rmResult{ID: s.ID, UUID: s.UUID, Source: s.Source})
		if !rmJSON {
			fmt.Fprintf(out, "removed %s (%s)\n", s.ID, s.Source)
		}
		return nil
	})

	if rmJSON {
		if removed == nil {
			removed = []rmResult{}
		}
		if err := render.NewRenderer(out, render.Options{}).RenderJSON(removed); err != nil {
			return err
		}
	}
	if res.Failed > 0 || res.Skipped > 0 {
		res.PrintSummary(cmd.ErrOrStderr())
	}
	if code := res.ExitCode(); code != 0 {
		return exitError(code, nil)
	}
	return nil
}
