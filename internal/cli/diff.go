package cli

import (
	"bytes"
	"fmt"

	"github.com/lherron/taxomobile/internal/build"
	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff DIR_A DIR_B",
	Short: "Compare the trees built from two data directories",
	Long: `Builds a tree from each directory and prints a unified diff of their
rendered forms, images included.

Exit codes:
  0  trees are identical
  1  trees differ`,
	Args: cobra.ExactArgs(2),
	RunE: appctx.WithApp(appctx.Options{}, runDiff),
}

var diffTSV bool

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVar(&diffTSV, "tsv", false, "Compare one line per node instead of the drawn tree")
}

func runDiff(app *appctx.App, cmd *cobra.Command, args []string) error {
	var rendered [2]string
	var revs [2]string
	for i, dir := range args {
		b := app.Builder()
		b.Catalog = nil
		b.Loader = app.Loader(dir)
		res, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}
		text, err := renderForDiff(res)
		if err != nil {
			return err
		}
		rendered[i] = text
		revs[i] = res.Rev
	}

	if revs[0] == revs[1] {
		return nil
	}
	diff, err := render.Diff(args[0], args[1], rendered[0], rendered[1])
	if err != nil {
		return fmt.Errorf("failed to diff trees: %w", err)
	}
	if diff == "" {
		// Same rendering but different revs: the root images changed.
		diff = fmt.Sprintf("--- %s\n+++ %s\n-%s\n+%s\n", args[0], args[1], revs[0], revs[1])
	}
	fmt.Fprint(cmd.OutOrStdout(), diff)
	return exitError(1, nil)
}

func renderForDiff(res *build.Result) (string, error) {
	var buf bytes.Buffer
	format := render.FormatTree
	if diffTSV {
		format = render.FormatTSV
	}
	r := render.NewRenderer(&buf, render.Options{Format: format, Images: true})
	if err := r.RenderView(res.Snapshot.Tree); err != nil {
		return "", err
	}
	return buf.String(), nil
}
