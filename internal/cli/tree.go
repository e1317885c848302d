package cli

import (
	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [PATH]",
	Short: "Display the merged taxonomy tree",
	Long: `Merges every specimen record and prints the resulting tree.

PATH selects a subtree by slug path, e.g. "animalia/chordata/aves".
With --images each line shows the node's leaf image and the size of its
descendant collage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runTree),
}

var (
	treeDepth     int
	treeImages    bool
	treeCatalog   bool
	treeJSON      bool
	treeYAML      bool
	treeTSV       bool
	treePorcelain bool
	treeColor     bool
)

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().IntVarP(&treeDepth, "level", "L", 0, "Limit depth below PATH (0 = unlimited)")
	treeCmd.Flags().BoolVar(&treeImages, "images", false, "Show leaf images and collage sizes")
	treeCmd.Flags().BoolVar(&treeCatalog, "catalog", false, "Read records from the catalog instead of the data directory")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Output the snapshot as JSON")
	treeCmd.Flags().BoolVar(&treeYAML, "yaml", false, "Output the snapshot as YAML")
	treeCmd.Flags().BoolVar(&treeTSV, "tsv", false, "Output one node per line as TSV")
	treeCmd.Flags().BoolVar(&treePorcelain, "porcelain", false, "Machine-readable output")
	treeCmd.Flags().BoolVar(&treeColor, "color", false, "Force ANSI styling")
}

func runTree(app *appctx.App, cmd *cobra.Command, args []string) error {
	res, err := buildTree(app, cmd)
	if err != nil {
		return err
	}

	start := res.Tree.Root().ID
	if len(args) == 1 {
		if start, err = resolveNode(res.Tree, args[0]); err != nil {
			return err
		}
	}
	view, err := snapshot.FromNode(res.Tree, start, snapshot.Options{MaxDepth: treeDepth})
	if err != nil {
		return err
	}

	format := render.FormatTree
	switch {
	case treeJSON:
		format = render.FormatJSON
	case treeYAML:
		format = render.FormatYAML
	case treeTSV:
		format = render.FormatTSV
	}

	out := cmd.OutOrStdout()
	r := render.NewRenderer(out, render.Options{
		Format:    format,
		Porcelain: treePorcelain,
		Images:    treeImages,
		Color:     treeColor || (!treePorcelain && isTerminal(out)),
	})

	switch format {
	case render.FormatJSON, render.FormatYAML:
		snap := *res.Snapshot
		snap.Tree = view
		if format == render.FormatJSON {
			return r.RenderJSON(&snap)
		}
		return r.RenderYAML(&snap)
	default:
		return r.RenderView(view)
	}
}
