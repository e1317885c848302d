package cli

import (
	"strconv"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/store"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [GLOB]",
	Short: "List catalogued specimens",
	Long: `Lists specimens in the catalog in import order, which is also the order
they are merged in. GLOB filters by source file name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: appctx.WithApp(appctx.WithCatalog(), runLs),
}

var (
	lsJSON      bool
	lsNDJSON    bool
	lsPorcelain bool
)

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output as JSON")
	lsCmd.Flags().BoolVar(&lsNDJSON, "ndjson", false, "Output as NDJSON")
	lsCmd.Flags().BoolVar(&lsPorcelain, "porcelain", false, "Machine-readable output")
}

func runLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	pattern := ""
	if len(args) == 1 {
		pattern = args[0]
	}
	specimens, err := app.Store.Specimens.List(pattern)
	if err != nil {
		return err
	}

	r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Porcelain: lsPorcelain})
	switch {
	case lsJSON:
		if specimens == nil {
			specimens = []*store.Specimen{}
		}
		return r.RenderJSON(specimens)
	case lsNDJSON:
		items := make([]interface{}, len(specimens))
		for i, s := range specimens {
			items[i] = s
		}
		return r.RenderNDJSON(items)
	}

	rows := make([][]string, len(specimens))
	for i, s := range specimens {
		rec := s.Record()
		rows[i] = []string{s.ID, s.Source, strconv.Itoa(rec.Depth()), deepestName(rec), s.Image}
	}
	return r.RenderTable([]string{"ID", "SOURCE", "DEPTH", "TAXON", "IMAGE"}, rows)
}

// deepestName returns the name at the record's last consecutive rank.
func deepestName(rec taxon.Record) string {
	depth := rec.Depth()
	if depth == 0 {
		return "-"
	}
	return rec.Lineage[taxon.LineageRanks()[depth-1]]
}
