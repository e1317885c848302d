package cli

import (
	"fmt"
	"strconv"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/paths"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find PATTERN",
	Short: "Find nodes whose slug path matches a glob",
	Long: `Matches every node's slug path against PATTERN.

Patterns support *, ? and [..] within a segment and ** across segments:
  taxomobile find 'animalia/**/strigidae'
  taxomobile find '**/bubo*' --level genus`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runFind),
}

var (
	findLevel     string
	findCatalog   bool
	findJSON      bool
	findNDJSON    bool
	findPorcelain bool
)

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVar(&findLevel, "level", "", "Only match nodes at this rank")
	findCmd.Flags().BoolVar(&findCatalog, "catalog", false, "Read records from the catalog instead of the data directory")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Output as JSON")
	findCmd.Flags().BoolVar(&findNDJSON, "ndjson", false, "Output as NDJSON")
	findCmd.Flags().BoolVar(&findPorcelain, "porcelain", false, "Machine-readable output")
}

func runFind(app *appctx.App, cmd *cobra.Command, args []string) error {
	var level taxon.Rank
	if findLevel != "" {
		r, err := taxon.ParseRank(findLevel)
		if err != nil {
			return exitError(2, err)
		}
		level = r
	}

	res, err := buildTree(app, cmd)
	if err != nil {
		return err
	}

	pattern := args[0]
	var matches []*snapshot.NodeView
	for _, n := range snapshot.Flatten(res.Snapshot.Tree) {
		if n.Path == "" {
			continue
		}
		if findLevel != "" && n.Level != level {
			continue
		}
		if paths.MatchGlob(pattern, n.Path) {
			leaf := *n
			leaf.Children = nil
			matches = append(matches, &leaf)
		}
	}

	r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Porcelain: findPorcelain})
	switch {
	case findJSON:
		if matches == nil {
			matches = []*snapshot.NodeView{}
		}
		return r.RenderJSON(matches)
	case findNDJSON:
		items := make([]interface{}, len(matches))
		for i, m := range matches {
			items[i] = m
		}
		return r.RenderNDJSON(items)
	}

	if len(matches) == 0 {
		return exitError(1, fmt.Errorf("no nodes match %q", pattern))
	}
	rows := make([][]string, len(matches))
	for i, m := range matches {
		rows[i] = []string{m.ID, m.Level.String(), m.Path, strconv.Itoa(len(m.DescendantImages))}
	}
	return r.RenderTable([]string{"ID", "LEVEL", "PATH", "IMAGES"}, rows)
}
