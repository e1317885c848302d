package cli

import (
	"errors"
	"fmt"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/id"
	"github.com/lherron/taxomobile/internal/paths"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/specimen"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the merged tree and report input problems",
	Long: `Builds the tree and checks its structure: the root is the domain, species
have no children, ranks are contiguous and siblings are unique.

Also reports records that overwrote an earlier leaf image, files that could
not be read and records without a kingdom.

Exit codes:
  0  tree is well-formed
  1  tree has violations`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runCheck),
}

var (
	checkCatalog bool
	checkJSON    bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkCatalog, "catalog", false, "Read records from the catalog instead of the data directory")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output as JSON")
}

type checkOverwrite struct {
	Path     string `json:"path"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Source   string `json:"source"`
}

type checkViolation struct {
	Kind    taxon.ViolationKind `json:"kind"`
	Node    string              `json:"node"`
	Message string              `json:"message"`
}

type checkReport struct {
	Rev        string             `json:"snapshot_rev"`
	Records    int                `json:"records"`
	Merged     int                `json:"merged"`
	Empty      int                `json:"empty"`
	Nodes      int                `json:"nodes"`
	Overwrites []checkOverwrite   `json:"overwrites"`
	Skipped    []specimen.Skipped `json:"skipped"`
	Violations []checkViolation   `json:"violations"`
	OK         bool               `json:"ok"`
}

func runCheck(app *appctx.App, cmd *cobra.Command, args []string) error {
	b := app.Builder()
	b.Strict = false
	res, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}

	report := checkReport{
		Rev:        res.Rev,
		Records:    res.Stats.Records,
		Merged:     res.Stats.Merged,
		Empty:      res.Stats.Empty,
		Nodes:      res.Tree.Len(),
		Overwrites: []checkOverwrite{},
		Skipped:    []specimen.Skipped{},
		Violations: []checkViolation{},
	}
	for _, ow := range res.Stats.Overwrites {
		names, _ := res.Tree.Lineage(ow.Node)
		report.Overwrites = append(report.Overwrites, checkOverwrite{
			Path:     paths.SlugPath(names),
			Previous: string(ow.Previous),
			Current:  string(ow.Current),
			Source:   ow.Source,
		})
	}
	if res.Report != nil {
		report.Skipped = append(report.Skipped, res.Report.Skipped...)
	}

	if verr := res.Tree.Validate(); verr != nil {
		var ve *taxon.ValidationError
		if !errors.As(verr, &ve) {
			return verr
		}
		for _, v := range ve.Violations {
			report.Violations = append(report.Violations, checkViolation{
				Kind:    v.Kind,
				Node:    id.FormatNode(int(v.Node)),
				Message: v.Message,
			})
		}
	}
	report.OK = len(report.Violations) == 0

	out := cmd.OutOrStdout()
	if checkJSON {
		if err := render.NewRenderer(out, render.Options{}).RenderJSON(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s merged into %s (%d without a kingdom)\n",
			pluralize(report.Records, "record", "records"),
			pluralize(report.Nodes, "node", "nodes"),
			report.Empty)
		for _, ow := range report.Overwrites {
			fmt.Fprintf(out, "⚠ %s: %s replaced %s (from %s)\n", ow.Path, ow.Current, ow.Previous, ow.Source)
		}
		for _, sk := range report.Skipped {
			fmt.Fprintf(out, "⚠ skipped %s: %s\n", sk.File, sk.Reason)
		}
		for _, v := range report.Violations {
			fmt.Fprintf(out, "✗ %s %s: %s\n", v.Kind, v.Node, v.Message)
		}
		if report.OK {
			fmt.Fprintln(out, "✓ tree is well-formed")
		}
	}

	if !report.OK {
		return exitError(1, nil)
	}
	return nil
}
