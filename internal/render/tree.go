package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/lherron/taxomobile/internal/taxon"
)

// TreeHeaders are the TSV columns written by RenderTreeTSV.
var TreeHeaders = []string{"id", "path", "level", "leaf_image", "descendants", "grid"}

// RenderTree prints view and its children with box-drawing connectors.
// In porcelain mode lines are tab-separated and indented by two spaces per level.
func (r *Renderer) RenderTree(view *snapshot.NodeView) error {
	if view == nil {
		return nil
	}
	label := view.Path
	if label == "" {
		label = view.Name
	}
	if r.opts.Porcelain {
		fmt.Fprintf(r.writer, "%s\t%s\t%s\n", view.ID, view.Level, label)
	} else {
		fmt.Fprintln(r.writer, r.decorate(view, label))
	}
	r.printTree(view, "")
	return nil
}

func (r *Renderer) printTree(node *snapshot.NodeView, prefix string) {
	for i, child := range node.Children {
		isLastChild := i == len(node.Children)-1

		if r.opts.Porcelain {
			fmt.Fprintf(r.writer, "%s%s\t%s\t%s\n", prefix, child.ID, child.Level, child.Name)
		} else {
			connector := "├── "
			if isLastChild {
				connector = "└── "
			}
			fmt.Fprintf(r.writer, "%s%s%s\n", prefix, connector, r.decorate(child, child.Name))
		}

		if len(child.Children) > 0 {
			var newPrefix string
			switch {
			case r.opts.Porcelain:
				newPrefix = prefix + "  "
			case isLastChild:
				newPrefix = prefix + "    "
			default:
				newPrefix = prefix + "│   "
			}
			r.printTree(child, newPrefix)
		}
	}
}

func (r *Renderer) decorate(node *snapshot.NodeView, label string) string {
	if r.opts.Color && node.Level == taxon.RankSpecies {
		label = fmt.Sprintf("\033[3m%s\033[0m", label) // italic binomial
	}
	parts := []string{label}
	if node.Level != taxon.RankDomain {
		parts = append(parts, fmt.Sprintf("(%s)", node.Level))
	}
	if r.opts.Images {
		if node.LeafImage != "" {
			parts = append(parts, "["+node.LeafImage+"]")
		}
		if n := len(node.DescendantImages); n > 0 {
			parts = append(parts, fmt.Sprintf("{%d image(s), %dx%d}", n, node.CollageGridSize, node.CollageGridSize))
		}
	}
	return strings.Join(parts, " ")
}

// TreeRows flattens view into one row per node in pre-order.
func TreeRows(view *snapshot.NodeView) [][]string {
	nodes := snapshot.Flatten(view)
	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		rows[i] = []string{
			n.ID,
			n.Path,
			n.Level.String(),
			n.LeafImage,
			strconv.Itoa(len(n.DescendantImages)),
			strconv.Itoa(n.CollageGridSize),
		}
	}
	return rows
}

// RenderTreeTSV writes TreeRows with TreeHeaders.
func (r *Renderer) RenderTreeTSV(view *snapshot.NodeView) error {
	return r.RenderTSV(TreeHeaders, TreeRows(view))
}

// RenderView dispatches on the configured format.
func (r *Renderer) RenderView(view *snapshot.NodeView) error {
	switch r.opts.Format {
	case FormatJSON:
		return r.RenderJSON(view)
	case FormatYAML:
		return r.RenderYAML(view)
	case FormatTSV:
		return r.RenderTreeTSV(view)
	default:
		return r.RenderTree(view)
	}
}
