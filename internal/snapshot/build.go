package snapshot

import (
	"github.com/lherron/taxomobile/internal/id"
	"github.com/lherron/taxomobile/internal/paths"
	"github.com/lherron/taxomobile/internal/taxon"
)

// FromTree builds the view of a whole tree. The tree must already be aggregated.
func FromTree(t *taxon.Tree, opts Options) *Snapshot {
	view, _ := FromNode(t, 0, opts)

	snap := &Snapshot{
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			LeafRule:      string(opts.LeafRule),
			Nodes:         t.Len(),
			Records:       opts.Records,
		},
		Root: RootView{FrontImage: opts.RootFront, BackImage: opts.RootBack},
		Tree: view,
	}
	if snap.Meta.LeafRule == "" {
		snap.Meta.LeafRule = string(taxon.LeafRuleSpecies)
	}
	if opts.Now != nil {
		snap.Meta.GeneratedAt = FormatTimestamp(opts.Now())
	}
	return snap
}

// FromNode builds the view of the subtree rooted at start.
func FromNode(t *taxon.Tree, start taxon.NodeID, opts Options) (*NodeView, error) {
	lineage, err := t.Lineage(start)
	if err != nil {
		return nil, err
	}
	basePath := paths.SlugPath(lineage)

	var top *NodeView
	// stack[d] is the most recent view at depth d below start.
	var stack []*NodeView
	t.WalkFrom(start, func(n *taxon.Node, depth int) bool {
		view := nodeView(n)
		if depth == 0 {
			view.Path = basePath
			top = view
		} else {
			parent := stack[depth-1]
			view.Path = paths.Slug(n.Name)
			if parent.Path != "" {
				view.Path = paths.JoinPath(parent.Path, view.Path)
			}
			parent.Children = append(parent.Children, view)
		}
		stack = append(stack[:depth], view)
		return opts.MaxDepth <= 0 || depth < opts.MaxDepth
	})
	return top, nil
}

func nodeView(n *taxon.Node) *NodeView {
	view := &NodeView{
		ID:              id.FormatNode(int(n.ID)),
		Name:            n.Name,
		Level:           n.Level,
		LeafImage:       string(n.LeafImage),
		CollageGridSize: n.CollageGridSize,
	}
	if len(n.DescendantImages) > 0 {
		view.DescendantImages = make([]string, len(n.DescendantImages))
		for i, img := range n.DescendantImages {
			view.DescendantImages[i] = string(img)
		}
	}
	return view
}

// Flatten returns the views in pre-order.
func Flatten(root *NodeView) []*NodeView {
	if root == nil {
		return nil
	}
	var out []*NodeView
	stack := []*NodeView{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, v)
		for i := len(v.Children) - 1; i >= 0; i-- {
			stack = append(stack, v.Children[i])
		}
	}
	return out
}
