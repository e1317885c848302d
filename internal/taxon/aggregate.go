package taxon

import (
	"fmt"
	"math"
	"slices"
)

// LeafRule decides which nodes contribute their LeafImage to ancestors' collages.
type LeafRule string

const (
	// LeafRuleSpecies only lets species nodes contribute.
	LeafRuleSpecies LeafRule = "species"
	// LeafRuleDeepest lets any node holding a leaf image contribute, so records
	// that stop above species still show up in their ancestors' collages.
	LeafRuleDeepest LeafRule = "deepest"
)

// ParseLeafRule parses a rule name. The empty string selects LeafRuleSpecies.
func ParseLeafRule(s string) (LeafRule, error) {
	switch LeafRule(s) {
	case "", LeafRuleSpecies:
		return LeafRuleSpecies, nil
	case LeafRuleDeepest:
		return LeafRuleDeepest, nil
	default:
		return "", fmt.Errorf("unknown leaf rule %q (want %q or %q)", s, LeafRuleSpecies, LeafRuleDeepest)
	}
}

func (r LeafRule) contributes(n *Node) bool {
	if !n.HasLeafImage() {
		return false
	}
	if r == LeafRuleDeepest {
		return true
	}
	return n.Level == RankSpecies
}

// GridSize returns the side of the smallest square grid holding count images.
func GridSize(count int) int {
	if count <= 0 {
		return 0
	}
	side := int(math.Ceil(math.Sqrt(float64(count))))
	for side*side < count {
		side++
	}
	for side > 1 && (side-1)*(side-1) >= count {
		side--
	}
	return side
}

// Aggregate recomputes DescendantImages and CollageGridSize for every node
// and returns the root's images. It must be re-run after further merges.
//
// Traversal is post-order, left to right, with an explicit stack. A species
// node never stores descendant images, but if it has children (a malformed
// tree) their images still flow up to its ancestors.
func (t *Tree) Aggregate(rule LeafRule) []ImageRef {
	type frame struct {
		id   NodeID
		next int
	}

	results := make([][]ImageRef, len(t.nodes))
	stack := []frame{{id: 0}}
	for len(stack) > 0 {
		top := len(stack) - 1
		n := &t.nodes[stack[top].id]
		if next := stack[top].next; next < len(n.Children) {
			stack[top].next++
			stack = append(stack, frame{id: n.Children[next]})
			continue
		}
		stack = stack[:top]

		var images []ImageRef
		if rule.contributes(n) {
			images = append(images, n.LeafImage)
		}
		for _, child := range n.Children {
			images = append(images, results[child]...)
			results[child] = nil
		}
		images = slices.Clip(images)

		n.DescendantImages = nil
		n.CollageGridSize = 0
		if n.Level != RankSpecies && len(images) > 0 {
			n.DescendantImages = images
			n.CollageGridSize = GridSize(len(images))
		}
		results[n.ID] = images
	}
	return slices.Clone(results[0])
}
