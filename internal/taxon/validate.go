package taxon

import (
	"errors"
	"fmt"
	"strings"
)

// ViolationKind classifies a structural problem found by Validate.
type ViolationKind string

const (
	ViolationRootLevel      ViolationKind = "root_level"
	ViolationSpeciesParent  ViolationKind = "species_with_children"
	ViolationRankGap        ViolationKind = "non_contiguous_rank"
	ViolationDuplicateChild ViolationKind = "duplicate_sibling"
	ViolationParentLink     ViolationKind = "broken_parent_link"
	ViolationSpeciesImages  ViolationKind = "species_descendant_images"
)

// Violation is one problem in a tree.
type Violation struct {
	Kind    ViolationKind
	Node    NodeID
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s at node %d: %s", v.Kind, v.Node, v.Message)
}

// ValidationError wraps every violation found in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("malformed tree (%d violation(s)): %s", len(e.Violations), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual violations to errors.Is/As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}

// Validate checks the structural invariants Merge and Aggregate rely on.
// Merge and Aggregate never call it; it is opt-in hardening.
func (t *Tree) Validate() error {
	var violations []Violation
	add := func(kind ViolationKind, id NodeID, format string, args ...any) {
		violations = append(violations, Violation{Kind: kind, Node: id, Message: fmt.Sprintf(format, args...)})
	}

	root := t.Root()
	if root.Level != RankDomain || root.Parent != NoParent {
		add(ViolationRootLevel, 0, "root has level %s and parent %d", root.Level, root.Parent)
	}

	for i := range t.nodes {
		n := &t.nodes[i]
		if n.Level == RankSpecies && len(n.Children) > 0 {
			add(ViolationSpeciesParent, n.ID, "species %q has %d child(ren)", n.Name, len(n.Children))
		}
		if n.Level == RankSpecies && n.DescendantImages != nil {
			add(ViolationSpeciesImages, n.ID, "species %q carries descendant images", n.Name)
		}

		seen := make(map[childKey]bool, len(n.Children))
		for _, childID := range n.Children {
			if childID <= 0 || int(childID) >= len(t.nodes) {
				add(ViolationParentLink, n.ID, "child id %d out of range", childID)
				continue
			}
			c := &t.nodes[childID]
			if c.Parent != n.ID {
				add(ViolationParentLink, c.ID, "parent is %d, listed under %d", c.Parent, n.ID)
			}
			if want, ok := n.Level.Next(); !ok || c.Level != want {
				add(ViolationRankGap, c.ID, "%s %q below %s %q", c.Level, c.Name, n.Level, n.Name)
			}
			key := childKey{level: c.Level, name: c.Name}
			if seen[key] {
				add(ViolationDuplicateChild, c.ID, "%s %q appears twice under %q", c.Level, c.Name, n.Name)
			}
			seen[key] = true
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// IsMalformed reports whether err came from Validate.
func IsMalformed(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
