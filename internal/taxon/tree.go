// Package taxon builds the merged taxonomy tree behind the mobile view.
//
// Nodes live in an arena owned by Tree and are addressed by NodeID. Children
// are stored as IDs in first-seen order, and the parent link is a plain ID used
// only for display lookups such as lineage paths.
package taxon

import (
	"errors"
	"fmt"
	"strings"
)

// RootName is the label of the synthetic root node.
const RootName = "Domain"

// NoParent marks the root's parent link.
const NoParent NodeID = -1

// ErrNodeNotFound is returned when a lookup does not resolve to a node.
var ErrNodeNotFound = errors.New("node not found")

// NodeID addresses a node inside its Tree.
type NodeID int

// ImageRef is a path or URL of an image. The empty value means "no image".
type ImageRef string

// Node is a single taxon in the merged tree.
type Node struct {
	ID       NodeID
	Name     string
	Level    Rank
	Parent   NodeID
	Children []NodeID

	// LeafImage is set when some record's lineage ends at this node.
	LeafImage ImageRef

	// Computed by Aggregate. Nil and zero mean unset.
	DescendantImages []ImageRef
	CollageGridSize  int

	index map[childKey]NodeID
}

type childKey struct {
	level Rank
	name  string
}

// HasLeafImage reports whether a record terminated here.
func (n *Node) HasLeafImage() bool {
	return n.LeafImage != ""
}

// Tree is the arena holding every node. Node 0 is always the domain root.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only the domain root.
func NewTree() *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{
		ID:     0,
		Name:   RootName,
		Level:  RankDomain,
		Parent: NoParent,
	})
	return t
}

// Root returns the domain node.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return &t.nodes[id], nil
}

// Child returns the child of parent keyed by (level, name).
func (t *Tree) Child(parent NodeID, level Rank, name string) (NodeID, bool) {
	p, err := t.Node(parent)
	if err != nil || p.index == nil {
		return 0, false
	}
	id, ok := p.index[childKey{level: level, name: name}]
	return id, ok
}

// addChild appends a new node under parent. Callers must have checked the index first.
func (t *Tree) addChild(parent NodeID, level Rank, name string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Name:   name,
		Level:  level,
		Parent: parent,
	})

	// Re-take the pointer: the append above may have moved the arena.
	p := &t.nodes[parent]
	p.Children = append(p.Children, id)
	if p.index == nil {
		p.index = make(map[childKey]NodeID)
	}
	p.index[childKey{level: level, name: name}] = id
	return id
}

// Walk visits nodes depth-first, parents before children, left to right.
// Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	t.WalkFrom(0, fn)
}

// WalkFrom is Walk rooted at start; start is visited at depth 0.
// An unknown start visits nothing.
func (t *Tree) WalkFrom(start NodeID, fn func(n *Node, depth int) bool) {
	if start < 0 || int(start) >= len(t.nodes) {
		return
	}
	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{id: start}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[f.id]
		if !fn(n, f.depth) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], depth: f.depth + 1})
		}
	}
}

// Lineage returns the names from the root's first child down to id.
func (t *Tree) Lineage(id NodeID) ([]string, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	var names []string
	for n.Parent != NoParent {
		names = append(names, n.Name)
		n = &t.nodes[n.Parent]
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// Lookup resolves a path of names (or slugs, via match) from the root.
// A child whose name equals the segment exactly wins over looser matches.
// An empty path resolves to the root.
func (t *Tree) Lookup(path []string, match func(segment, name string) bool) (NodeID, error) {
	if match == nil {
		match = func(segment, name string) bool { return strings.EqualFold(segment, name) }
	}
	cur := NodeID(0)
	for depth, segment := range path {
		next, found := t.matchChild(cur, segment, func(segment, name string) bool { return segment == name })
		if !found {
			next, found = t.matchChild(cur, segment, match)
		}
		if !found {
			return 0, fmt.Errorf("%w: %q at depth %d", ErrNodeNotFound, segment, depth+1)
		}
		cur = next
	}
	return cur, nil
}

func (t *Tree) matchChild(parent NodeID, segment string, match func(segment, name string) bool) (NodeID, bool) {
	for _, childID := range t.nodes[parent].Children {
		if match(segment, t.nodes[childID].Name) {
			return childID, true
		}
	}
	return 0, false
}

// CountByRank returns how many nodes exist at each rank.
func (t *Tree) CountByRank() map[Rank]int {
	counts := make(map[Rank]int, len(rankNames))
	for i := range t.nodes {
		counts[t.nodes[i].Level]++
	}
	return counts
}
