package taxon

import "strings"

// Record is one specimen: a lineage keyed by rank plus the image it contributes.
type Record struct {
	// Source identifies where the record came from (usually its file name).
	Source  string
	Lineage map[Rank]string
	Image   ImageRef
}

// Depth returns how many consecutive ranks below domain the record carries.
func (r Record) Depth() int {
	depth := 0
	for _, rank := range LineageRanks() {
		if strings.TrimSpace(r.Lineage[rank]) == "" {
			break
		}
		depth++
	}
	return depth
}

// MergeStats summarizes a Merge call.
type MergeStats struct {
	Records    int
	Merged     int
	Empty      int
	Created    int
	Overwrites []Overwrite
}

// Overwrite records a leaf image replaced by a later record with the same lineage.
type Overwrite struct {
	Node     NodeID
	Previous ImageRef
	Current  ImageRef
	Source   string
}

// Merge folds records into the tree in input order.
func (t *Tree) Merge(records []Record) MergeStats {
	stats := MergeStats{Records: len(records)}
	for _, rec := range records {
		before := len(t.nodes)
		prev, deepest, ok := t.mergeOne(rec)
		stats.Created += len(t.nodes) - before
		if !ok {
			stats.Empty++
			continue
		}
		stats.Merged++
		if prev != "" && prev != rec.Image {
			stats.Overwrites = append(stats.Overwrites, Overwrite{
				Node:     deepest,
				Previous: prev,
				Current:  rec.Image,
				Source:   rec.Source,
			})
		}
	}
	return stats
}

// MergeOne folds a single record and returns the deepest node it reached.
// The second result is false when the record carried no kingdom.
func (t *Tree) MergeOne(rec Record) (NodeID, bool) {
	_, id, ok := t.mergeOne(rec)
	return id, ok
}

func (t *Tree) mergeOne(rec Record) (ImageRef, NodeID, bool) {
	cur := NodeID(0)
	consumed := 0
	for _, rank := range LineageRanks() {
		name := strings.TrimSpace(rec.Lineage[rank])
		if name == "" {
			break
		}
		child, ok := t.Child(cur, rank, name)
		if !ok {
			child = t.addChild(cur, rank, name)
		}
		cur = child
		consumed++
	}
	if consumed == 0 {
		return "", 0, false
	}

	n := &t.nodes[cur]
	prev := n.LeafImage
	n.LeafImage = rec.Image
	return prev, cur, true
}

// Build merges records into a fresh tree and aggregates it.
func Build(records []Record, rule LeafRule) (*Tree, MergeStats) {
	t := NewTree()
	stats := t.Merge(records)
	t.Aggregate(rule)
	return t, stats
}
