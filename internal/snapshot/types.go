// Package snapshot turns a merged taxonomy tree into a serializable view.
//
// Views carry friendly node IDs, slug paths and the aggregated images of each
// node. The canonical JSON form is deterministic so two builds of the same
// records hash to the same revision.
package snapshot

import (
	"time"

	"github.com/lherron/taxomobile/internal/taxon"
)

// SchemaVersion is bumped when the view shape changes incompatibly.
const SchemaVersion = 1

// Snapshot is the full view of one build.
type Snapshot struct {
	Meta Meta      `json:"meta" yaml:"meta"`
	Root RootView  `json:"root" yaml:"root"`
	Tree *NodeView `json:"tree" yaml:"tree"`
}

// Meta contains snapshot metadata.
type Meta struct {
	SchemaVersion int    `json:"schema_version" yaml:"schema_version"`
	SnapshotRev   string `json:"snapshot_rev,omitempty" yaml:"snapshot_rev,omitempty"`
	GeneratedAt   string `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	LeafRule      string `json:"leaf_rule" yaml:"leaf_rule"`
	Nodes         int    `json:"nodes" yaml:"nodes"`
	Records       int    `json:"records,omitempty" yaml:"records,omitempty"`
}

// RootView holds the images shown for the domain root.
type RootView struct {
	FrontImage string `json:"front_image,omitempty" yaml:"front_image,omitempty"`
	BackImage  string `json:"back_image,omitempty" yaml:"back_image,omitempty"`
}

// NodeView is one node of the view.
type NodeView struct {
	ID               string      `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	Level            taxon.Rank  `json:"level" yaml:"level"`
	Path             string      `json:"path" yaml:"path"`
	LeafImage        string      `json:"leaf_image,omitempty" yaml:"leaf_image,omitempty"`
	DescendantImages []string    `json:"descendant_images,omitempty" yaml:"descendant_images,omitempty"`
	CollageGridSize  int         `json:"collage_grid_size,omitempty" yaml:"collage_grid_size,omitempty"`
	Children         []*NodeView `json:"children,omitempty" yaml:"children,omitempty"`
}

// Options controls how a view is built.
type Options struct {
	LeafRule  taxon.LeafRule
	RootFront string
	RootBack  string
	// Records is the number of input records, reported in Meta.
	Records int
	// MaxDepth limits how many levels below the start node are included. Zero means all.
	MaxDepth int
	// Now stamps GeneratedAt. Nil leaves it empty.
	Now func() time.Time
}

// FormatTimestamp formats a time as ISO-8601 UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
