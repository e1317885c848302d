package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lherron/taxomobile/internal/taxon"
)

func lineage(names ...string) map[taxon.Rank]string {
	m := make(map[taxon.Rank]string, len(names))
	for i, name := range names {
		m[taxon.LineageRanks()[i]] = name
	}
	return m
}

func testTree(t *testing.T) *taxon.Tree {
	t.Helper()
	tree, _ := taxon.Build([]taxon.Record{
		{Source: "cat.json", Lineage: lineage("Animalia", "Chordata", "Mammalia", "Carnivora", "Felidae", "Felis", "Felis catus"), Image: "img/cat.jpg"},
		{Source: "lynx.json", Lineage: lineage("Animalia", "Chordata", "Mammalia", "Carnivora", "Felidae", "Lynx", "Lynx lynx"), Image: "img/lynx.jpg"},
		{Source: "oak.json", Lineage: lineage("Plantae", "Tracheophyta", "Magnoliopsida", "Fagales", "Fagaceae", "Quercus", "Quercus robur"), Image: "img/oak.jpg"},
	}, taxon.LeafRuleSpecies)
	return tree
}

func TestFromTree(t *testing.T) {
	tree := testTree(t)
	snap := FromTree(tree, Options{RootFront: "front.jpg", RootBack: "back.jpg", Records: 3})

	if snap.Meta.SchemaVersion != SchemaVersion || snap.Meta.Nodes != tree.Len() || snap.Meta.LeafRule != "species" {
		t.Errorf("unexpected meta: %+v", snap.Meta)
	}
	if snap.Meta.GeneratedAt != "" {
		t.Errorf("GeneratedAt should be empty without a clock, got %q", snap.Meta.GeneratedAt)
	}
	root := snap.Tree
	if root.ID != "N-00000" || root.Path != "" || root.Level != taxon.RankDomain {
		t.Errorf("unexpected root view: %+v", root)
	}
	if diff := cmp.Diff([]string{"img/cat.jpg", "img/lynx.jpg", "img/oak.jpg"}, root.DescendantImages); diff != "" {
		t.Errorf("root images mismatch (-want +got):\n%s", diff)
	}
	if root.CollageGridSize != 2 {
		t.Errorf("root grid = %d, want 2", root.CollageGridSize)
	}

	var paths []string
	for _, v := range Flatten(root) {
		if v.Level == taxon.RankSpecies {
			paths = append(paths, v.Path)
			if v.DescendantImages != nil || v.LeafImage == "" {
				t.Errorf("species view %s: %+v", v.Path, v)
			}
		}
	}
	want := []string{
		"animalia/chordata/mammalia/carnivora/felidae/felis/felis-catus",
		"animalia/chordata/mammalia/carnivora/felidae/lynx/lynx-lynx",
		"plantae/tracheophyta/magnoliopsida/fagales/fagaceae/quercus/quercus-robur",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("species paths mismatch (-want +got):\n%s", diff)
	}
}

func TestFromNode_SubtreeAndDepth(t *testing.T) {
	tree := testTree(t)
	id, err := tree.Lookup([]string{"Animalia", "Chordata", "Mammalia", "Carnivora", "Felidae"}, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	view, err := FromNode(tree, id, Options{MaxDepth: 1})
	if err != nil {
		t.Fatalf("FromNode: %v", err)
	}
	if view.Path != "animalia/chordata/mammalia/carnivora/felidae" {
		t.Errorf("subtree path = %q", view.Path)
	}
	if len(view.Children) != 2 {
		t.Fatalf("expected 2 genera, got %d", len(view.Children))
	}
	for _, genus := range view.Children {
		if len(genus.Children) != 0 {
			t.Errorf("depth limit ignored under %s", genus.Name)
		}
		if len(genus.DescendantImages) != 1 {
			t.Errorf("genus %s should keep its aggregated image", genus.Name)
		}
	}

	if _, err := FromNode(tree, taxon.NodeID(999), Options{}); err == nil {
		t.Error("expected error for unknown node")
	}
}

func TestCanonicalJSON(t *testing.T) {
	snap := FromTree(testTree(t), Options{RootFront: "front.jpg"})

	data, err := CanonicalJSON(snap)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "\n") || strings.Contains(s, "  ") {
		t.Error("canonical JSON should have no insignificant whitespace")
	}
	if !strings.HasPrefix(s, `{"meta":{"leaf_rule":"species","nodes":`) {
		t.Errorf("unexpected key order: %.60s", s)
	}
	if !strings.Contains(s, `"root":{"front_image":"front.jpg"}`) {
		t.Errorf("root images missing: %s", s)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("canonical output is not valid JSON: %v", err)
	}
	if decoded.Tree.Children[0].Name != "Animalia" || decoded.Tree.Children[0].Level != taxon.RankKingdom {
		t.Errorf("decoded tree mismatch: %+v", decoded.Tree.Children[0])
	}
}

func TestComputeRev(t *testing.T) {
	a := FromTree(testTree(t), Options{Now: func() time.Time { return time.Unix(0, 0) }})
	b := FromTree(testTree(t), Options{Now: time.Now})

	revA, err := ComputeRev(a)
	if err != nil {
		t.Fatalf("ComputeRev: %v", err)
	}
	revB, _ := ComputeRev(b)
	if revA != revB {
		t.Errorf("rev should ignore generated_at: %s != %s", revA, revB)
	}
	if !strings.HasPrefix(revA, "sha256:") || len(revA) != len("sha256:")+64 {
		t.Errorf("unexpected rev format: %s", revA)
	}

	data, err := Stamp(a)
	if err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	if a.Meta.SnapshotRev != revA || !strings.Contains(string(data), revA) {
		t.Error("Stamp should record the rev in meta")
	}
	if again, _ := ComputeRev(a); again != revA {
		t.Error("rev of a stamped snapshot should not change")
	}

	c := FromTree(testTree(t), Options{LeafRule: taxon.LeafRuleDeepest})
	if revC, _ := ComputeRev(c); revC == revA {
		t.Error("different leaf rule should change the rev")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))
	if got := FormatTimestamp(ts); got != "2024-03-01T11:30:00Z" {
		t.Errorf("FormatTimestamp = %s", got)
	}
}
