package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/lherron/taxomobile/internal/db"
	"github.com/lherron/taxomobile/internal/events"
	"github.com/lherron/taxomobile/internal/taxon"
)

// setupTestDB creates a temporary test database with migrations applied.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if _, err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func felis(source, species, image string) taxon.Record {
	return taxon.Record{
		Source: source,
		Lineage: map[taxon.Rank]string{
			taxon.RankKingdom: "Animalia",
			taxon.RankPhylum:  "Chordata",
			taxon.RankClass:   "Mammalia",
			taxon.RankOrder:   "Carnivora",
			taxon.RankFamily:  "Felidae",
			taxon.RankGenus:   "Felis",
			taxon.RankSpecies: species,
		},
		Image: taxon.ImageRef(image),
	}
}

func TestSpecimenStore_UpsertCreates(t *testing.T) {
	s := New(setupTestDB(t))

	result, err := s.Specimens.Upsert(felis("cat.json", "catus", "img/cat.jpg"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !result.Created {
		t.Error("expected Created to be true")
	}
	if result.ID != "S-00001" {
		t.Errorf("expected ID S-00001, got %s", result.ID)
	}
	if result.UUID == "" {
		t.Error("expected UUID to be set")
	}

	got, err := s.Specimens.Get("S-00001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Source != "cat.json" || got.Image != "img/cat.jpg" {
		t.Errorf("unexpected specimen: %+v", got)
	}
	if got.Lineage[taxon.RankOrder] != "Carnivora" {
		t.Errorf("expected order Carnivora, got %q", got.Lineage[taxon.RankOrder])
	}
}

func TestSpecimenStore_UpsertUpdatesInPlace(t *testing.T) {
	s := New(setupTestDB(t))

	first, _ := s.Specimens.Upsert(felis("cat.json", "catus", "img/cat.jpg"))
	if _, err := s.Specimens.Upsert(felis("lynx.json", "lynx", "img/lynx.jpg")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	again, err := s.Specimens.Upsert(felis("cat.json", "silvestris", "img/wildcat.jpg"))
	if err != nil {
		t.Fatalf("re-Upsert failed: %v", err)
	}
	if again.Created {
		t.Error("re-importing a source should not create a new specimen")
	}
	if again.ID != first.ID || again.UUID != first.UUID {
		t.Errorf("identity changed: %+v -> %+v", first, again)
	}

	records, err := s.Specimens.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Source != "cat.json" || records[0].Lineage[taxon.RankSpecies] != "silvestris" {
		t.Errorf("updated record should keep first position: %+v", records[0])
	}
}

func TestSpecimenStore_PartialLineage(t *testing.T) {
	s := New(setupTestDB(t))

	rec := taxon.Record{
		Source:  "bird.yaml",
		Lineage: map[taxon.Rank]string{taxon.RankKingdom: "Animalia", taxon.RankPhylum: "Chordata", taxon.RankClass: "Aves"},
		Image:   "img/bird.jpg",
	}
	if _, err := s.Specimens.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, err := s.Specimens.Get("bird.yaml")
	if err != nil {
		t.Fatalf("Get by source failed: %v", err)
	}
	if len(got.Lineage) != 3 {
		t.Errorf("expected 3 lineage ranks, got %v", got.Lineage)
	}
	if got.Record().Depth() != 3 {
		t.Errorf("expected depth 3, got %d", got.Record().Depth())
	}
}

func TestSpecimenStore_GetByUUID(t *testing.T) {
	s := New(setupTestDB(t))
	result, _ := s.Specimens.Upsert(felis("cat.json", "catus", ""))

	got, err := s.Specimens.Get(result.UUID)
	if err != nil {
		t.Fatalf("Get by UUID failed: %v", err)
	}
	if got.ID != result.ID {
		t.Errorf("expected %s, got %s", result.ID, got.ID)
	}

	if _, err := s.Specimens.Get("S-09999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSpecimenStore_ListGlob(t *testing.T) {
	s := New(setupTestDB(t))
	for _, src := range []string{"cats/cat.json", "cats/lynx.json", "birds/owl.yaml"} {
		if _, err := s.Specimens.Upsert(felis(src, "x", "")); err != nil {
			t.Fatalf("Upsert %s failed: %v", src, err)
		}
	}

	cats, err := s.Specimens.List("cats/*")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cats) != 2 || cats[0].Source != "cats/cat.json" {
		t.Errorf("unexpected glob result: %d specimens", len(cats))
	}

	n, err := s.Specimens.Count()
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}
}

func TestSpecimenStore_RemoveLogsEvents(t *testing.T) {
	s := New(setupTestDB(t))
	result, _ := s.Specimens.Upsert(felis("cat.json", "catus", ""))
	if _, err := s.Specimens.Upsert(felis("cat.json", "catus", "img/cat.jpg")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	removed, err := s.Specimens.Remove(result.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed.Source != "cat.json" {
		t.Errorf("unexpected removed specimen: %+v", removed)
	}
	if _, err := s.Specimens.Remove(result.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove should be ErrNotFound, got %v", err)
	}

	evs, err := s.Events(result.UUID, 0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	var types []string
	for _, e := range evs {
		types = append(types, e.EventType)
	}
	want := []string{events.SpecimenRemoved, events.SpecimenUpdated, events.SpecimenImported}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestSpecimenStore_RequiresSource(t *testing.T) {
	s := New(setupTestDB(t))
	if _, err := s.Specimens.Upsert(taxon.Record{}); err == nil {
		t.Error("expected error for record without source")
	}
}
