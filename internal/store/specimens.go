package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lherron/taxomobile/internal/events"
	"github.com/lherron/taxomobile/internal/id"
	"github.com/lherron/taxomobile/internal/taxon"
)

// ErrNotFound is returned when no specimen matches a reference.
var ErrNotFound = errors.New("specimen not found")

// lineageColumns maps each lineage rank to its column, in rank order.
var lineageColumns = []struct {
	rank   taxon.Rank
	column string
}{
	{taxon.RankKingdom, "kingdom"},
	{taxon.RankPhylum, "phylum"},
	{taxon.RankClass, "class"},
	{taxon.RankOrder, `"order"`},
	{taxon.RankFamily, "family"},
	{taxon.RankGenus, "genus"},
	{taxon.RankSpecies, "species"},
}

const specimenColumns = `seq, uuid, id, source, kingdom, phylum, class, "order", family, genus, species, image, created_at, updated_at`

// Specimen is a catalogued record.
type Specimen struct {
	Seq       int64                 `json:"-"`
	UUID      string                `json:"uuid"`
	ID        string                `json:"id"`
	Source    string                `json:"source"`
	Lineage   map[taxon.Rank]string `json:"lineage"`
	Image     string                `json:"image,omitempty"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
}

// Record converts the specimen back into a mergeable record.
func (s *Specimen) Record() taxon.Record {
	return taxon.Record{
		Source:  s.Source,
		Lineage: s.Lineage,
		Image:   taxon.ImageRef(s.Image),
	}
}

// UpsertResult reports what Upsert did.
type UpsertResult struct {
	UUID    string
	ID      string
	Created bool
}

// SpecimenStore handles specimen persistence operations.
type SpecimenStore struct {
	store *Store
}

// Upsert stores rec keyed by its Source. Re-importing a source updates the row
// in place, so the specimen keeps its ID and its position in merge order.
func (ss *SpecimenStore) Upsert(rec taxon.Record) (*UpsertResult, error) {
	if strings.TrimSpace(rec.Source) == "" {
		return nil, fmt.Errorf("specimen source is required")
	}

	values := make([]any, len(lineageColumns))
	for i, lc := range lineageColumns {
		if name := strings.TrimSpace(rec.Lineage[lc.rank]); name != "" {
			values[i] = name
		}
	}

	var result *UpsertResult
	err := ss.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		var existingUUID, existingID string
		err := tx.QueryRow(`SELECT uuid, id FROM specimens WHERE source = ?`, rec.Source).
			Scan(&existingUUID, &existingID)
		switch {
		case err == nil:
			args := append(values, string(rec.Image), existingUUID)
			_, err := tx.Exec(`
				UPDATE specimens
				SET kingdom = ?, phylum = ?, class = ?, "order" = ?, family = ?, genus = ?, species = ?,
				    image = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
				WHERE uuid = ?
			`, args...)
			if err != nil {
				return fmt.Errorf("failed to update specimen: %w", err)
			}
			result = &UpsertResult{UUID: existingUUID, ID: existingID}
			return ew.LogSpecimen(tx, events.SpecimenUpdated, existingUUID, map[string]any{
				"source": rec.Source,
				"image":  string(rec.Image),
			})

		case errors.Is(err, sql.ErrNoRows):
			newUUID := uuid.New().String()
			args := append([]any{newUUID, newUUID, rec.Source}, values...)
			args = append(args, string(rec.Image))
			res, err := tx.Exec(`
				INSERT INTO specimens (uuid, id, source, kingdom, phylum, class, "order", family, genus, species, image)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, args...)
			if err != nil {
				return fmt.Errorf("failed to create specimen: %w", err)
			}
			seq, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get specimen seq: %w", err)
			}
			friendlyID := id.FormatSpecimen(int(seq))
			if _, err := tx.Exec(`UPDATE specimens SET id = ? WHERE seq = ?`, friendlyID, seq); err != nil {
				return fmt.Errorf("failed to assign specimen id: %w", err)
			}
			result = &UpsertResult{UUID: newUUID, ID: friendlyID, Created: true}
			return ew.LogSpecimen(tx, events.SpecimenImported, newUUID, map[string]any{
				"id":     friendlyID,
				"source": rec.Source,
				"depth":  rec.Depth(),
			})

		default:
			return fmt.Errorf("failed to look up specimen: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get resolves a specimen by friendly ID, UUID or source.
func (ss *SpecimenStore) Get(ref string) (*Specimen, error) {
	column := "source"
	switch {
	case id.IsFriendlyID(ref):
		column = "id"
	case id.IsUUID(ref):
		column = "uuid"
		ref = strings.ToLower(ref)
	}

	row := ss.store.db.QueryRow(`SELECT `+specimenColumns+` FROM specimens WHERE `+column+` = ?`, ref)
	s, err := scanSpecimen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get specimen: %w", err)
	}
	return s, nil
}

// List returns specimens in import order. A non-empty pattern filters
// sources with SQLite GLOB syntax.
func (ss *SpecimenStore) List(pattern string) ([]*Specimen, error) {
	query := `SELECT ` + specimenColumns + ` FROM specimens`
	var args []any
	if pattern != "" {
		query += ` WHERE source GLOB ?`
		args = append(args, pattern)
	}
	query += ` ORDER BY seq`

	rows, err := ss.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list specimens: %w", err)
	}
	defer rows.Close()

	var out []*Specimen
	for rows.Next() {
		s, err := scanSpecimen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan specimen: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Records returns every catalogued specimen as a record, in import order.
func (ss *SpecimenStore) Records() ([]taxon.Record, error) {
	specimens, err := ss.List("")
	if err != nil {
		return nil, err
	}
	records := make([]taxon.Record, len(specimens))
	for i, s := range specimens {
		records[i] = s.Record()
	}
	return records, nil
}

// Remove deletes a specimen and logs a specimen.removed event.
func (ss *SpecimenStore) Remove(ref string) (*Specimen, error) {
	s, err := ss.Get(ref)
	if err != nil {
		return nil, err
	}
	err = ss.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		if _, err := tx.Exec(`DELETE FROM specimens WHERE uuid = ?`, s.UUID); err != nil {
			return fmt.Errorf("failed to delete specimen: %w", err)
		}
		return ew.LogSpecimen(tx, events.SpecimenRemoved, s.UUID, map[string]any{
			"id":     s.ID,
			"source": s.Source,
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Count returns the number of catalogued specimens.
func (ss *SpecimenStore) Count() (int, error) {
	var n int
	if err := ss.store.db.QueryRow(`SELECT COUNT(*) FROM specimens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count specimens: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecimen(row rowScanner) (*Specimen, error) {
	var s Specimen
	names := make([]sql.NullString, len(lineageColumns))
	dest := []any{&s.Seq, &s.UUID, &s.ID, &s.Source}
	for i := range names {
		dest = append(dest, &names[i])
	}
	dest = append(dest, &s.Image, &s.CreatedAt, &s.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.Lineage = make(map[taxon.Rank]string, len(lineageColumns))
	for i, lc := range lineageColumns {
		if names[i].Valid && names[i].String != "" {
			s.Lineage[lc.rank] = names[i].String
		}
	}
	return &s, nil
}
