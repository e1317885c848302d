// Package events records catalog changes in the event_log table.
package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Event types written by the specimen catalog.
const (
	SpecimenImported = "specimen.imported"
	SpecimenUpdated  = "specimen.updated"
	SpecimenRemoved  = "specimen.removed"
)

// Event is one row of the event log.
type Event struct {
	ID           int64   `json:"id"`
	Timestamp    string  `json:"ts"`
	ResourceUUID *string `json:"resource_uuid,omitempty"`
	EventType    string  `json:"event_type"`
	Payload      *string `json:"payload,omitempty"`
}

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log, inside tx when it is non-nil.
func (w *Writer) LogEvent(tx *sql.Tx, event *Event) error {
	query := `
		INSERT INTO event_log (resource_uuid, event_type, payload)
		VALUES (?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.ResourceUUID, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogSpecimen logs an import, update or removal of the specimen with the given UUID.
func (w *Writer) LogSpecimen(tx *sql.Tx, eventType, uuid string, fields map[string]any) error {
	event := &Event{
		ResourceUUID: &uuid,
		EventType:    eventType,
	}
	if len(fields) > 0 {
		payload, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		payloadStr := string(payload)
		event.Payload = &payloadStr
	}
	return w.LogEvent(tx, event)
}

// List returns the most recent events, newest first. A uuid narrows the
// result to one specimen; limit <= 0 means no limit.
func List(db *sql.DB, uuid string, limit int) ([]Event, error) {
	query := `SELECT id, ts, resource_uuid, event_type, payload FROM event_log`
	var args []any
	if uuid != "" {
		query += ` WHERE resource_uuid = ?`
		args = append(args, uuid)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ResourceUUID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (w *Writer) getExecutor(tx *sql.Tx) executor {
	if tx != nil {
		return tx
	}
	return w.db
}
