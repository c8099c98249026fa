package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"thermal_printer/internal/models"
)

// eventTimeLayout is how occurred_at is stored. Range filters use the same
// layout so the text comparison in SQLite orders correctly.
const eventTimeLayout = "2006-01-02 15:04:05"

const (
	insertEventSQL = `INSERT INTO printer_events (id, entry_id, occurred_at, type, message, meta) VALUES (?, ?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, entry_id, occurred_at, type, message, meta FROM printer_events`
	orderEventSQL  = ` ORDER BY occurred_at ASC, id ASC`
)

type EventSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db, now: time.Now} }

var _ EventRepo = (*EventSQLite)(nil)

// Append stores e. Empty EventID and OccurredAt are filled in; the type is
// stored uppercased.
func (r *EventSQLite) Append(ctx context.Context, e models.StatusEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = r.now()
	}

	meta, err := encodeMeta(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode event meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.EntryID,
		at.UTC().Format(eventTimeLayout),
		normalizeType(e.Type),
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert %s event for %s: %w", normalizeType(e.Type), e.EntryID, err)
	}
	return nil
}

// List returns events of one printer (all printers when entryID is empty),
// filtered by [from, to] (inclusive) and type, oldest first. Zero values
// disable a filter.
func (r *EventSQLite) List(ctx context.Context, entryID string, from, to time.Time, typ string) ([]models.StatusEvent, error) {
	var w whereClause
	w.add(entryID != "", "entry_id = ?", entryID)
	w.add(!from.IsZero(), "occurred_at >= ?", from.UTC().Format(eventTimeLayout))
	w.add(!to.IsZero(), "occurred_at <= ?", to.UTC().Format(eventTimeLayout))
	typ = normalizeType(typ)
	w.add(typ != "", "type = ?", typ)

	rows, err := r.db.QueryContext(ctx, selectEventSQL+w.String()+orderEventSQL, w.args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var out []models.StatusEvent
	for rows.Next() {
		var (
			ev   models.StatusEvent
			meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.EntryID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Metadata = decodeMeta(meta)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.StatusEvent{}
	}
	return out, nil
}

type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(ok bool, cond string, arg any) {
	if !ok {
		return
	}
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func normalizeType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func encodeMeta(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// decodeMeta parses stored JSON. Malformed values come back as the raw string.
func decodeMeta(ns sql.NullString) any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return ns.String
	}
	return v
}
