// Package store keeps a local history of document transfers.
package store

import (
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	slug         TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	excerpt      TEXT NOT NULL DEFAULT '',
	pulls        INTEGER NOT NULL DEFAULT 0,
	pushes       INTEGER NOT NULL DEFAULT 0,
	last_pulled  TEXT NOT NULL DEFAULT '',
	last_pushed  TEXT NOT NULL DEFAULT '',
	last_session TEXT NOT NULL DEFAULT ''
);
`

// Visit captures a single completed transfer to be recorded.
type Visit struct {
	ID      string
	Name    string
	Slug    string
	URL     string
	Excerpt string
	Session string
	When    time.Time
}

// Record describes a document known to history.
type Record struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	URL        string `json:"url,omitempty"`
	Excerpt    string `json:"excerpt,omitempty"`
	Pulls      int64  `json:"pulls"`
	Pushes     int64  `json:"pushes"`
	LastPulled string `json:"last_pulled,omitempty"`
	LastPushed string `json:"last_pushed,omitempty"`
}

// History keeps a local record of pulled and pushed documents. Safe for
// concurrent use.
type History struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open creates the database file if needed and prepares the schema.
func Open(path string) (*History, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("unable to open history database (%s): %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare history schema: %w", err)
	}
	return &History{conn: conn}, nil
}

func (h *History) Close() error {
	if h == nil || h.conn == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn.Close()
}

// RecordPull notes that a document has been read from the remote side.
func (h *History) RecordPull(v Visit) error {
	return h.record(v, `INSERT INTO documents (id, name, slug, url, excerpt, pulls, last_pulled, last_session)
VALUES (?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	url = CASE WHEN excluded.url != '' THEN excluded.url ELSE url END,
	excerpt = CASE WHEN excluded.excerpt != '' THEN excluded.excerpt ELSE excerpt END,
	pulls = pulls + 1,
	last_pulled = excluded.last_pulled,
	last_session = excluded.last_session`)
}

// RecordPush notes that a document has been written on the remote side.
func (h *History) RecordPush(v Visit) error {
	return h.record(v, `INSERT INTO documents (id, name, slug, url, excerpt, pushes, last_pushed, last_session)
VALUES (?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	url = CASE WHEN excluded.url != '' THEN excluded.url ELSE url END,
	excerpt = CASE WHEN excluded.excerpt != '' THEN excluded.excerpt ELSE excerpt END,
	pushes = pushes + 1,
	last_pushed = excluded.last_pushed,
	last_session = excluded.last_session`)
}

func (h *History) record(v Visit, query string) error {
	if h == nil || h.conn == nil {
		// history has not been requested
		return nil
	}
	if v.ID == "" {
		return fmt.Errorf("unable to record history entry without document id")
	}

	when := v.When
	if when.IsZero() {
		when = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	err := sqlitex.Execute(h.conn, query, &sqlitex.ExecOptions{
		Args: []any{v.ID, v.Name, v.Slug, v.URL, v.Excerpt, when.UTC().Format(time.RFC3339), v.Session},
	})
	if err != nil {
		return fmt.Errorf("unable to record history entry for %s: %w", v.ID, err)
	}
	return nil
}

// List returns known documents, most recently touched first. Non-positive
// limit returns everything.
func (h *History) List(limit int) ([]Record, error) {
	if h == nil || h.conn == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Record
	err := sqlitex.Execute(h.conn, `SELECT id, name, slug, url, excerpt, pulls, pushes, last_pulled, last_pushed
FROM documents ORDER BY MAX(last_pulled, last_pushed) DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, recordFromRow(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list history: %w", err)
	}
	return out, nil
}

// Lookup returns history for a single document if it has been seen before.
func (h *History) Lookup(id string) (*Record, bool, error) {
	if h == nil || h.conn == nil {
		return nil, false, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var rec *Record
	err := sqlitex.Execute(h.conn, `SELECT id, name, slug, url, excerpt, pulls, pushes, last_pulled, last_pushed
FROM documents WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				r := recordFromRow(stmt)
				rec = &r
				return nil
			},
		})
	if err != nil {
		return nil, false, fmt.Errorf("unable to look up history for %s: %w", id, err)
	}
	return rec, rec != nil, nil
}

func recordFromRow(stmt *sqlite.Stmt) Record {
	return Record{
		ID:         stmt.ColumnText(0),
		Name:       stmt.ColumnText(1),
		Slug:       stmt.ColumnText(2),
		URL:        stmt.ColumnText(3),
		Excerpt:    stmt.ColumnText(4),
		Pulls:      stmt.ColumnInt64(5),
		Pushes:     stmt.ColumnInt64(6),
		LastPulled: stmt.ColumnText(7),
		LastPushed: stmt.ColumnText(8),
	}
}
