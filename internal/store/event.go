package store

import (
	"database/sql"
	"time"
)

// Event records one command that reached the action dispatcher.
type Event struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Rule       string    `json:"rule"`
	PluginName string    `json:"plugin_name"`
	ActionName string    `json:"action_name"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventRepository stores command history.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts an event. CreatedAt is set when zero.
func (r *EventRepository) Record(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, command, rule, plugin_name, action_name, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Command, e.Rule, e.PluginName, e.ActionName, boolToInt(e.Success), e.Error, e.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit events, newest first.
func (r *EventRepository) ListRecent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, command, rule, plugin_name, action_name, success, error, created_at
		 FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var success int
		if err := rows.Scan(&e.ID, &e.Command, &e.Rule, &e.PluginName, &e.ActionName, &success, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Success = success != 0
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByCommand returns how many events were recorded per command.
func (r *EventRepository) CountByCommand() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT command, COUNT(*) FROM events GROUP BY command`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var command string
		var n int
		if err := rows.Scan(&command, &n); err != nil {
			return nil, err
		}
		counts[command] = n
	}

	return counts, rows.Err()
}

// Prune keeps the newest keep events and deletes the rest. It returns the
// number of deleted rows.
func (r *EventRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (
			SELECT id FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
