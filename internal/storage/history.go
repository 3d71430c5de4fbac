package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// historyLimit bounds the number of retained run history entries.
const historyLimit = 30

// AddRunHistory inserts a history entry and trims the table to the newest
// historyLimit entries.
func (db *DB) AddRunHistory(ctx context.Context, entry RunHistoryEntry) error {
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("marshal history items: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO run_history (run_date, new_count, items) VALUES ($1, $2, $3)`,
		entry.Date, entry.NewCount, items); err != nil {
		return fmt.Errorf("insert run history: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM run_history WHERE id NOT IN (
			SELECT id FROM run_history ORDER BY id DESC LIMIT $1
		)`, historyLimit); err != nil {
		return fmt.Errorf("trim run history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}

	return nil
}

// ListRunHistory returns history entries, most recent first.
func (db *DB) ListRunHistory(ctx context.Context) ([]RunHistoryEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT run_date, new_count, items FROM run_history ORDER BY id DESC LIMIT $1`, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}
	defer rows.Close()

	var entries []RunHistoryEntry

	for rows.Next() {
		var (
			entry RunHistoryEntry
			items []byte
		)

		if err := rows.Scan(&entry.Date, &entry.NewCount, &items); err != nil {
			return nil, fmt.Errorf("scan run history: %w", err)
		}

		if err := json.Unmarshal(items, &entry.Items); err != nil {
			return nil, fmt.Errorf("unmarshal history items: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
