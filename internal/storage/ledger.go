package storage

import (
	"context"
	"fmt"
	"time"
)

// LoadSeenLinks returns the persisted ledger contents, oldest first.
func (db *DB) LoadSeenLinks(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT link FROM seen_links ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load seen links: %w", err)
	}
	defer rows.Close()

	var links []string

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan seen link: %w", err)
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

// ReplaceSeenLinks persists a ledger snapshot at the orchestrator's
// end-of-run checkpoint. The write is differential: rows already present keep
// their position and created_at, evicted rows are deleted and new links are
// appended. The ledger only evicts from the front and appends to the back, so
// the surviving rows' positions still read back in FIFO order.
func (db *DB) ReplaceSeenLinks(ctx context.Context, links []string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `SELECT link FROM seen_links ORDER BY position`)
	if err != nil {
		return fmt.Errorf("read current seen links: %w", err)
	}

	var existing []string

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			rows.Close()

			return fmt.Errorf("scan current seen link: %w", err)
		}

		existing = append(existing, link)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("read current seen links: %w", err)
	}

	toInsert, evicted := ledgerDiff(existing, links)

	if len(evicted) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM seen_links WHERE link = ANY($1)`, evicted); err != nil {
			return fmt.Errorf("delete evicted seen links: %w", err)
		}
	}

	for _, link := range toInsert {
		if _, err := tx.Exec(ctx, `INSERT INTO seen_links (link) VALUES ($1) ON CONFLICT (link) DO NOTHING`, link); err != nil {
			return fmt.Errorf("insert seen link: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}

	return nil
}

// ledgerDiff plans a differential snapshot write: toInsert holds snapshot
// entries not yet persisted, in snapshot order, and evicted holds persisted
// entries the snapshot no longer carries. Entries in both sets are left
// untouched so their row age survives the checkpoint.
func ledgerDiff(existing, snapshot []string) (toInsert, evicted []string) {
	keep := make(map[string]struct{}, len(snapshot))
	for _, link := range snapshot {
		keep[link] = struct{}{}
	}

	persisted := make(map[string]struct{}, len(existing))

	for _, link := range existing {
		persisted[link] = struct{}{}

		if _, ok := keep[link]; !ok {
			evicted = append(evicted, link)
		}
	}

	for _, link := range snapshot {
		if _, ok := persisted[link]; !ok {
			toInsert = append(toInsert, link)
		}
	}

	return toInsert, evicted
}

// PruneSeenLinksBefore drops ledger entries recorded before the cutoff.
func (db *DB) PruneSeenLinksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM seen_links WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune seen links: %w", err)
	}

	return tag.RowsAffected(), nil
}
