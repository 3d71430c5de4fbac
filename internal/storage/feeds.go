package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (db *DB) ListFeeds(ctx context.Context) ([]FeedSource, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, url, name, enabled FROM feeds ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []FeedSource

	for rows.Next() {
		var f FeedSource
		if err := rows.Scan(&f.ID, &f.URL, &f.Name, &f.Enabled); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}

		feeds = append(feeds, f)
	}

	return feeds, rows.Err()
}

func (db *DB) ListEnabledFeeds(ctx context.Context) ([]FeedSource, error) {
	feeds, err := db.ListFeeds(ctx)
	if err != nil {
		return nil, err
	}

	enabled := feeds[:0]

	for _, f := range feeds {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}

	return enabled, nil
}

func (db *DB) CreateFeed(ctx context.Context, url, name string, enabled bool) (FeedSource, error) {
	f := FeedSource{ID: uuid.NewString(), URL: url, Name: name, Enabled: enabled}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO feeds (id, url, name, enabled) VALUES ($1, $2, $3, $4)`,
		f.ID, f.URL, f.Name, f.Enabled)
	if err != nil {
		return FeedSource{}, fmt.Errorf("create feed: %w", err)
	}

	return f, nil
}

func (db *DB) UpdateFeed(ctx context.Context, f FeedSource) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE feeds SET url = $2, name = $3, enabled = $4 WHERE id = $1`,
		f.ID, f.URL, f.Name, f.Enabled); err != nil {
		return fmt.Errorf("update feed: %w", err)
	}

	return nil
}

func (db *DB) DeleteFeed(ctx context.Context, id string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM feeds WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}

	return nil
}
