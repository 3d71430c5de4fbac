package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSettingNotFound is returned when a settings key has never been written.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting unmarshals the JSON value stored under key into target.
func (db *DB) GetSetting(ctx context.Context, key string, target interface{}) error {
	var raw []byte

	err := db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSettingNotFound
	}

	if err != nil {
		return fmt.Errorf("get setting %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("unmarshal setting %s: %w", key, err)
	}

	return nil
}

// SetSetting stores value under key as JSON, overwriting any previous value.
func (db *DB) SetSetting(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, raw); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}
