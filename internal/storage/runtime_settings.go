package storage

import (
	"context"
	"errors"

	"github.com/feedranker/feed-digest-bot/internal/config"
)

// settingsKey is where the runtime settings document lives in the settings table.
const settingsKey = "runtime_settings"

// LoadSettings reads the runtime settings document.
func (db *DB) LoadSettings(ctx context.Context) (config.Settings, error) {
	var s config.Settings

	err := db.GetSetting(ctx, settingsKey, &s)
	if err != nil {
		return config.Settings{}, err
	}

	return s, nil
}

// SaveSettings overwrites the runtime settings document.
func (db *DB) SaveSettings(ctx context.Context, s config.Settings) error {
	return db.SetSetting(ctx, settingsKey, s)
}

// SeedSettings writes defaults only when no settings document exists yet.
func (db *DB) SeedSettings(ctx context.Context, defaults config.Settings) error {
	_, err := db.LoadSettings(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, ErrSettingNotFound) {
		return err
	}

	return db.SaveSettings(ctx, defaults)
}
