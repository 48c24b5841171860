package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/airtrail/internal/gesture"
)

// ThresholdsKey is the settings key holding classifier overrides as JSON.
const ThresholdsKey = "thresholds"

// SettingsRepository stores key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value under key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// All returns every stored setting.
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// LoadThresholds overlays stored classifier overrides onto base. Keys that
// were never stored keep the base value. With nothing stored base is
// returned unchanged.
func (r *SettingsRepository) LoadThresholds(ctx context.Context, base gesture.Thresholds) (gesture.Thresholds, error) {
	raw, err := r.Get(ctx, ThresholdsKey)
	if errors.Is(err, ErrNotFound) {
		return base, nil
	}
	if err != nil {
		return base, err
	}

	th := base
	if err := json.Unmarshal([]byte(raw), &th); err != nil {
		return base, fmt.Errorf("decode stored thresholds: %w", err)
	}
	if err := th.Validate(); err != nil {
		return base, fmt.Errorf("stored thresholds: %w", err)
	}
	return th, nil
}

// SaveThresholds validates and stores th.
func (r *SettingsRepository) SaveThresholds(ctx context.Context, th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(th)
	if err != nil {
		return err
	}
	return r.Set(ctx, ThresholdsKey, string(data))
}
