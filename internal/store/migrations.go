package store

import (
	"context"
	"fmt"
)

// migration is one schema step. Steps are applied in order and each
// bumps PRAGMA user_version to its position in migrations.
type migration struct {
	name       string
	statements []string
}

var migrations = []migration{
	{
		name: "settings",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		name: "strokes",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS strokes (
				id TEXT PRIMARY KEY,
				point_count INTEGER NOT NULL DEFAULT 0,
				started_at DATETIME NOT NULL,
				ended_at DATETIME NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			// Trail points in draw order, already rotated into trail space.
			`CREATE TABLE IF NOT EXISTS stroke_points (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				stroke_id TEXT NOT NULL REFERENCES strokes(id) ON DELETE CASCADE,
				sequence INTEGER NOT NULL,
				x REAL NOT NULL,
				y REAL NOT NULL,
				z REAL NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_stroke_points_stroke_id ON stroke_points(stroke_id, sequence)`,
			`CREATE INDEX IF NOT EXISTS idx_strokes_ended_at ON strokes(ended_at)`,
		},
	},
}

// SchemaVersion is the number of migrations applied to the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v)
	return v, err
}

// migrate applies every migration newer than the stored schema version,
// each in its own transaction.
func (s *Store) migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		m := migrations[i]
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
			}
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
	}
	return nil
}
