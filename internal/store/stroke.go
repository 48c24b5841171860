package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airtrail/internal/detector"
)

// Stroke is a completed line as stored in the database.
type Stroke struct {
	ID         string             `json:"id"`
	PointCount int                `json:"point_count"`
	StartedAt  time.Time          `json:"started_at"`
	EndedAt    time.Time          `json:"ended_at"`
	CreatedAt  time.Time          `json:"created_at"`
	Points     []detector.Point3D `json:"points,omitempty"`
}

// StrokeRepository provides CRUD operations for strokes.
type StrokeRepository struct {
	db *sql.DB
}

// Strokes returns the stroke repository for this store.
func (s *Store) Strokes() *StrokeRepository {
	return &StrokeRepository{db: s.db}
}

// Create inserts a stroke and its points in a single transaction. An empty
// ID is replaced by a new UUID.
func (r *StrokeRepository) Create(ctx context.Context, st *Stroke) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.PointCount = len(st.Points)
	st.CreatedAt = time.Now()
	if st.EndedAt.IsZero() {
		st.EndedAt = st.CreatedAt
	}
	if st.StartedAt.IsZero() {
		st.StartedAt = st.EndedAt
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO strokes (id, point_count, started_at, ended_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		st.ID, st.PointCount, st.StartedAt, st.EndedAt, st.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stroke_points (stroke_id, sequence, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range st.Points {
		if _, err := stmt.ExecContext(ctx, st.ID, i, p.X, p.Y, p.Z); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a stroke with its points.
func (r *StrokeRepository) GetByID(ctx context.Context, id string) (*Stroke, error) {
	st := &Stroke{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, point_count, started_at, ended_at, created_at
		 FROM strokes WHERE id = ?`,
		id,
	).Scan(&st.ID, &st.PointCount, &st.StartedAt, &st.EndedAt, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT x, y, z FROM stroke_points WHERE stroke_id = ? ORDER BY sequence`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st.Points = make([]detector.Point3D, 0, st.PointCount)
	for rows.Next() {
		var p detector.Point3D
		if err := rows.Scan(&p.X, &p.Y, &p.Z); err != nil {
			return nil, err
		}
		st.Points = append(st.Points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return st, nil
}

// List returns stroke headers, newest first. A non-positive limit returns
// every stroke.
func (r *StrokeRepository) List(ctx context.Context, limit int) ([]*Stroke, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, point_count, started_at, ended_at, created_at
		 FROM strokes ORDER BY ended_at DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strokes []*Stroke
	for rows.Next() {
		st := &Stroke{}
		if err := rows.Scan(&st.ID, &st.PointCount, &st.StartedAt, &st.EndedAt, &st.CreatedAt); err != nil {
			return nil, err
		}
		strokes = append(strokes, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return strokes, nil
}

// Count returns the number of stored strokes.
func (r *StrokeRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM strokes`).Scan(&n)
	return n, err
}

// Delete removes a stroke and its points.
func (r *StrokeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM strokes WHERE id = ?`, id)
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
