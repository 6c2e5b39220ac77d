package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/checksum"
	"github.com/starford/framelens/internal/models"
)

// Record sources.
const (
	SourceBaseline = "baseline"
	SourceEnhanced = "enhanced"
	SourceEdited   = "edited"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Analysis is one persisted result, keyed by the selection it came from.
type Analysis struct {
	SelectionID string                `json:"selection_id"`
	Name        string                `json:"name"`
	Source      string                `json:"source"`
	Metadata    models.DesignMetadata `json:"metadata"`
	Checksum    string                `json:"checksum"`
	ImagePath   string                `json:"image_path,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// SaveAnalysis inserts or replaces the analysis for a.SelectionID and
// returns the stored row with its checksum and timestamp filled in.
func (db *DB) SaveAnalysis(ctx context.Context, a Analysis) (*Analysis, error) {
	if a.SelectionID == "" {
		return nil, fmt.Errorf("store: selection id is required")
	}
	blob, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, fmt.Errorf("store: encode metadata: %w", err)
	}
	if a.Source == "" {
		a.Source = SourceBaseline
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	a.Checksum = checksum.Sum(blob)

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO analyses (selection_id, name, source, metadata, checksum, image_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(selection_id) DO UPDATE SET
			name       = excluded.name,
			source     = excluded.source,
			metadata   = excluded.metadata,
			checksum   = excluded.checksum,
			image_path = excluded.image_path,
			updated_at = excluded.updated_at
	`, a.SelectionID, a.Name, a.Source, string(blob), a.Checksum, a.ImagePath, a.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("store: upsert analysis: %w", err)
	}
	return &a, nil
}

// GetAnalysis returns the analysis for selectionID or apperr.ErrNotFound.
func (db *DB) GetAnalysis(ctx context.Context, selectionID string) (*Analysis, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT selection_id, name, source, metadata, checksum, image_path, updated_at
		FROM analyses WHERE selection_id = ?
	`, selectionID)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnalyses returns a page of analyses, most recent first, and the total count.
func (db *DB) ListAnalyses(ctx context.Context, limit, offset int) ([]Analysis, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count analyses: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT selection_id, name, source, metadata, checksum, image_path, updated_at
		FROM analyses
		ORDER BY updated_at DESC, selection_id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list analyses: %w", err)
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// DeleteAnalysis removes the analysis for selectionID.
func (db *DB) DeleteAnalysis(ctx context.Context, selectionID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM analyses WHERE selection_id = ?`, selectionID)
	if err != nil {
		return fmt.Errorf("store: delete analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ImagePaths returns every image path referenced by a stored analysis.
func (db *DB) ImagePaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT image_path FROM analyses WHERE image_path != ''`)
	if err != nil {
		return nil, fmt.Errorf("store: image paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*Analysis, error) {
	var (
		a       Analysis
		blob    string
		updated string
	)
	if err := s.Scan(&a.SelectionID, &a.Name, &a.Source, &blob, &a.Checksum, &a.ImagePath, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &a.Metadata); err != nil {
		return nil, fmt.Errorf("store: decode metadata for %s: %w", a.SelectionID, err)
	}
	t, err := time.Parse(timeLayout, updated)
	if err != nil {
		return nil, fmt.Errorf("store: parse updated_at for %s: %w", a.SelectionID, err)
	}
	a.UpdatedAt = t
	return &a, nil
}
