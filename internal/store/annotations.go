package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/makeasinger/studio/internal/model"
)

const annotationColumns = `id, generation_id, audio_id, rating, favorite, notes, labels, created_at, updated_at`

func scanAnnotation(row scanner) (*model.Annotation, error) {
	var a model.Annotation
	var labels string
	if err := row.Scan(&a.ID, &a.GenerationID, &a.AudioID, &a.Rating, &a.Favorite, &a.Notes, &labels,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labels), &a.Labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if a.Labels == nil {
		a.Labels = []string{}
	}
	return &a, nil
}

// UpsertAnnotation creates or replaces the annotation for (generation_id, audio_id).
func (s *SQLStore) UpsertAnnotation(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	labels := a.Labels
	if labels == nil {
		labels = []string{}
	}
	encoded, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	ts := now()
	var out *model.Annotation
	err = retryOnBusy(ctx, func() error {
		var scanErr error
		out, scanErr = scanAnnotation(s.queryRow(ctx,
			`INSERT INTO annotations (generation_id, audio_id, rating, favorite, notes, labels, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (generation_id, audio_id) DO UPDATE SET
			   rating = excluded.rating, favorite = excluded.favorite, notes = excluded.notes,
			   labels = excluded.labels, updated_at = excluded.updated_at
			 RETURNING `+annotationColumns,
			a.GenerationID, a.AudioID, a.Rating, a.Favorite, a.Notes, string(encoded), ts, ts))
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("upsert annotation: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetAnnotation(ctx context.Context, generationID int64, audioID string) (*model.Annotation, error) {
	a, err := scanAnnotation(s.queryRow(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE generation_id = ? AND audio_id = ?`,
		generationID, audioID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get annotation: %w", err)
	}
	return a, nil
}

func (s *SQLStore) ListAnnotations(ctx context.Context, generationID int64) ([]*model.Annotation, error) {
	rows, err := s.query(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE generation_id = ? ORDER BY audio_id`, generationID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var out []*model.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
