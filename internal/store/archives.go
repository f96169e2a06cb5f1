package store

import (
	"context"
	"fmt"

	"github.com/makeasinger/studio/internal/model"
)

const archiveColumns = `id, generation_id, audio_id, object_key, url, size_bytes, created_at`

func scanArchive(row scanner) (*model.AudioArchive, error) {
	var a model.AudioArchive
	if err := row.Scan(&a.ID, &a.GenerationID, &a.AudioID, &a.ObjectKey, &a.URL, &a.SizeBytes, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordArchive stores where a variant was archived. Archiving the same
// variant again replaces the earlier record.
func (s *SQLStore) RecordArchive(ctx context.Context, a *model.AudioArchive) (*model.AudioArchive, error) {
	var out *model.AudioArchive
	err := retryOnBusy(ctx, func() error {
		var scanErr error
		out, scanErr = scanArchive(s.queryRow(ctx,
			`INSERT INTO audio_archives (generation_id, audio_id, object_key, url, size_bytes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (generation_id, audio_id) DO UPDATE SET
			   object_key = excluded.object_key, url = excluded.url,
			   size_bytes = excluded.size_bytes, created_at = excluded.created_at
			 RETURNING `+archiveColumns,
			a.GenerationID, a.AudioID, a.ObjectKey, a.URL, a.SizeBytes, now()))
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("record archive: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListArchives(ctx context.Context, generationID int64) ([]*model.AudioArchive, error) {
	rows, err := s.query(ctx,
		`SELECT `+archiveColumns+` FROM audio_archives WHERE generation_id = ? ORDER BY audio_id`, generationID)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var out []*model.AudioArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
