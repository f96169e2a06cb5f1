package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/makeasinger/studio/internal/model"
)

const generationColumns = `id, project_id, prompt, style, title, instrumental, model, task_id, status, error_message,
	track1_id, track1_stream_url, track1_audio_url, track1_image_url, track1_duration,
	track2_id, track2_stream_url, track2_audio_url, track2_image_url, track2_duration,
	response_data, created_at, updated_at`

func scanGeneration(row scanner) (*model.Generation, error) {
	var g model.Generation
	var status string
	err := row.Scan(&g.ID, &g.ProjectID, &g.Prompt, &g.Style, &g.Title, &g.Instrumental, &g.Model,
		&g.TaskID, &status, &g.ErrorMessage,
		&g.Track1.AudioID, &g.Track1.StreamURL, &g.Track1.AudioURL, &g.Track1.ImageURL, &g.Track1.Duration,
		&g.Track2.AudioID, &g.Track2.StreamURL, &g.Track2.AudioURL, &g.Track2.ImageURL, &g.Track2.Duration,
		&g.ResponseData, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Status = model.GenerationStatus(status)
	return &g, nil
}

func (s *SQLStore) CreateGeneration(ctx context.Context, in model.NewGeneration) (*model.Generation, error) {
	ts := now()
	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.queryRow(ctx,
			`INSERT INTO generations (project_id, prompt, style, title, instrumental, model, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			in.ProjectID, in.Prompt, in.Style, in.Title, in.Instrumental, in.Model,
			string(model.GenerationPending), ts, ts,
		).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}

	return &model.Generation{
		ID:           id,
		ProjectID:    in.ProjectID,
		Prompt:       in.Prompt,
		Style:        in.Style,
		Title:        in.Title,
		Instrumental: in.Instrumental,
		Model:        in.Model,
		Status:       model.GenerationPending,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

func (s *SQLStore) GetGeneration(ctx context.Context, id int64) (*model.Generation, error) {
	g, err := scanGeneration(s.queryRow(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

func (s *SQLStore) ListGenerations(ctx context.Context, projectID *int64) ([]*model.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations`
	var args []any
	if projectID != nil {
		query += ` WHERE project_id = ?`
		args = append(args, *projectID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return s.listGenerations(ctx, "list generations", query, args...)
}

func (s *SQLStore) GetPendingGenerations(ctx context.Context) ([]*model.Generation, error) {
	args := make([]any, 0, len(model.PendingGenerationStatuses))
	for _, st := range model.PendingGenerationStatuses {
		args = append(args, string(st))
	}
	query := `SELECT ` + generationColumns + ` FROM generations
		WHERE status IN (` + placeholders(len(args)) + `) ORDER BY id`
	return s.listGenerations(ctx, "get pending generations", query, args...)
}

func (s *SQLStore) listGenerations(ctx context.Context, op, query string, args ...any) ([]*model.Generation, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*model.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteGeneration(ctx context.Context, id int64) error {
	return wrap("delete generation", s.execOne(ctx, `DELETE FROM generations WHERE id = ?`, id))
}

func (s *SQLStore) SetGenerationTaskStarted(ctx context.Context, id int64, taskID string) error {
	err := s.execOne(ctx,
		`UPDATE generations SET task_id = ?, status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		taskID, string(model.GenerationProcessing), now(), id)
	return wrap("set generation task started", err)
}

func (s *SQLStore) SetGenerationStatus(ctx context.Context, id int64, status model.GenerationStatus) error {
	err := s.execOne(ctx,
		`UPDATE generations SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		string(status), now(), id)
	return wrap("set generation status", err)
}

func (s *SQLStore) SetGenerationErrored(ctx context.Context, id int64, message string) error {
	err := s.execOne(ctx,
		`UPDATE generations SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(model.GenerationError), message, now(), id)
	return wrap("set generation errored", err)
}

func (s *SQLStore) SetGenerationCompleted(ctx context.Context, id int64, t1, t2 model.CompletedTrack, responseData string) error {
	err := s.execOne(ctx,
		`UPDATE generations SET status = ?, error_message = NULL,
			track1_id = COALESCE(?, track1_id), track1_stream_url = COALESCE(?, track1_stream_url),
			track1_audio_url = COALESCE(?, track1_audio_url), track1_image_url = COALESCE(?, track1_image_url),
			track1_duration = COALESCE(?, track1_duration),
			track2_id = COALESCE(?, track2_id), track2_stream_url = COALESCE(?, track2_stream_url),
			track2_audio_url = COALESCE(?, track2_audio_url), track2_image_url = COALESCE(?, track2_image_url),
			track2_duration = COALESCE(?, track2_duration),
			response_data = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.GenerationSuccess),
		nullable(t1.AudioID), nullable(t1.StreamURL), nullable(t1.AudioURL), nullable(t1.ImageURL), nullableFloat(t1.Duration),
		nullable(t2.AudioID), nullable(t2.StreamURL), nullable(t2.AudioURL), nullable(t2.ImageURL), nullableFloat(t2.Duration),
		responseData, now(), id)
	return wrap("set generation completed", err)
}

// UpdateGenerationTracks merges provisional fields; absent values never clear stored ones.
func (s *SQLStore) UpdateGenerationTracks(ctx context.Context, id int64, t1, t2 model.ProvisionalTrack, responseData *string) error {
	err := s.execOne(ctx,
		`UPDATE generations SET
			track1_id = COALESCE(?, track1_id), track1_stream_url = COALESCE(?, track1_stream_url), track1_image_url = COALESCE(?, track1_image_url),
			track2_id = COALESCE(?, track2_id), track2_stream_url = COALESCE(?, track2_stream_url), track2_image_url = COALESCE(?, track2_image_url),
			response_data = COALESCE(?, response_data), updated_at = ?
		 WHERE id = ?`,
		nullable(t1.AudioID), nullable(t1.StreamURL), nullable(t1.ImageURL),
		nullable(t2.AudioID), nullable(t2.StreamURL), nullable(t2.ImageURL),
		responseData, now(), id)
	return wrap("update generation tracks", err)
}

// wrap adds the operation name; errors.Is(err, ErrNotFound) still holds
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
