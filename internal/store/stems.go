package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/makeasinger/studio/internal/model"
)

const stemColumns = `id, generation_id, audio_id, type, task_id, status, error_message,
	origin_url, instrumental_url, vocal_url, backing_vocals_url, drums_url, bass_url, guitar_url,
	keyboard_url, percussion_url, strings_url, synth_url, fx_url, brass_url, woodwinds_url,
	response_data, created_at, updated_at`

func scanStem(row scanner) (*model.StemSeparation, error) {
	var st model.StemSeparation
	var sepType, status string
	u := &st.StemURLs
	err := row.Scan(&st.ID, &st.GenerationID, &st.AudioID, &sepType, &st.TaskID, &status, &st.ErrorMessage,
		&u.OriginURL, &u.InstrumentalURL, &u.VocalURL, &u.BackingVocalsURL, &u.DrumsURL, &u.BassURL, &u.GuitarURL,
		&u.KeyboardURL, &u.PercussionURL, &u.StringsURL, &u.SynthURL, &u.FxURL, &u.BrassURL, &u.WoodwindsURL,
		&st.ResponseData, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.Type = model.SeparationType(sepType)
	st.Status = model.StemStatus(status)
	return &st, nil
}

func (s *SQLStore) CreateStemSeparation(ctx context.Context, in model.NewStemSeparation) (*model.StemSeparation, error) {
	ts := now()
	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.queryRow(ctx,
			`INSERT INTO stem_separations (generation_id, audio_id, type, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			in.GenerationID, in.AudioID, string(in.Type), string(model.StemPending), ts, ts,
		).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("create stem separation: %w", err)
	}

	return &model.StemSeparation{
		ID:           id,
		GenerationID: in.GenerationID,
		AudioID:      in.AudioID,
		Type:         in.Type,
		Status:       model.StemPending,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

func (s *SQLStore) GetStemSeparation(ctx context.Context, id int64) (*model.StemSeparation, error) {
	st, err := scanStem(s.queryRow(ctx, `SELECT `+stemColumns+` FROM stem_separations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stem separation: %w", err)
	}
	return st, nil
}

func (s *SQLStore) ListStemSeparations(ctx context.Context, generationID int64) ([]*model.StemSeparation, error) {
	return s.listStems(ctx, "list stem separations",
		`SELECT `+stemColumns+` FROM stem_separations WHERE generation_id = ? ORDER BY id`, generationID)
}

func (s *SQLStore) GetPendingStemSeparations(ctx context.Context) ([]*model.StemSeparation, error) {
	args := make([]any, 0, len(model.PendingStemStatuses))
	for _, st := range model.PendingStemStatuses {
		args = append(args, string(st))
	}
	return s.listStems(ctx, "get pending stem separations",
		`SELECT `+stemColumns+` FROM stem_separations WHERE status IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
}

func (s *SQLStore) listStems(ctx context.Context, op, query string, args ...any) ([]*model.StemSeparation, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*model.StemSeparation
	for rows.Next() {
		st, err := scanStem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stem separation: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteStemSeparation(ctx context.Context, id int64) error {
	return wrap("delete stem separation", s.execOne(ctx, `DELETE FROM stem_separations WHERE id = ?`, id))
}

func (s *SQLStore) SetStemTaskStarted(ctx context.Context, id int64, taskID string) error {
	err := s.execOne(ctx,
		`UPDATE stem_separations SET task_id = ?, status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		taskID, string(model.StemProcessing), now(), id)
	return wrap("set stem task started", err)
}

func (s *SQLStore) SetStemStatus(ctx context.Context, id int64, status model.StemStatus) error {
	err := s.execOne(ctx,
		`UPDATE stem_separations SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		string(status), now(), id)
	return wrap("set stem status", err)
}

func (s *SQLStore) SetStemErrored(ctx context.Context, id int64, message string) error {
	err := s.execOne(ctx,
		`UPDATE stem_separations SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(model.StemError), message, now(), id)
	return wrap("set stem errored", err)
}

func (s *SQLStore) SetStemCompleted(ctx context.Context, id int64, f model.StemURLs, responseData string) error {
	err := s.execOne(ctx,
		`UPDATE stem_separations SET status = ?, error_message = NULL,
			origin_url = COALESCE(?, origin_url), instrumental_url = COALESCE(?, instrumental_url),
			vocal_url = COALESCE(?, vocal_url), backing_vocals_url = COALESCE(?, backing_vocals_url),
			drums_url = COALESCE(?, drums_url), bass_url = COALESCE(?, bass_url), guitar_url = COALESCE(?, guitar_url),
			keyboard_url = COALESCE(?, keyboard_url), percussion_url = COALESCE(?, percussion_url),
			strings_url = COALESCE(?, strings_url), synth_url = COALESCE(?, synth_url), fx_url = COALESCE(?, fx_url),
			brass_url = COALESCE(?, brass_url), woodwinds_url = COALESCE(?, woodwinds_url),
			response_data = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.StemSuccess),
		f.OriginURL, f.InstrumentalURL, f.VocalURL, f.BackingVocalsURL,
		f.DrumsURL, f.BassURL, f.GuitarURL, f.KeyboardURL, f.PercussionURL,
		f.StringsURL, f.SynthURL, f.FxURL, f.BrassURL, f.WoodwindsURL,
		responseData, now(), id)
	return wrap("set stem completed", err)
}
