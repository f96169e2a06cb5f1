// Package archive copies finished tracks from the provider CDN into object
// storage so they outlive the provider's expiring links.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

const (
	DefaultMaxBytes = 100 << 20
	downloadTimeout = 2 * time.Minute
	audioType       = "audio/mpeg"
)

var ErrTooLarge = errors.New("audio exceeds archive size limit")

// Store is the persistence the archiver reads and writes
type Store interface {
	GetGeneration(ctx context.Context, id int64) (*model.Generation, error)
	store.ArchiveStore
}

type Archiver struct {
	store    Store
	storage  client.StorageClient
	http     *http.Client
	maxBytes int64
	logger   *slog.Logger
}

func New(st Store, storage client.StorageClient, maxBytes int64, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Archiver{
		store:    st,
		storage:  storage,
		http:     &http.Client{Timeout: downloadTimeout},
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "archive")),
	}
}

// ObjectKey is where a variant of a generation is stored
func ObjectKey(generationID int64, audioID string) string {
	return fmt.Sprintf("generations/%d/%s.mp3", generationID, audioID)
}

// GenerationCompleted archives a freshly completed generation. Failures are
// logged; the job itself stays complete.
func (a *Archiver) GenerationCompleted(ctx context.Context, id int64) {
	archived, err := a.ArchiveGeneration(ctx, id)
	if err != nil {
		a.logger.Error("archive failed", slog.Int64("job_id", id), slog.Any("error", err))
		return
	}
	a.logger.Info("generation archived", slog.Int64("job_id", id), slog.Int("tracks", len(archived)))
}

// ArchiveGeneration copies every variant with a final audio URL. A variant
// that fails does not stop the others; the first error is returned.
func (a *Archiver) ArchiveGeneration(ctx context.Context, id int64) ([]*model.AudioArchive, error) {
	g, err := a.store.GetGeneration(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		out      []*model.AudioArchive
		firstErr error
	)
	for _, track := range []model.Track{g.Track1, g.Track2} {
		if track.AudioID == nil || track.AudioURL == nil {
			continue
		}
		archived, err := a.archiveTrack(ctx, g.ID, *track.AudioID, *track.AudioURL)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("archive %s: %w", *track.AudioID, err)
			}
			continue
		}
		out = append(out, archived)
	}
	return out, firstErr
}

func (a *Archiver) archiveTrack(ctx context.Context, generationID int64, audioID, sourceURL string) (*model.AudioArchive, error) {
	data, err := a.download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(generationID, audioID)
	url, err := a.storage.Upload(ctx, key, bytes.NewReader(data), audioType)
	if err != nil {
		return nil, err
	}

	return a.store.RecordArchive(ctx, &model.AudioArchive{
		GenerationID: generationID,
		AudioID:      audioID,
		ObjectKey:    key,
		URL:          url,
		SizeBytes:    int64(len(data)),
	})
}

func (a *Archiver) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if int64(len(data)) > a.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Purge deletes archived objects whose rows are already gone
func (a *Archiver) Purge(ctx context.Context, archives []*model.AudioArchive) {
	for _, ar := range archives {
		if err := a.storage.Delete(ctx, ar.ObjectKey); err != nil {
			a.logger.Warn("failed to delete archived audio",
				slog.Int64("job_id", ar.GenerationID),
				slog.String("key", ar.ObjectKey),
				slog.Any("error", err),
			)
		}
	}
}
