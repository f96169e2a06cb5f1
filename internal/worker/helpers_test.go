package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/config"
	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "worker_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

// manualScheduler queues ticks until the test runs them
type manualScheduler struct {
	mu      sync.Mutex
	handler TickHandler
	queue   []scheduledTick
	total   int
}

type scheduledTick struct {
	delay time.Duration
	tick  Tick
}

func (s *manualScheduler) SetHandler(h TickHandler) { s.handler = h }

func (s *manualScheduler) Schedule(_ context.Context, delay time.Duration, tick Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scheduledTick{delay, tick})
	s.total++
	return nil
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// runNext runs the oldest queued tick
func (s *manualScheduler) runNext() bool {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	s.handler(context.Background(), next.tick)
	return true
}

// drain runs ticks until none are queued and returns how many ran
func (s *manualScheduler) drain(t *testing.T) int {
	t.Helper()
	n := 0
	for s.runNext() {
		n++
		require.LessOrEqual(t, n, 1000, "poller never terminated")
	}
	return n
}

type genReply struct {
	details *client.GenerationDetails
	err     error
}

type stemReply struct {
	details *client.StemDetails
	err     error
}

// fakeAPI replays scripted replies; the last reply repeats
type fakeAPI struct {
	mu        sync.Mutex
	gen       []genReply
	stem      []stemReply
	genCalls  []string
	stemCalls []string
}

func (f *fakeAPI) Generate(context.Context, *client.GenerateRequest) (*client.TaskResponse, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeAPI) SeparateStems(context.Context, *client.SeparationRequest) (*client.TaskResponse, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeAPI) GetGenerationDetails(_ context.Context, taskID string) (*client.GenerationDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls = append(f.genCalls, taskID)
	if len(f.gen) == 0 {
		return nil, errors.New("no reply scripted")
	}
	r := f.gen[0]
	if len(f.gen) > 1 {
		f.gen = f.gen[1:]
	}
	return r.details, r.err
}

func (f *fakeAPI) GetStemDetails(_ context.Context, taskID string) (*client.StemDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stemCalls = append(f.stemCalls, taskID)
	if len(f.stem) == 0 {
		return nil, errors.New("no reply scripted")
	}
	r := f.stem[0]
	if len(f.stem) > 1 {
		f.stem = f.stem[1:]
	}
	return r.details, r.err
}

type fakeHub struct {
	mu     sync.Mutex
	events []model.Event
}

func (h *fakeHub) BroadcastGeneration(eventType model.EventType, id int64, payload model.GenerationPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, model.Event{Type: eventType, GenerationID: id, Data: payload})
}

func (h *fakeHub) BroadcastStem(eventType model.EventType, stem *model.StemSeparation, payload model.StemPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, model.Event{
		Type:             eventType,
		GenerationID:     stem.GenerationID,
		StemSeparationID: stem.ID,
		AudioID:          stem.AudioID,
		Data:             payload,
	})
}

func (h *fakeHub) types() []model.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.EventType, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

func (h *fakeHub) last() model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

func genStatus(status string, tracks ...client.TrackData) genReply {
	data := &client.GenerationData{TaskID: "t1", Status: status}
	if len(tracks) > 0 {
		data.Response = &client.GenerationResponse{Tracks: tracks}
	}
	return genReply{details: &client.GenerationDetails{Code: client.CodeSuccess, Msg: "success", Data: data}}
}

func genFailed(status, message string) genReply {
	r := genStatus(status)
	if message != "" {
		r.details.Data.ErrorMessage = &message
	}
	return r
}

func streamingTrack(id string) client.TrackData {
	return client.TrackData{ID: id, StreamAudioURL: "https://cdn/" + id + ".stream", ImageURL: "https://cdn/" + id + ".jpg"}
}

func finalTrack(id string) client.TrackData {
	return client.TrackData{
		ID:             id,
		StreamAudioURL: "https://cdn/" + id + ".stream",
		AudioURL:       "https://cdn/" + id + ".mp3",
		ImageURL:       "https://cdn/" + id + ".jpg",
		Duration:       120.5,
	}
}

func stemStatus(flag string, response *client.StemURLs) stemReply {
	return stemReply{details: &client.StemDetails{
		Code: client.CodeSuccess,
		Msg:  "success",
		Data: &client.StemData{TaskID: "s1", SuccessFlag: flag, Response: response},
	}}
}

type testPoller struct {
	*Poller
	store     *store.SQLStore
	api       *fakeAPI
	hub       *fakeHub
	scheduler *manualScheduler
}

func newTestPoller(t *testing.T) *testPoller {
	t.Helper()
	st := newTestStore(t)
	api := &fakeAPI{}
	hub := &fakeHub{}
	sched := &manualScheduler{}
	p := NewPoller(st, api, hub, sched, config.PollerConfig{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts}, nil)
	return &testPoller{Poller: p, store: st, api: api, hub: hub, scheduler: sched}
}

// startedGeneration creates a generation that the API has accepted as task t1
func (tp *testPoller) startedGeneration(t *testing.T) *model.Generation {
	t.Helper()
	ctx := context.Background()
	g, err := tp.store.CreateGeneration(ctx, model.NewGeneration{Prompt: "synthwave", Model: "V4_5"})
	require.NoError(t, err)
	require.NoError(t, tp.store.SetGenerationTaskStarted(ctx, g.ID, "t1"))
	return g
}

func (tp *testPoller) startedStem(t *testing.T) *model.StemSeparation {
	t.Helper()
	ctx := context.Background()
	g := tp.startedGeneration(t)
	s, err := tp.store.CreateStemSeparation(ctx, model.NewStemSeparation{GenerationID: g.ID, AudioID: "a1", Type: model.SeparationStems})
	require.NoError(t, err)
	require.NoError(t, tp.store.SetStemTaskStarted(ctx, s.ID, "s1"))
	s.TaskID = strPtr("s1")
	return s
}

func strPtr(s string) *string { return &s }
