package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/studio/internal/broadcast"
	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/config"
	"github.com/makeasinger/studio/internal/handler"
	"github.com/makeasinger/studio/internal/middleware"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/internal/store"
	"github.com/makeasinger/studio/internal/worker"
)

const testJWTSecret = "test-secret-for-e2e"

// fakeSuno emulates the generation API. Every generation finishes on its
// first status check with two variants, a1 and a2.
type fakeSuno struct {
	mu           sync.Mutex
	generateCode int
	generateMsg  string
	generated    int
	separated    int
}

func (f *fakeSuno) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/generate":
		f.generated++
		if f.generateCode != 0 && f.generateCode != client.CodeSuccess {
			_ = json.NewEncoder(w).Encode(map[string]any{"code": f.generateCode, "msg": f.generateMsg, "data": nil})
			return
		}
		_, _ = io.WriteString(w, `{"code":200,"msg":"success","data":{"taskId":"task-1"}}`)
	case "/api/v1/generate/record-info":
		_, _ = io.WriteString(w, `{"code":200,"msg":"success","data":{"taskId":"task-1","status":"SUCCESS",
			"response":{"sunoData":[
				{"id":"a1","audioUrl":"https://cdn.test/a1.mp3","streamAudioUrl":"https://cdn.test/a1.stream","imageUrl":"https://cdn.test/a1.jpg","duration":181.5},
				{"id":"a2","audioUrl":"https://cdn.test/a2.mp3","streamAudioUrl":"https://cdn.test/a2.stream","imageUrl":"https://cdn.test/a2.jpg","duration":176}
			]}}}`)
	case "/api/v1/vocal-removal/generate":
		f.separated++
		_, _ = io.WriteString(w, `{"code":200,"msg":"success","data":{"taskId":"stem-1"}}`)
	case "/api/v1/vocal-removal/record-info":
		_, _ = io.WriteString(w, `{"code":200,"msg":"success","data":{"taskId":"stem-1","successFlag":"SUCCESS",
			"response":{"originUrl":"https://cdn.test/origin.mp3","vocalUrl":"https://cdn.test/vocal.mp3","drumsUrl":"https://cdn.test/drums.mp3"}}}`)
	case "/api/v1/generate/credit":
		_, _ = io.WriteString(w, `{"code":200,"msg":"success","data":42.5}`)
	default:
		http.NotFound(w, r)
	}
}

// stepScheduler queues ticks until the test releases them
type stepScheduler struct {
	mu      sync.Mutex
	handler worker.TickHandler
	queue   []worker.Tick
}

func (s *stepScheduler) SetHandler(h worker.TickHandler) { s.handler = h }

func (s *stepScheduler) Schedule(_ context.Context, _ time.Duration, tick worker.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, tick)
	return nil
}

func (s *stepScheduler) drain() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}
		tick := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.handler(context.Background(), tick)
		n++
	}
}

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	suno      *fakeSuno
	scheduler *stepScheduler
	poller    *worker.Poller
	hub       *broadcast.Hub
	auth      *middleware.AuthMiddleware
}

// setupApp wires the app the way the serve command does, against a temp
// sqlite database and a fake generation API.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	suno := &fakeSuno{}
	srv := httptest.NewServer(suno)
	t.Cleanup(srv.Close)

	st, err := store.Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "e2e.db"),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	sunoClient := client.NewSunoClient(&config.SunoConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "V4_5",
		Timeout: 5 * time.Second,
	}, nil)

	validate := validator.New()
	hub := broadcast.NewHub(nil)
	sched := &stepScheduler{}
	poller := worker.NewPoller(st, sunoClient, hub, sched, config.PollerConfig{Interval: time.Second, MaxAttempts: 5}, nil)

	generationService := service.NewGenerationService(st, sunoClient, hub, poller, "V4_5", nil)
	stemService := service.NewStemService(st, sunoClient, hub, poller, nil)
	projectService := service.NewProjectService(st)
	annotationService := service.NewAnnotationService(st, hub)

	handlers := &handler.Handlers{
		Projects:    handler.NewProjectHandler(projectService, validate),
		Generations: handler.NewGenerationHandler(generationService, validate),
		Stems:       handler.NewStemHandler(stemService, validate),
		Annotations: handler.NewAnnotationHandler(annotationService, validate),
		Events:      handler.NewEventsHandler(hub),
		Health:      handler.NewHealthHandler(st, nil, sunoClient, poller, hub),
	}

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret, time.Hour)
	rateLimiter := middleware.NewRateLimiter(nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	handler.Register(app, handlers, handler.RouteOptions{
		Auth:          authMiddleware.Authenticate(),
		GenerateLimit: rateLimiter.GenerateLimit(10000),
		StemsLimit:    rateLimiter.StemsLimit(10000),
	})

	return &testApp{
		app:       app,
		suno:      suno,
		scheduler: sched,
		poller:    poller,
		hub:       hub,
		auth:      authMiddleware,
	}
}

// generateToken creates a JWT for test requests.
func (ta *testApp) generateToken(t *testing.T) string {
	t.Helper()
	token, err := ta.auth.GenerateToken("test-user-123", "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func (ta *testApp) doAuthRequest(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	resp, err := doRequest(ta.app, method, path, body, map[string]string{
		"Authorization": "Bearer " + ta.generateToken(t),
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// parseJSONList parses a JSON array response body.
func parseJSONList(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result []map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, resp.StatusCode, readBody(t, resp))
	}
}

// errorCode extracts error.code from an error envelope.
func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	return e["code"].(string)
}
