package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeasinger/studio/internal/model"
)

func startGeneration(t *testing.T, ta *testApp, body string) int64 {
	t.Helper()
	resp := ta.doAuthRequest(t, http.MethodPost, "/api/generations", body)
	assertStatus(t, resp, http.StatusAccepted)
	result := parseJSON(t, resp)
	return int64(result["id"].(float64))
}

func TestGenerationLifecycle(t *testing.T) {
	ta := setupApp(t)
	events := ta.hub.Subscribe(16)

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/generations", `{"prompt":"dream pop about the sea","style":"shoegaze","title":"Tides"}`)
	assertStatus(t, resp, http.StatusAccepted)

	created := parseJSON(t, resp)
	assert.Equal(t, "processing", created["status"])
	assert.Equal(t, "task-1", created["task_id"])
	assert.Equal(t, "V4_5", created["model"])
	id := int64(created["id"].(float64))
	assert.True(t, ta.poller.Active(model.JobKindGeneration, id))

	assert.Equal(t, 1, ta.scheduler.drain())
	assert.False(t, ta.poller.Active(model.JobKindGeneration, id))

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d", id), "")
	assertStatus(t, resp, http.StatusOK)
	got := parseJSON(t, resp)
	assert.Equal(t, "success", got["status"])
	track2 := got["track2"].(map[string]interface{})
	assert.Equal(t, "a2", track2["id"])
	assert.Equal(t, "https://cdn.test/a2.mp3", track2["audio_url"])

	var types []string
	for len(types) < 2 {
		select {
		case msg := <-events.Messages():
			types = append(types, eventType(t, msg))
		case <-time.After(time.Second):
			t.Fatalf("expected two events, got %v", types)
		}
	}
	assert.Equal(t, []string{"generation_update", "generation_complete"}, types)
}

func TestCreateGeneration_InvalidBody(t *testing.T) {
	ta := setupApp(t)

	cases := map[string]string{
		"missing prompt": `{"style":"pop"}`,
		"unknown model":  `{"prompt":"x","model":"V1"}`,
		"not json":       `prompt=x`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := ta.doAuthRequest(t, http.MethodPost, "/api/generations", body)
			assertStatus(t, resp, http.StatusBadRequest)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, parseJSON(t, resp)))
		})
	}
	assert.Zero(t, ta.suno.generated)
}

func TestCreateGeneration_Rejected(t *testing.T) {
	ta := setupApp(t)
	ta.suno.generateCode = 429
	ta.suno.generateMsg = "insufficient credits"

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/generations", `{"prompt":"x"}`)
	assertStatus(t, resp, http.StatusBadGateway)

	body := parseJSON(t, resp)
	e := body["error"].(map[string]interface{})
	assert.Equal(t, "JOB_FAILED", e["code"])
	assert.Equal(t, "insufficient credits", e["message"])
	details := e["details"].(map[string]interface{})
	assert.Equal(t, "error", details["status"])
	assert.Zero(t, ta.poller.ActiveCount())

	// the failed job stays queryable
	id := int64(details["id"].(float64))
	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d", id), "")
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "insufficient credits", parseJSON(t, resp)["error_message"])
}

func TestCreateGeneration_UnknownProject(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/generations", `{"prompt":"x","project_id":999}`)
	assertStatus(t, resp, http.StatusNotFound)
	assert.Zero(t, ta.suno.generated)
}

func TestGetGeneration_Errors(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodGet, "/api/generations/999", "")
	assertStatus(t, resp, http.StatusNotFound)

	resp = ta.doAuthRequest(t, http.MethodGet, "/api/generations/abc", "")
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestDeleteGeneration_StopsPolling(t *testing.T) {
	ta := setupApp(t)
	id := startGeneration(t, ta, `{"prompt":"x"}`)
	require.True(t, ta.poller.Active(model.JobKindGeneration, id))

	resp := ta.doAuthRequest(t, http.MethodDelete, fmt.Sprintf("/api/generations/%d", id), "")
	assertStatus(t, resp, http.StatusNoContent)
	assert.False(t, ta.poller.Active(model.JobKindGeneration, id))

	// the queued tick is dropped without touching the api
	ta.scheduler.drain()

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d", id), "")
	assertStatus(t, resp, http.StatusNotFound)

	resp = ta.doAuthRequest(t, http.MethodDelete, fmt.Sprintf("/api/generations/%d", id), "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestListGenerations_ByProject(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/projects", `{"name":"Album"}`)
	assertStatus(t, resp, http.StatusCreated)
	projectID := int64(parseJSON(t, resp)["id"].(float64))

	startGeneration(t, ta, fmt.Sprintf(`{"prompt":"in project","project_id":%d}`, projectID))
	startGeneration(t, ta, `{"prompt":"loose"}`)

	resp = ta.doAuthRequest(t, http.MethodGet, "/api/generations", "")
	assertStatus(t, resp, http.StatusOK)
	assert.Len(t, parseJSONList(t, resp), 2)

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations?project_id=%d", projectID), "")
	assertStatus(t, resp, http.StatusOK)
	list := parseJSONList(t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "in project", list[0]["prompt"])

	resp = ta.doAuthRequest(t, http.MethodGet, "/api/generations?project_id=x", "")
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestGenerationArchives_WithoutStorage(t *testing.T) {
	ta := setupApp(t)
	id := completedGeneration(t, ta)

	resp := ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d/archives", id), "")
	assertStatus(t, resp, http.StatusOK)
	assert.Empty(t, parseJSONList(t, resp))

	resp = ta.doAuthRequest(t, http.MethodGet, "/api/generations/999/archives", "")
	assertStatus(t, resp, http.StatusNotFound)
}
