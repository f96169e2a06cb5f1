package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventType(t *testing.T, msg []byte) string {
	t.Helper()
	var e struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(msg, &e))
	return e.Type
}

func TestAnnotations(t *testing.T) {
	ta := setupApp(t)
	genID := completedGeneration(t, ta)
	events := ta.hub.Subscribe(16)

	path := fmt.Sprintf("/api/generations/%d/annotations/a2", genID)
	resp := ta.doAuthRequest(t, http.MethodPut, path, `{"rating":4,"favorite":true,"labels":["keeper"]}`)
	assertStatus(t, resp, http.StatusOK)
	first := parseJSON(t, resp)
	assert.EqualValues(t, 4, first["rating"])

	resp = ta.doAuthRequest(t, http.MethodPut, path, `{"rating":5,"notes":"chorus hits"}`)
	assertStatus(t, resp, http.StatusOK)
	second := parseJSON(t, resp)
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, []interface{}{}, second["labels"])

	resp = ta.doAuthRequest(t, http.MethodGet, path, "")
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "chorus hits", parseJSON(t, resp)["notes"])

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d/annotations", genID), "")
	assertStatus(t, resp, http.StatusOK)
	assert.Len(t, parseJSONList(t, resp), 1)

	select {
	case msg := <-events.Messages():
		assert.Equal(t, "annotation_update", eventType(t, msg))
	case <-time.After(time.Second):
		t.Fatal("expected an annotation event")
	}
}

func TestAnnotations_Rejections(t *testing.T) {
	ta := setupApp(t)
	genID := completedGeneration(t, ta)

	resp := ta.doAuthRequest(t, http.MethodPut, fmt.Sprintf("/api/generations/%d/annotations/zz", genID), `{"rating":1}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = ta.doAuthRequest(t, http.MethodPut, fmt.Sprintf("/api/generations/%d/annotations/a1", genID), `{"rating":9}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/generations/%d/annotations/a1", genID), "")
	assertStatus(t, resp, http.StatusNotFound)

	resp = ta.doAuthRequest(t, http.MethodPut, "/api/generations/999/annotations/a1", `{"rating":1}`)
	assertStatus(t, resp, http.StatusNotFound)
}
