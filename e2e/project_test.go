package e2e

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectCRUD(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/projects", `{"name":"Debut","description":"first record"}`)
	assertStatus(t, resp, http.StatusCreated)
	id := int64(parseJSON(t, resp)["id"].(float64))

	resp = ta.doAuthRequest(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), `{"name":"Debut LP"}`)
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "Debut LP", parseJSON(t, resp)["name"])

	resp = ta.doAuthRequest(t, http.MethodGet, "/api/projects", "")
	assertStatus(t, resp, http.StatusOK)
	assert.Len(t, parseJSONList(t, resp), 1)

	resp = ta.doAuthRequest(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), "")
	assertStatus(t, resp, http.StatusNoContent)

	resp = ta.doAuthRequest(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestProject_Validation(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodPost, "/api/projects", `{"name":""}`)
	assertStatus(t, resp, http.StatusBadRequest)

	body := parseJSON(t, resp)
	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "required", details["Name"])

	resp = ta.doAuthRequest(t, http.MethodPut, "/api/projects/999", `{"name":"x"}`)
	assertStatus(t, resp, http.StatusNotFound)
}
