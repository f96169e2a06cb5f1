package e2e

import (
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
	checks, ok := body["checks"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'checks' field in response")
	}
	if checks["database"] != "ok" {
		t.Errorf("expected database 'ok', got %v", checks["database"])
	}
	if checks["suno"] != "configured" {
		t.Errorf("expected suno 'configured', got %v", checks["suno"])
	}
	if _, ok := checks["redis"]; ok {
		t.Error("expected no redis check without a redis client")
	}
}

func TestCredits(t *testing.T) {
	ta := setupApp(t)

	resp := ta.doAuthRequest(t, http.MethodGet, "/api/credits", "")
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["credits"] != 42.5 {
		t.Errorf("expected 42.5 credits, got %v", body["credits"])
	}
}

func TestAPI_NoAuth(t *testing.T) {
	ta := setupApp(t)

	for _, path := range []string{"/api/generations", "/api/projects", "/api/credits", "/api/events"} {
		resp, err := doRequest(ta.app, http.MethodGet, path, "", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusUnauthorized)
	}
}

func TestAPI_TokenQueryParam(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/projects?token="+ta.generateToken(t), "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
}

func TestWebsocket_RequiresUpgrade(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/ws/events", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUpgradeRequired)
}

func TestUnknownRoute(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/nope", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	if code := errorCode(t, parseJSON(t, resp)); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}
