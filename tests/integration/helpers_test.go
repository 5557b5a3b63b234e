//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type snapshot struct {
	SessionID    string            `json:"session_id"`
	Phase        string            `json:"phase"`
	Loading      bool              `json:"loading"`
	Progress     int               `json:"progress"`
	Total        int               `json:"total"`
	CurrentIndex int               `json:"current_index"`
	Answers      map[string]string `json:"answers"`
	Score        int               `json:"score"`
	Complete     bool              `json:"complete"`
	Notice       string            `json:"notice"`
	Error        *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	Review *struct {
		Score int               `json:"score"`
		Total int               `json:"total"`
		Items []json.RawMessage `json:"items"`
	} `json:"review"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

func clientID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func doJSON(t *testing.T, method, url, client string, payload any, out any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if client != "" {
		req.Header.Set("X-Client-ID", client)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, client string, cfg map[string]string) snapshot {
	t.Helper()

	var snap snapshot
	status := doJSON(t, http.MethodPost, baseURL()+"/v1/sessions", client, cfg, &snap)
	if status != http.StatusAccepted {
		t.Fatalf("unexpected create status: %d", status)
	}
	if snap.SessionID == "" {
		t.Fatal("empty session id")
	}
	return snap
}

// waitSettled polls until the session leaves the loading phase.
func waitSettled(t *testing.T, id string, timeout time.Duration) snapshot {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var snap snapshot
		doJSON(t, http.MethodGet, baseURL()+"/v1/sessions/"+id, "", nil, &snap)
		if !snap.Loading {
			return snap
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("session %s still loading after %s", id, timeout)
	return snapshot{}
}
