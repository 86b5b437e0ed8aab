package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

const baseURL = "http://localhost:8080"

// requireServer skips the suite when no server is listening; these tests run
// against a live instance, not an in-process one.
func requireServer(t *testing.T) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", "localhost:8080", 500*time.Millisecond)
	if err != nil {
		t.Skipf("history server not running on :8080: %v", err)
	}
	_ = conn.Close()
}

func getJSON(t *testing.T, path string, headers map[string]string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("failed to parse response: %v\nRaw: %s", err, string(body))
		}
	}

	return resp.StatusCode
}

func postJSON(t *testing.T, path string, payload any, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("failed to parse response: %v\nRaw: %s", err, string(raw))
		}
	}

	return resp.StatusCode
}
