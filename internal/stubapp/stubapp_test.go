package stubapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIndex_ReadyImmediately(t *testing.T) {
	srv := httptest.NewServer(New(0))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestIndex_NotReadyDuringDelay(t *testing.T) {
	srv := httptest.NewServer(New(time.Hour))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while starting, got %d", resp.StatusCode)
	}
}

func TestHealth_ReportsState(t *testing.T) {
	srv := httptest.NewServer(New(0))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", body["status"])
	}
}

func TestBecomesReady(t *testing.T) {
	srv := httptest.NewServer(New(50 * time.Millisecond))
	defer srv.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/")
		if err != nil {
			t.Fatalf("GET / failed: %v", err)
		}
		code := resp.StatusCode
		resp.Body.Close()
		if code == http.StatusOK {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("stub app never became ready")
}
