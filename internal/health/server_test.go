package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jockey-agent/internal/store"
)

type fakeStore struct {
	err  error
	acts []store.Activity
}

func (f fakeStore) Ping(context.Context) error { return f.err }

func (f fakeStore) RecentActivity(_ context.Context, limit int) ([]store.Activity, error) {
	if len(f.acts) > limit {
		return f.acts[:limit], nil
	}
	return f.acts, nil
}

func TestHealthReportsAgentStatus(t *testing.T) {
	status := func() any {
		return map[string]any{"active": true, "archetype": "balanced"}
	}
	db := fakeStore{acts: []store.Activity{
		{ID: "01A", Kind: "train", Detail: "speed"},
		{ID: "01B", Kind: "race", Detail: "joined channel 7"},
	}}
	srv := httptest.NewServer(NewRouter(status, db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK     bool             `json:"ok"`
		DB     string           `json:"db"`
		Agent  map[string]any   `json:"agent"`
		Recent []map[string]any `json:"recent_activity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.OK || body.DB != "up" {
		t.Fatalf("body = %+v, want ok/up", body)
	}
	if body.Agent["archetype"] != "balanced" {
		t.Fatalf("agent = %+v, want archetype balanced", body.Agent)
	}
	if len(body.Recent) != 2 || body.Recent[0]["kind"] != "train" {
		t.Fatalf("recent_activity = %+v, want the two log records", body.Recent)
	}
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	srv := httptest.NewServer(NewRouter(nil, fakeStore{err: errors.New("db gone")}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(NewRouter(nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	if got := string(buf[:n]); got != "pong" {
		t.Fatalf("body = %q, want pong", got)
	}
}

func TestDebugVarsServed(t *testing.T) {
	srv := httptest.NewServer(NewRouter(nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/vars")
	if err != nil {
		t.Fatalf("GET /debug/vars: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
