package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/postural/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeToggle struct {
	mu      sync.Mutex
	enabled bool
}

func (f *fakeToggle) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeToggle) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func TestAPI_BindingWorkflow(t *testing.T) {
	s := newTestStore(t)

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a binding
	createBody := `{"command": "VOLUME_UP", "plugin_name": "system-control", "action_name": "volume-up", "config": {"step": 5}}`
	resp, err := client.Post(ts.URL+"/api/bindings", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/bindings error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created store.Binding
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Command != "VOLUME_UP" || !created.Enabled {
		t.Errorf("created = %+v", created)
	}

	// 2. A second binding for the same command conflicts
	resp, _ = client.Post(ts.URL+"/api/bindings", "application/json", bytes.NewBufferString(createBody))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate POST status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// 3. List bindings
	resp, _ = client.Get(ts.URL + "/api/bindings")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/bindings status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Bindings []store.Binding `json:"bindings"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Bindings) != 1 {
		t.Fatalf("len(bindings) = %d, want 1", len(listed.Bindings))
	}

	// 4. Disable it
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/bindings/"+created.ID, bytes.NewBufferString(`{"enabled": false}`))
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var updated store.Binding
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()

	if updated.Enabled {
		t.Error("binding should be disabled after PUT")
	}
	if updated.ActionName != "volume-up" {
		t.Errorf("action_name = %s, want volume-up", updated.ActionName)
	}

	// 5. Delete binding
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/bindings/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 6. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/bindings/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_EventHistory(t *testing.T) {
	s := newTestStore(t)

	for i, cmd := range []string{"VOLUME_UP", "PAUSE", "VOLUME_UP"} {
		err := s.Events().Record(&store.Event{
			ID:         string(rune('a' + i)),
			Command:    cmd,
			Rule:       "rule",
			PluginName: "system-control",
			ActionName: "volume-up",
			Success:    true,
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	ts := httptest.NewServer(New(Config{Store: s}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/events?limit=2")
	if err != nil {
		t.Fatalf("GET /api/events error = %v", err)
	}
	var listed struct {
		Events []store.Event `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(listed.Events))
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/events/stats")
	var stats struct {
		Counts map[string]int `json:"counts"`
	}
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()

	if stats.Counts["VOLUME_UP"] != 2 || stats.Counts["PAUSE"] != 1 {
		t.Errorf("counts = %v", stats.Counts)
	}
}

func TestAPI_StatusToggle(t *testing.T) {
	toggle := &fakeToggle{enabled: true}
	ts := httptest.NewServer(New(Config{Toggle: toggle}))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/status", bytes.NewBufferString(`{"enabled": false}`))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("PUT /api/status error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if toggle.IsEnabled() {
		t.Error("toggle should be disabled")
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/status")
	var body struct {
		Enabled bool `json:"enabled"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()

	if body.Enabled {
		t.Error("GET /api/status reported enabled")
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
