package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ayusman/postural/internal/app"
	"github.com/ayusman/postural/internal/capture"
	"github.com/ayusman/postural/internal/detector"
	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/plugin"
	"github.com/ayusman/postural/internal/server"
	"github.com/ayusman/postural/internal/store"
	"github.com/ayusman/postural/testdata"
)

const okPlugin = `#!/bin/sh
cat > /dev/null
echo '{"success":true}'
`

func writePlugin(t *testing.T, root string) {
	t.Helper()

	dir := filepath.Join(root, "system-control")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest, _ := json.Marshal(plugin.Manifest{
		Name:       "system-control",
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    []string{"volume-up", "volume-down", "volume-mute", "media-play-pause"},
	})
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(okPlugin), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestE2E_ClassifyFixtures(t *testing.T) {
	poses, err := testdata.LoadPoses()
	if err != nil {
		t.Fatalf("LoadPoses() error = %v", err)
	}
	if len(poses) == 0 {
		t.Fatal("no pose fixtures embedded")
	}

	ts := httptest.NewServer(server.New(server.Config{}))
	defer ts.Close()

	for _, pose := range poses {
		t.Run(pose.Name, func(t *testing.T) {
			body, _ := json.Marshal(pose.Snapshot)
			resp, err := ts.Client().Post(ts.URL+"/api/classify", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("POST /api/classify error = %v", err)
			}
			defer resp.Body.Close()

			var got struct {
				Command gesture.Command `json:"command"`
			}
			json.NewDecoder(resp.Body).Decode(&got)

			if got.Command != pose.Command {
				t.Errorf("command = %s, want %s", got.Command, pose.Command)
			}
		})
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	pluginRoot := filepath.Join(tmpDir, "plugins")
	writePlugin(t, pluginRoot)

	mockDetector := detector.NewMockDetector()
	application := app.New(app.Config{
		Store:          s,
		Camera:         capture.NewMockCamera(nil, false),
		Detector:       mockDetector,
		PluginDir:      pluginRoot,
		StableFrames:   2,
		RecordEvents:   true,
		EventRetention: 100,
	})
	if err := application.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}
	if err := application.SeedBindings(); err != nil {
		t.Fatalf("SeedBindings() error = %v", err)
	}

	srv := server.New(server.Config{
		Store:      s,
		Classifier: application.Classifier(),
		Plugins:    application.PluginManager(),
		Toggle:     application,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("DefaultBindingsListed", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/bindings")
		if err != nil {
			t.Fatalf("GET /api/bindings error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Bindings []store.Binding `json:"bindings"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)

		if len(listed.Bindings) != 2 {
			t.Fatalf("len(bindings) = %d, want 2", len(listed.Bindings))
		}
	})

	t.Run("RebindPauseToMute", func(t *testing.T) {
		b, err := s.Bindings().GetByCommand(string(gesture.CommandPause))
		if err != nil {
			t.Fatalf("GetByCommand() error = %v", err)
		}

		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/bindings/"+b.ID,
			strings.NewReader(`{"action_name": "volume-mute", "config": {}}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("RejectsUnknownAction", func(t *testing.T) {
		b, _ := s.Bindings().GetByCommand(string(gesture.CommandVolumeUp))

		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/bindings/"+b.ID,
			strings.NewReader(`{"action_name": "launch-rocket"}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("PosesDispatchActions", func(t *testing.T) {
		raised, err := testdata.LoadPose("arms_raised")
		if err != nil {
			t.Fatal(err)
		}
		hip, err := testdata.LoadPose("hand_on_hip")
		if err != nil {
			t.Fatal(err)
		}
		neutral, err := testdata.LoadPose("neutral")
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		for _, p := range []*testdata.Pose{raised, raised, neutral, hip, hip} {
			application.ProcessSnapshot(ctx, p.Snapshot)
		}

		resp, err := client.Get(ts.URL + "/api/events")
		if err != nil {
			t.Fatalf("GET /api/events error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Events []store.Event `json:"events"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)

		if len(listed.Events) != 2 {
			t.Fatalf("len(events) = %d, want 2: %+v", len(listed.Events), listed.Events)
		}
		// Newest first.
		if listed.Events[0].ActionName != "volume-mute" || !listed.Events[0].Success {
			t.Errorf("latest event = %+v, want successful volume-mute", listed.Events[0])
		}
		if listed.Events[1].ActionName != "volume-up" {
			t.Errorf("first event = %+v, want volume-up", listed.Events[1])
		}
	})

	t.Run("DisableStopsDispatch", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/status", strings.NewReader(`{"enabled": false}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/status error = %v", err)
		}
		resp.Body.Close()

		raised, _ := testdata.LoadPose("arms_raised")
		neutral, _ := testdata.LoadPose("neutral")
		for _, p := range []*testdata.Pose{neutral, raised, raised, raised} {
			application.ProcessSnapshot(context.Background(), p.Snapshot)
		}

		counts, err := s.Events().CountByCommand()
		if err != nil {
			t.Fatalf("CountByCommand() error = %v", err)
		}
		if counts[string(gesture.CommandVolumeUp)] != 1 {
			t.Errorf("VOLUME_UP events = %d, want 1", counts[string(gesture.CommandVolumeUp)])
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, _ := client.Get(ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
		resp.Body.Close()
	})
}
