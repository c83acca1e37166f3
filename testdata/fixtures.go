// Package testdata provides recorded pose snapshots for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/pose"
)

//go:embed poses/*.json
var posesFS embed.FS

// Pose is a labelled landmark snapshot.
type Pose struct {
	Name     string
	Command  gesture.Command
	Snapshot *pose.Snapshot
}

// LoadPose loads a pose by name, without the .json extension.
func LoadPose(name string) (*Pose, error) {
	data, err := posesFS.ReadFile("poses/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load pose %s: %w", name, err)
	}

	var snap pose.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode pose %s: %w", name, err)
	}

	var label struct {
		Command gesture.Command `json:"command"`
	}
	if err := json.Unmarshal(data, &label); err != nil {
		return nil, fmt.Errorf("decode pose %s: %w", name, err)
	}

	return &Pose{Name: name, Command: label.Command, Snapshot: &snap}, nil
}

// LoadPoses loads every embedded pose, sorted by name.
func LoadPoses() ([]*Pose, error) {
	entries, err := posesFS.ReadDir("poses")
	if err != nil {
		return nil, err
	}

	var poses []*Pose
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		p, err := LoadPose(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}

	return poses, nil
}
