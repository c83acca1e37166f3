// Package detector turns camera frames into pose landmark snapshots.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/postural/internal/pose"
)

// Detector defines the interface for pose estimation implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the landmarks found in it.
	// A frame without a person yields an empty snapshot, not an error.
	Detect(frame *gocv.Mat) (*pose.Snapshot, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinVisibility is the minimum per-landmark visibility (0.0-1.0) for a
	// landmark to be included in the snapshot.
	MinVisibility float64

	// MinDetectionConf is the minimum person detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinVisibility:    0.5,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
