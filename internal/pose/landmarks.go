// Package pose defines body landmarks and the immutable per-frame snapshot
// that gesture classification consumes. It has no camera or cgo dependency.
package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLandmark is returned when a landmark name or index is not part of
// the pose model.
var ErrUnknownLandmark = errors.New("unknown landmark")

// Landmark identifies a body joint. Values follow the 33-point MediaPipe Pose
// indexing, which ML Kit pose detection shares.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type Landmark int

const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	// NumLandmarks is the number of landmarks in the pose model.
	NumLandmarks = int(RightFootIndex) + 1
)

var landmarkNames = [NumLandmarks]string{
	"NOSE",
	"LEFT_EYE_INNER",
	"LEFT_EYE",
	"LEFT_EYE_OUTER",
	"RIGHT_EYE_INNER",
	"RIGHT_EYE",
	"RIGHT_EYE_OUTER",
	"LEFT_EAR",
	"RIGHT_EAR",
	"MOUTH_LEFT",
	"MOUTH_RIGHT",
	"LEFT_SHOULDER",
	"RIGHT_SHOULDER",
	"LEFT_ELBOW",
	"RIGHT_ELBOW",
	"LEFT_WRIST",
	"RIGHT_WRIST",
	"LEFT_PINKY",
	"RIGHT_PINKY",
	"LEFT_INDEX",
	"RIGHT_INDEX",
	"LEFT_THUMB",
	"RIGHT_THUMB",
	"LEFT_HIP",
	"RIGHT_HIP",
	"LEFT_KNEE",
	"RIGHT_KNEE",
	"LEFT_ANKLE",
	"RIGHT_ANKLE",
	"LEFT_HEEL",
	"RIGHT_HEEL",
	"LEFT_FOOT_INDEX",
	"RIGHT_FOOT_INDEX",
}

// Valid reports whether l is a landmark of the pose model.
func (l Landmark) Valid() bool {
	return l >= 0 && int(l) < NumLandmarks
}

func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// ParseLandmark returns the landmark with the given upper-snake name.
func ParseLandmark(name string) (Landmark, error) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLandmark, name)
}

// MarshalText implements encoding.TextMarshaler so landmarks can key JSON objects.
func (l Landmark) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLandmark, int(l))
	}
	return []byte(landmarkNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Landmark) UnmarshalText(text []byte) error {
	parsed, err := ParseLandmark(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Point3D represents a 3D point in estimator space. Y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Snapshot is the immutable set of landmarks detected in one frame.
// A nil *Snapshot behaves as an empty one.
type Snapshot struct {
	points map[Landmark]Point3D
}

// NewSnapshot builds a snapshot from the given positions. The map is copied,
// so later changes by the caller do not affect the snapshot. Invalid landmark
// identities are ignored.
func NewSnapshot(points map[Landmark]Point3D) *Snapshot {
	s := &Snapshot{points: make(map[Landmark]Point3D, len(points))}
	for l, p := range points {
		if l.Valid() {
			s.points[l] = p
		}
	}
	return s
}

// Get returns the position of l and whether it was detected in this frame.
func (s *Snapshot) Get(l Landmark) (Point3D, bool) {
	if s == nil {
		return Point3D{}, false
	}
	p, ok := s.points[l]
	return p, ok
}

// Has reports whether l was detected.
func (s *Snapshot) Has(l Landmark) bool {
	_, ok := s.Get(l)
	return ok
}

// Lookup resolves several landmarks at once. It returns false if any of them
// is absent.
func (s *Snapshot) Lookup(ls ...Landmark) ([]Point3D, bool) {
	pts := make([]Point3D, len(ls))
	for i, l := range ls {
		p, ok := s.Get(l)
		if !ok {
			return nil, false
		}
		pts[i] = p
	}
	return pts, true
}

// Len returns the number of detected landmarks.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// IsEmpty reports whether no landmark was detected.
func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0
}

// Landmarks returns the detected landmark identities in model order.
func (s *Snapshot) Landmarks() []Landmark {
	if s == nil {
		return nil
	}
	ls := make([]Landmark, 0, len(s.points))
	for l := range s.points {
		ls = append(ls, l)
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })
	return ls
}

type jsonSnapshot struct {
	Landmarks map[Landmark]Point3D `json:"landmarks"`
}

// MarshalJSON encodes the snapshot as {"landmarks": {"LEFT_WRIST": {...}}}.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := jsonSnapshot{Landmarks: map[Landmark]Point3D{}}
	if s != nil {
		out.Landmarks = s.points
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form produced by MarshalJSON. Unknown landmark
// names are rejected.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in jsonSnapshot
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = *NewSnapshot(in.Landmarks)
	return nil
}
