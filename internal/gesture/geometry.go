package gesture

import (
	"math"

	"github.com/ayusman/postural/internal/pose"
)

// IsAbove reports whether a is physically higher than b. Estimator space has
// y growing downward, so a is above b when its Y is strictly smaller.
func IsAbove(a, b pose.Point3D) bool {
	return a.Y < b.Y
}

// JointAngle returns the angle in degrees at vertex between the rays
// vertex→p1 and vertex→p3, in [0, 180].
//
// Only X and Y take part; depth is ignored. A zero-length ray has direction
// math.Atan2(0, 0) == 0, so coincident points still produce a determinate,
// if meaningless, angle.
func JointAngle(p1, vertex, p3 pose.Point3D) float64 {
	a1 := math.Atan2(p1.Y-vertex.Y, p1.X-vertex.X)
	a3 := math.Atan2(p3.Y-vertex.Y, p3.X-vertex.X)

	angle := math.Abs((a3 - a1) * 180 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	return angle
}
