package gesture

import "github.com/ayusman/postural/internal/pose"

// RuleSetVersion identifies the default rule list. Bump it whenever a rule is
// added, removed, reordered or retuned.
const RuleSetVersion = "1"

// Hand-on-hip elbow angle band, exclusive on both ends.
const (
	HipAngleMin = 70.0
	HipAngleMax = 110.0
)

// Rule maps a geometric predicate over required landmarks to a command.
type Rule struct {
	// Name is a stable identifier, unique within a classifier.
	Name string
	// Command is returned when the rule matches.
	Command Command
	// Requires lists the landmarks the rule needs. If any is absent the rule
	// does not apply.
	Requires []pose.Landmark
	// Match receives the positions of Requires, in the same order.
	Match func(pts []pose.Point3D) bool
}

// ArmsRaisedRule fires when both wrists are above their same-side shoulders.
func ArmsRaisedRule() Rule {
	return Rule{
		Name:    "arms-raised",
		Command: CommandVolumeUp,
		Requires: []pose.Landmark{
			pose.LeftShoulder,
			pose.RightShoulder,
			pose.LeftWrist,
			pose.RightWrist,
		},
		Match: func(pts []pose.Point3D) bool {
			return IsAbove(pts[2], pts[0]) && IsAbove(pts[3], pts[1])
		},
	}
}

// HandOnHipRule fires when the left arm is bent close to a right angle at the
// elbow, measured between the wrist and the hip.
func HandOnHipRule() Rule {
	return Rule{
		Name:    "hand-on-hip",
		Command: CommandPause,
		Requires: []pose.Landmark{
			pose.LeftWrist,
			pose.LeftElbow,
			pose.LeftHip,
		},
		Match: func(pts []pose.Point3D) bool {
			angle := JointAngle(pts[0], pts[1], pts[2])
			return angle > HipAngleMin && angle < HipAngleMax
		},
	}
}

// DefaultRules returns the built-in rules in priority order. Earlier rules
// shadow later ones, so new gestures go at the end unless they are meant to
// take precedence.
func DefaultRules() []Rule {
	return []Rule{
		ArmsRaisedRule(),
		HandOnHipRule(),
	}
}
