// Package gesture classifies pose landmark snapshots into command labels.
//
// Classification is a pure function of one snapshot: an ordered list of
// rules is evaluated and the first rule that applies and matches decides
// the command. Nothing is remembered between frames; temporal smoothing
// lives in Stabilizer, which callers opt into.
package gesture

// Command is the discrete label produced for one frame.
type Command string

const (
	// CommandNone means no rule matched.
	CommandNone Command = "NONE"
	// CommandVolumeUp is produced by raising both arms.
	CommandVolumeUp Command = "VOLUME_UP"
	// CommandPause is produced by resting the left hand on the hip.
	CommandPause Command = "PAUSE"
)

// IsNone reports whether c carries no gesture.
func (c Command) IsNone() bool {
	return c == CommandNone || c == ""
}

// Feedback returns a short human-readable line for display.
func (c Command) Feedback() string {
	switch c {
	case CommandVolumeUp:
		return "Volume up"
	case CommandPause:
		return "Pause"
	case CommandNone, "":
		return "Waiting for gesture..."
	default:
		return string(c)
	}
}
