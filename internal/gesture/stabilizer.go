package gesture

import "sync"

// Stabilizer suppresses single-frame flicker by requiring a command to be
// observed on consecutive frames before it is reported. It is a caller-side
// helper; Classifier itself never keeps history.
type Stabilizer struct {
	mu        sync.Mutex
	required  int
	candidate Command
	count     int
	current   Command
}

// NewStabilizer creates a Stabilizer that needs frames consecutive equal
// observations. Values below 1 are treated as 1, which passes every command
// straight through.
func NewStabilizer(frames int) *Stabilizer {
	if frames < 1 {
		frames = 1
	}
	return &Stabilizer{
		required: frames,
		current:  CommandNone,
	}
}

// Observe feeds one frame's command and returns the stable command together
// with whether it changed on this frame.
func (s *Stabilizer) Observe(c Command) (Command, bool) {
	if c == "" {
		c = CommandNone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c == s.candidate {
		s.count++
	} else {
		s.candidate = c
		s.count = 1
	}

	if s.count >= s.required && c != s.current {
		s.current = c
		return c, true
	}
	return s.current, false
}

// Current returns the last stable command.
func (s *Stabilizer) Current() Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset forgets all history.
func (s *Stabilizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = ""
	s.count = 0
	s.current = CommandNone
}
