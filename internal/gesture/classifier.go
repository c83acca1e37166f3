package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/postural/internal/pose"
)

// ErrInvalidRule is returned by NewClassifier for a malformed rule list.
var ErrInvalidRule = errors.New("invalid rule")

// Result is the outcome of classifying one snapshot.
type Result struct {
	Command Command `json:"command"`
	// Rule is the name of the rule that fired, empty for CommandNone.
	Rule string `json:"rule,omitempty"`
}

// Classifier evaluates an ordered rule list against landmark snapshots.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules, evaluated in order.
func NewClassifier(rules []Rule) (*Classifier, error) {
	seen := make(map[string]bool, len(rules))
	copied := make([]Rule, 0, len(rules))

	for i, r := range rules {
		switch {
		case r.Name == "":
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidRule, i)
		case seen[r.Name]:
			return nil, fmt.Errorf("%w: duplicate rule %q", ErrInvalidRule, r.Name)
		case r.Command.IsNone():
			return nil, fmt.Errorf("%w: rule %q produces no command", ErrInvalidRule, r.Name)
		case r.Match == nil:
			return nil, fmt.Errorf("%w: rule %q has no predicate", ErrInvalidRule, r.Name)
		}
		seen[r.Name] = true

		r.Requires = append([]pose.Landmark(nil), r.Requires...)
		copied = append(copied, r)
	}

	return &Classifier{rules: copied}, nil
}

// NewDefaultClassifier returns a classifier over DefaultRules.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		r.Requires = append([]pose.Landmark(nil), r.Requires...)
		out[i] = r
	}
	return out
}

// Classify returns the command for the snapshot.
func (c *Classifier) Classify(s *pose.Snapshot) Command {
	return c.Evaluate(s).Command
}

// Evaluate returns the command for the snapshot along with the rule that
// produced it. The first rule whose landmarks are all present and whose
// predicate holds wins. Missing landmarks only make a rule inapplicable.
func (c *Classifier) Evaluate(s *pose.Snapshot) Result {
	if s.IsEmpty() {
		return Result{Command: CommandNone}
	}

	for _, r := range c.rules {
		pts, ok := s.Lookup(r.Requires...)
		if !ok {
			continue
		}
		if r.Match(pts) {
			return Result{Command: r.Command, Rule: r.Name}
		}
	}

	return Result{Command: CommandNone}
}
