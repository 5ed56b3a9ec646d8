package game

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glebk/rehab-clicker/internal/domain"
)

// DefaultRehabText is the passage players must type to complete rehab
const DefaultRehabText = "Recovery is a difficult journey that requires commitment and perseverance. " +
	"Each day sober is a victory in the battle against addiction. " +
	"You have the strength within you to overcome this challenge and rebuild your life. " +
	"Stay focused on your goals and remember why you started this journey."

// RehabChallenge verifies typed input against a fixed reference text
type RehabChallenge struct {
	reference string
	open      bool
	openedAt  time.Time
}

// NewRehabChallenge creates a closed challenge
func NewRehabChallenge(reference string) *RehabChallenge {
	return &RehabChallenge{reference: reference}
}

// Reference returns the text to type
func (c *RehabChallenge) Reference() string {
	return c.reference
}

// Open starts the challenge
func (c *RehabChallenge) Open(now time.Time) {
	c.open = true
	c.openedAt = now
}

// IsOpen reports whether the challenge is accepting attempts
func (c *RehabChallenge) IsOpen() bool {
	return c.open
}

// OpenedAt returns when the challenge was last opened
func (c *RehabChallenge) OpenedAt() time.Time {
	return c.openedAt
}

// Cancel closes the challenge without touching any state
func (c *RehabChallenge) Cancel() {
	c.open = false
}

// Matches reports whether input equals the reference once trimmed at both ends
func (c *RehabChallenge) Matches(input string) bool {
	return strings.TrimSpace(input) == c.reference
}

// Attempt checks input and, on a match, resets state and closes the challenge.
// A mismatch leaves both the state and the challenge as they were.
func (c *RehabChallenge) Attempt(input string, state *domain.SessionState) error {
	if !c.open {
		return domain.Refused(domain.ReasonRehabClosed)
	}
	if !c.Matches(input) {
		return domain.ErrChallengeFailed
	}
	state.CompleteRehab()
	c.open = false
	return nil
}

// Violation is an attempt to bypass literal typing
type Violation string

const (
	ViolationPaste       Violation = "paste"
	ViolationCopy        Violation = "copy"
	ViolationCut         Violation = "cut"
	ViolationDrop        Violation = "drop"
	ViolationDrag        Violation = "drag"
	ViolationContextMenu Violation = "context_menu"
	ViolationForward     Violation = "forward"
)

// Warning returns the message shown to the player, empty for silent suppression
func (v Violation) Warning() string {
	switch v {
	case ViolationPaste:
		return "Pasting is not allowed in rehab!"
	case ViolationCopy:
		return "Copying is not allowed in rehab!"
	case ViolationCut:
		return "Cutting is not allowed in rehab!"
	case ViolationDrop, ViolationDrag:
		return "Dragging text is not allowed in rehab!"
	case ViolationForward:
		return "Forwarding text is not allowed in rehab!"
	default:
		return ""
	}
}

// TypingTooFast reports whether text arrived faster than maxRate characters per
// second since the challenge opened. A non-positive maxRate disables the check.
func TypingTooFast(text string, elapsed time.Duration, maxRate float64) bool {
	if maxRate <= 0 {
		return false
	}
	chars := utf8.RuneCountInString(strings.TrimSpace(text))
	if chars == 0 {
		return false
	}
	if elapsed <= 0 {
		return true
	}
	return float64(chars)/elapsed.Seconds() > maxRate
}
