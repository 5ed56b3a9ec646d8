package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRefused is matched by every *RefusedError
	ErrRefused = errors.New("action refused")
	// ErrChallengeFailed is returned when a rehab attempt does not match the reference text
	ErrChallengeFailed = errors.New("rehab challenge failed")
	// ErrSubstanceNotFound is returned for ids that are not in the catalog
	ErrSubstanceNotFound = errors.New("substance not found")
)

// RefusalReason explains why a precondition was not met
type RefusalReason string

const (
	ReasonEffectActive      RefusalReason = "effect_active"
	ReasonInsufficientFunds RefusalReason = "insufficient_funds"
	ReasonRehabUnavailable  RefusalReason = "rehab_unavailable"
	ReasonRehabClosed       RefusalReason = "rehab_closed"
	ReasonClosed            RefusalReason = "game_closed"
)

// RefusedError is a silent no-op outcome, not a fault
type RefusedError struct {
	Reason RefusalReason
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("action refused: %s", e.Reason)
}

// Is makes errors.Is(err, ErrRefused) hold for any refusal
func (e *RefusedError) Is(target error) bool {
	return target == ErrRefused
}

// Refused builds a RefusedError for the given reason
func Refused(reason RefusalReason) error {
	return &RefusedError{Reason: reason}
}

// RefusalReasonOf extracts the reason from err, if err is a refusal
func RefusalReasonOf(err error) (RefusalReason, bool) {
	var refused *RefusedError
	if errors.As(err, &refused) {
		return refused.Reason, true
	}
	return "", false
}
