package evidence

import (
	"context"
	"errors"
	"fmt"
)

// TierTimeoutError indicates a tier exceeded its own deadline.
type TierTimeoutError struct {
	Tier TierID
}

func (e *TierTimeoutError) Error() string {
	return fmt.Sprintf("tier %s exceeded its deadline", e.Tier)
}

// TierAPIError indicates a provider returned an error status
// (rate-limited, unauthorized, upstream 5xx).
type TierAPIError struct {
	Tier       TierID
	StatusCode int
	Message    string
}

func (e *TierAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tier %s API error %d: %s", e.Tier, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tier %s API error: %s", e.Tier, e.Message)
}

// Retryable reports whether one internal retry is worth attempting.
// Rate limits and server-side errors are transient; auth and client
// errors are not.
func (e *TierAPIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// TierParseError indicates a provider response was malformed.
type TierParseError struct {
	Tier TierID
	Err  error
}

func (e *TierParseError) Error() string {
	return fmt.Sprintf("tier %s returned an unparseable response: %v", e.Tier, e.Err)
}

func (e *TierParseError) Unwrap() error { return e.Err }

// ErrDeadlineExceeded indicates the orchestrator's global deadline hit
// before all tiers finished. It never reaches the caller; pending tiers
// are recorded as timed_out instead.
var ErrDeadlineExceeded = errors.New("global validation deadline exceeded")

// StatusForError maps a tier-internal error onto the TierResult status
// it must be recorded with. Context cancellation and TierTimeoutError
// become timed_out; everything else is failed.
func StatusForError(err error) TierStatus {
	var timeout *TierTimeoutError
	if errors.As(err, &timeout) {
		return StatusTimedOut
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StatusTimedOut
	}
	return StatusFailed
}
