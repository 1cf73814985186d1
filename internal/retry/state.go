package retry

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a State method is called in a
// phase that does not allow it.
var ErrInvalidTransition = errors.New("retry: invalid state transition")

// Phase is the position of a retry loop in its state machine.
type Phase int

const (
	// PhaseAttempt means an attempt is about to run or is running.
	PhaseAttempt Phase = iota

	// PhaseBackoff means the last attempt failed with a retryable error
	// and the loop is waiting before the next attempt.
	PhaseBackoff

	// PhaseDone is terminal: an attempt succeeded.
	PhaseDone

	// PhaseFailed is terminal: a non-retryable error occurred or the
	// final attempt failed.
	PhaseFailed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseAttempt:
		return "attempt"
	case PhaseBackoff:
		return "backoff"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the per-call retry state. It is not safe for concurrent use
// and must not be shared between calls.
type State struct {
	attempt     int
	maxAttempts int
	delay       time.Duration
	maxDelay    time.Duration
	phase       Phase
}

// NewState returns a state positioned at the first attempt.
func NewState(cfg *Config) *State {
	s := &State{
		attempt:     1,
		maxAttempts: cfg.GetMaxAttempts(),
		delay:       cfg.GetInitialDelay(),
		maxDelay:    cfg.GetMaxDelay(),
		phase:       PhaseAttempt,
	}
	if s.maxDelay > 0 && s.delay > s.maxDelay {
		s.delay = s.maxDelay
	}
	return s
}

// Attempt returns the 1-based number of the current attempt.
func (s *State) Attempt() int { return s.attempt }

// MaxAttempts returns the attempt bound.
func (s *State) MaxAttempts() int { return s.maxAttempts }

// Remaining returns how many attempts are left after the current one.
func (s *State) Remaining() int { return s.maxAttempts - s.attempt }

// Delay returns the wait that the next backoff will use.
func (s *State) Delay() time.Duration { return s.delay }

// Phase returns the current phase.
func (s *State) Phase() Phase { return s.phase }

// Terminal reports whether the state machine has finished.
func (s *State) Terminal() bool {
	return s.phase == PhaseDone || s.phase == PhaseFailed
}

// Succeed moves ATTEMPT to DONE.
func (s *State) Succeed() error {
	if s.phase != PhaseAttempt {
		return s.invalid("succeed")
	}
	s.phase = PhaseDone
	return nil
}

// Fail records a failed attempt. When the failure is retryable and
// attempts remain, the state moves to BACKOFF and the wait to apply is
// returned with again set. Otherwise the state moves to FAILED.
func (s *State) Fail(retryable bool) (wait time.Duration, again bool, err error) {
	if s.phase != PhaseAttempt {
		return 0, false, s.invalid("fail")
	}

	if !retryable || s.attempt >= s.maxAttempts {
		s.phase = PhaseFailed
		return 0, false, nil
	}

	s.phase = PhaseBackoff
	return s.delay, true, nil
}

// Resume moves BACKOFF to the next ATTEMPT and doubles the delay.
func (s *State) Resume() error {
	if s.phase != PhaseBackoff {
		return s.invalid("resume")
	}
	s.attempt++
	s.delay = Double(s.delay, s.maxDelay)
	s.phase = PhaseAttempt
	return nil
}

func (s *State) invalid(op string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.phase)
}
