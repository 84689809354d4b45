package helpers

import (
	"fmt"
	"time"
)

// DefaultPollInterval is the interval used by WaitForCondition and by any poll that does not
// specify its own interval.
const DefaultPollInterval = time.Millisecond * 200

// TimeoutError is returned by Poll when the condition never held within the timeout.
type TimeoutError struct {
	// Description says what was being waited for, e.g. a query expression.
	Description string
	Timeout     time.Duration
	Attempts    int
	// LastErr is the error returned by the last check, if it returned one.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s (%d checks) waiting for %s", e.Timeout, e.Attempts, e.Description)
	if e.LastErr != nil {
		msg += fmt.Sprintf("; last check failed with: %s", e.LastErr)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Poll calls checkFn until it reports success or the timeout elapses, and returns the value
// from the successful check.
//
// The first check happens immediately. After each unsuccessful check Poll sleeps for the
// interval (or whatever is left of the timeout, if that is shorter) before checking again.
// Checks never overlap: a slow check, such as a round trip to the application under test,
// runs to completion before the next one is scheduled. An error from checkFn counts as an
// unsuccessful check; it is kept so the TimeoutError can report it.
//
// A poll cannot be cancelled. It ends on success or timeout.
func Poll[V any](
	description string,
	checkFn func() (V, bool, error),
	interval time.Duration,
	timeout time.Duration,
) (V, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	attempts := 0
	var lastErr error
	for {
		attempts++
		value, ok, err := checkFn()
		if err == nil && ok {
			return value, nil
		}
		lastErr = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			var empty V
			return empty, &TimeoutError{
				Description: description,
				Timeout:     timeout,
				Attempts:    attempts,
				LastErr:     lastErr,
			}
		}
		wait := time.NewTimer(min(interval, remaining))
		<-wait.C
	}
}

// WaitForCondition polls a boolean condition at DefaultPollInterval.
func WaitForCondition(description string, conditionFn func() (bool, error), timeout time.Duration) error {
	_, err := Poll(description, func() (struct{}, bool, error) {
		ok, err := conditionFn()
		return struct{}{}, ok, err
	}, DefaultPollInterval, timeout)
	return err
}
