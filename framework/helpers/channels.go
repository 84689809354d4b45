package helpers

import (
	"time"

	"github.com/mozilla/vpn-test-harness/framework/opt"
)

// TryReceive is a shortcut for using select to do a receive with timeout. It returns a
// Maybe that has a value if one was available, or no value if it timed out.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			return opt.None[V]()
		}
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}

// RequireValueWithMessage tries to receive a value and returns it if successful, or causes the
// test to fail and terminate immediately if it timed out.
func RequireValueWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) V {
	maybeValue := TryReceive(ch, timeout)
	if !maybeValue.IsDefined() {
		t.Errorf(msgFormat, msgArgs...)
		t.FailNow()
	}
	return maybeValue.Value()
}
