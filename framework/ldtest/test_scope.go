package ldtest

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mozilla/vpn-test-harness/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	beforeEach  []func(*T)
	afterEach   []func(*T)
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Context is an optional value of any type defined by the application which can be accessed
	// from tests.
	Context interface{}

	// Capabilities is used by T.RequireCapability.
	Capabilities framework.Capabilities
}

// Run starts a top-level test scope.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var addError error
			if _, ok := r.(*T); !ok {
				t.failed = true
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			} else if !t.skipped {
				t.failed = true
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.config.TestLogger.TestError(t.id, addError)
			}
		}
		if t.failed {
			// an AfterEach hook can fail a test that skipped itself
			t.skipped = false
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.cleanups[i]()
		}
		result.Errors = t.errors
		result.Failed = t.failed
		result.Duration = time.Since(started)
		if !t.skipped {
			t.env.results.Tests = append(t.env.results.Tests, result)
			if t.failed {
				t.env.results.Failures = append(t.env.results.Failures, result)
			}
		}
	}()

	action(t)
	return result
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// RunOption is an option for T.Run.
type RunOption func(*runOptions)

type runOptions struct {
	capabilities []string
}

// Requires makes T.Run skip the subtest, without running any hooks, if the application under
// test lacks any of these capabilities.
func Requires(capabilities ...string) RunOption {
	return func(o *runOptions) {
		o.capabilities = append(o.capabilities, capabilities...)
	}
}

// Run runs a subtest in its own scope.
//
// Hooks registered with BeforeEach and AfterEach on this scope run inside the subtest's scope, so
// a failure in a hook is reported against the subtest. They are not inherited by the subtest's
// own subtests, so a scope that only groups other tests does not run them.
func (t *T) Run(name string, action func(*T), options ...RunOption) {
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		t.env.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	var opts runOptions
	for _, o := range options {
		o(&opts)
	}
	c := &T{
		id:  id,
		env: t.env,
	}
	t.debugLogger.AddChildLogger(&c.debugLogger)
	result := c.run(func(c *T) {
		for _, capability := range opts.capabilities {
			c.RequireCapability(capability)
		}
		defer func() {
			for i := len(t.afterEach) - 1; i >= 0; i-- {
				t.afterEach[i](c)
			}
		}()
		for _, hook := range t.beforeEach {
			hook(c)
		}
		action(c)
	})
	t.debugLogger.RemoveChildLogger(&c.debugLogger)

	if c.skipped {
		t.env.config.TestLogger.TestSkipped(id, c.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, c.debugLogger.Output())
	}
}

// BeforeEach registers a hook that runs at the start of every subtest started directly by this
// scope.
func (t *T) BeforeEach(hook func(*T)) {
	t.beforeEach = append(t.beforeEach, hook)
}

// AfterEach registers a hook that runs at the end of every subtest started directly by this
// scope, even if the subtest failed. Hooks run in reverse order of registration.
func (t *T) AfterEach(hook func(*T)) {
	t.afterEach = append(t.afterEach, hook)
}

// Errorf reports a test failure. It does not cause the test to terminate.
//
// This is part of the type's implementation of assert.TestingT, so testify assertions can be
// used against a *T.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Failed returns true if the test has reported a failure so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Helper exists so that *T satisfies require.TestingT's optional tHelper interface.
func (t *T) Helper() {}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger for writing output for this test scope.
//
// When a test has subtests, any output sent to the parent's logger while a subtest is running
// goes to the subtest's logger instead. This is how output from an emulated service owned by a
// parent scope ends up attached to the test that triggered it.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application-defined context value, if any, that was specified in the
// TestConfiguration.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Capabilities returns the capabilities of the application under test.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability causes the test to be skipped if the application under test does not have
// the named capability.
func (t *T) RequireCapability(name string) {
	if !t.env.config.Capabilities.Has(name) {
		t.SkipWithReason(fmt.Sprintf("application under test does not have capability %q", name))
	}
}
