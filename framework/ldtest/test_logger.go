package ldtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/mozilla/vpn-test-harness/framework"
)

var (
	consoleTestErrorColor   = color.New(color.FgYellow)            //nolint:gochecknoglobals
	consoleTestFailedColor  = color.New(color.FgRed)               //nolint:gochecknoglobals
	consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
	consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
	allTestsPassedColor     = color.New(color.FgGreen)             //nolint:gochecknoglobals
)

// TestLogger receives progress notifications from the test runner.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (nullTestLogger) TestStarted(TestID)                                        {}
func (nullTestLogger) TestError(TestID, error)                                   {}
func (nullTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (nullTestLogger) TestSkipped(TestID, string)                                {}

// MultiTestLogger forwards every notification to each of its loggers in order.
type MultiTestLogger []TestLogger

func (m MultiTestLogger) TestStarted(id TestID) {
	for _, l := range m {
		l.TestStarted(id)
	}
}

func (m MultiTestLogger) TestError(id TestID, err error) {
	for _, l := range m {
		l.TestError(id, err)
	}
}

func (m MultiTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m MultiTestLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m {
		l.TestSkipped(id, reason)
	}
}

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Printf("  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	if result.Failed {
		_, _ = consoleTestFailedColor.Printf("  FAILED: %s (%s)\n", id, result.Duration.Round(time.Millisecond))
	}
	if len(debugOutput) > 0 &&
		((result.Failed && c.DebugOutputOnFailure) || (!result.Failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Println(debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s\n", id)
		return
	}
	_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s (%s)\n", id, reason)
}

func PrintResults(results Results) {
	if results.OK() {
		_, _ = allTestsPassedColor.Printf("All tests passed (%d)\n", len(results.Tests))
		return
	}
	_, _ = consoleTestFailedColor.Fprintf(os.Stderr, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleTestFailedColor.Fprintf(os.Stderr, "  * %s\n", f.TestID)
	}
}

// WriteFailureList writes the ID of each failed test, one per line, in a form that
// ReadPatternList accepts. Regex metacharacters in test names are escaped.
func WriteFailureList(w io.Writer, results Results) error {
	for _, f := range results.Failures {
		if len(f.TestID) == 0 {
			continue
		}
		parts := make([]string, len(f.TestID))
		for i, name := range f.TestID {
			parts[i] = "^" + regexpQuote(name) + "$"
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, "/")); err != nil {
			return err
		}
	}
	return nil
}
