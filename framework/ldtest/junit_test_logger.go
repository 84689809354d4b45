package ldtest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mozilla/vpn-test-harness/framework"
	o "github.com/mozilla/vpn-test-harness/framework/opt"
)

// JUnitRunInfo describes the test run for the properties block of each suite.
type JUnitRunInfo struct {
	InspectorURL string
	Capabilities framework.Capabilities
	Filters      RegexFilters
}

// JUnitTestLogger accumulates results and writes them as a JUnit XML file in EndLog.
type JUnitTestLogger struct {
	filePath string
	info     JUnitRunInfo
	testIDs  []TestID // in the order the tests started
	tests    map[string]jUnitTestStatus
	lock     sync.Mutex
}

type jUnitTestStatus struct {
	failures []error
	skipped  o.Maybe[string]
	output   string
	duration time.Duration
}

// See https://github.com/jstemmer/go-junit-report for the schema these mirror.

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnitTestLogger(filePath string, info JUnitRunInfo) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath: filePath,
		info:     info,
		tests:    make(map[string]jUnitTestStatus),
	}
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.testIDs = append(j.testIDs, id)
	j.tests[id.String()] = jUnitTestStatus{}
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.failures = append(status.failures, err)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.output = debugOutput.ToString("")
	status.duration = result.Duration
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.skipped = o.Some(reason)
	j.tests[id.String()] = status
}

// EndLog writes the XML file.
func (j *JUnitTestLogger) EndLog() error {
	j.lock.Lock()
	defer j.lock.Unlock()

	bytes, err := xml.MarshalIndent(j.buildDocument(), "", "  ")
	if err != nil {
		return err
	}
	bytes = append([]byte(xml.Header), bytes...)
	bytes = append(bytes, '\n')
	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) buildDocument() jUnitXMLDocument {
	properties := []jUnitXMLProperty{
		{Name: "inspector.url", Value: j.info.InspectorURL},
		{Name: "inspector.capabilities", Value: j.info.Capabilities.String()},
		{Name: "tests.filter.mustMatch", Value: j.info.Filters.MustMatch.String()},
		{Name: "tests.filter.mustNotMatch", Value: j.info.Filters.MustNotMatch.String()},
	}

	var doc jUnitXMLDocument
	for _, topLevel := range topLevelNames(j.testIDs) {
		suite := jUnitXMLTestSuite{
			Name:       "VPN functional tests: " + topLevel,
			Properties: properties,
		}
		var total time.Duration
		for _, id := range j.testIDs {
			if len(id) == 0 || id[0] != topLevel {
				continue
			}
			status := j.tests[id.String()]
			suite.Tests++
			total += status.duration

			testCase := jUnitXMLTestCase{
				Classname: topLevel,
				Name:      id.String(),
				Time:      jUnitDurationString(status.duration),
			}
			if status.skipped.IsDefined() {
				suite.Skipped++
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipped.Value()}
			}
			if len(status.failures) != 0 {
				suite.Failures++
				messages := make([]string, 0, len(status.failures))
				for _, e := range status.failures {
					messages = append(messages, e.Error())
				}
				testCase.Failure = &jUnitXMLFailure{
					Message:  strings.Join(messages, "\n"),
					Contents: status.output,
				}
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(total)
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

func topLevelNames(ids []TestID) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if len(id) != 0 && !seen[id[0]] {
			ret = append(ret, id[0])
			seen[id[0]] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
