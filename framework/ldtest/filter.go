package ldtest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

// RegexFilters selects tests by name. A test runs if it matches at least one MustMatch pattern
// (or there are none) and matches no MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

func (r RegexFilters) Match(id TestID) bool {
	if r.MustMatch.IsDefined() && !r.MustMatch.AnyMatch(id, true) {
		return false
	}
	return !r.MustNotMatch.AnyMatch(id, false)
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// TestIDPattern is a slash-separated list of regexes, one per level of a TestID.
type TestIDPattern []*regexp.Regexp

// Match reports whether each component of id matches the corresponding regex. If includeParents
// is true, an id shorter than the pattern matches as long as its components do; that lets a
// "run" pattern select the parent scopes of the tests it names.
func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	if len(id) < len(p) && !includeParents {
		return false
	}
	for i, rx := range p {
		if i >= len(id) {
			break
		}
		if !rx.MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	parts := make([]string, len(p))
	for i, rx := range p {
		parts[i] = rx.String()
	}
	return strings.Join(parts, "/")
}

func ParseTestIDPattern(s string) (TestIDPattern, error) {
	var ret TestIDPattern
	for _, part := range strings.Split(s, "/") {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	quoted := make([]string, len(l))
	for i, p := range l {
		quoted[i] = fmt.Sprintf("%q", p.String())
	}
	return strings.Join(quoted, " or ")
}

// Set is called by the flag package.
func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}

// ReadPatternList reads one pattern per line. Blank lines and lines starting with '#' are ignored.
// This is the format written by -record-failures, so a failure list can be fed back in as a
// skip list.
func ReadPatternList(r io.Reader) (TestIDPatternList, error) {
	var ret TestIDPatternList
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ret.Set(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	return ret, scanner.Err()
}

// PrintFilterDescription writes a summary of which tests will be skipped and why.
func PrintFilterDescription(w io.Writer, filters RegexFilters, allCapabilities, supportedCapabilities []string) {
	if filters.IsDefined() {
		fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
		if filters.MustMatch.IsDefined() {
			fmt.Fprintf(w, "  skip any not matching %s\n", filters.MustMatch)
		}
		if filters.MustNotMatch.IsDefined() {
			fmt.Fprintf(w, "  skip any matching %s\n", filters.MustNotMatch)
		}
		fmt.Fprintln(w)
	}

	supported := make(map[string]bool, len(supportedCapabilities))
	for _, c := range supportedCapabilities {
		supported[c] = true
	}
	var missing []string
	for _, c := range allCapabilities {
		if !supported[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintln(w, "Some tests will be skipped because the application under test lacks these capabilities:")
		fmt.Fprintf(w, "  %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(w)
	}
}

func regexpQuote(s string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(s), "/", `\x2f`)
}
