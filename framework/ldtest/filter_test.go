package ldtest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFilters(t *testing.T) {
	type params struct {
		run, skip   []string
		id          TestID
		shouldMatch bool
	}
	for _, p := range []params{
		{nil, nil, nil, true},
		{nil, nil, TestID{"Subscription view"}, true},

		{[]string{"view"}, nil, nil, true},
		{[]string{"view"}, nil, TestID{"Subscription view"}, true},
		{[]string{"view"}, nil, TestID{"Expired subscription"}, false},
		{[]string{"view"}, nil, TestID{"Subscription view", "logout"}, true},

		{[]string{"view/logout"}, nil, TestID{"Subscription view"}, true},
		{[]string{"view/logout"}, nil, TestID{"Subscription view", "logout"}, true},
		{[]string{"view/logout"}, nil, TestID{"Subscription view", "plans"}, false},
		{[]string{"view/logout"}, nil, TestID{"Expired subscription"}, false},

		{[]string{"view", "Expired"}, nil, TestID{"Expired subscription"}, true},
		{[]string{"view", "Expired"}, nil, TestID{"Other"}, false},

		{nil, []string{"Expired"}, TestID{"Expired subscription"}, false},
		{nil, []string{"Expired"}, TestID{"Expired subscription", "a"}, false},
		{nil, []string{"Expired"}, TestID{"Subscription view"}, true},

		{nil, []string{"view/logout"}, TestID{"Subscription view"}, true},
		{nil, []string{"view/logout"}, TestID{"Subscription view", "logout"}, false},
		{nil, []string{"view/logout"}, TestID{"Subscription view", "logout", "x"}, false},
		{nil, []string{"view/logout"}, TestID{"Subscription view", "plans"}, true},

		{[]string{"view"}, []string{"logout"}, TestID{"Subscription view"}, true},
		{[]string{"view"}, []string{"^view$"}, TestID{"view"}, false},
	} {
		var r RegexFilters
		for _, s := range p.run {
			require.NoError(t, r.MustMatch.Set(s))
		}
		for _, s := range p.skip {
			require.NoError(t, r.MustNotMatch.Set(s))
		}
		t.Run(fmt.Sprintf("run=%s, skip=%s, id=%s", r.MustMatch, r.MustNotMatch, p.id), func(t *testing.T) {
			assert.Equal(t, p.shouldMatch, r.Match(p.id))
		})
	}
}

func TestParseTestIDPatternRejectsBadRegex(t *testing.T) {
	_, err := ParseTestIDPattern("a/(b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"(b"`)
}

func TestReadPatternList(t *testing.T) {
	input := "# recorded failures\n\nSubscription view/logout\n  Expired subscription  \n"
	list, err := ReadPatternList(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Subscription view/logout", list[0].String())
	assert.Equal(t, "Expired subscription", list[1].String())
}

func TestReadPatternListReportsLine(t *testing.T) {
	_, err := ReadPatternList(strings.NewReader("ok\n[\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPrintFilterDescription(t *testing.T) {
	var r RegexFilters
	require.NoError(t, r.MustNotMatch.Set("Expired"))
	var buf bytes.Buffer
	PrintFilterDescription(&buf, r, []string{"a", "b"}, []string{"a"})
	out := buf.String()
	assert.Contains(t, out, `skip any matching "Expired"`)
	assert.NotContains(t, out, "not matching")
	assert.Contains(t, out, "lacks these capabilities:\n  b\n")
}
