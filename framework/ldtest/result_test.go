package ldtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestIDString(t *testing.T) {
	assert.Equal(t, "", TestID{}.String())
	assert.Equal(t, "Subscription view", TestID{"Subscription view"}.String())
	assert.Equal(t, "Subscription view/logout", TestID{"Subscription view", "logout"}.String())
}

func TestTestIDPlusDoesNotAlias(t *testing.T) {
	base := make(TestID, 1, 4)
	base[0] = "parent"
	a := base.Plus("a")
	b := base.Plus("b")
	assert.Equal(t, TestID{"parent"}, base)
	assert.Equal(t, TestID{"parent", "a"}, a)
	assert.Equal(t, TestID{"parent", "b"}, b)
}

func TestResultsOK(t *testing.T) {
	assert.True(t, Results{}.OK())
	assert.False(t, Results{Failures: []TestResult{{TestID: TestID{"x"}}}}.OK())
}

func TestTestFailureError(t *testing.T) {
	f := TestFailure{ID: TestID{"a", "b"}, Err: errors.New("boom")}
	assert.Equal(t, "[a/b]: boom", f.Error())
}
