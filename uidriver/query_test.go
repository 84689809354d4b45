package uidriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryExpression(t *testing.T) {
	s := Selector("//controllerTitle")
	assert.Equal(t, "//controllerTitle{visible=true}", s.Visible().Expression())
	assert.Equal(t, "//controllerTitle{visible=false}", s.Hidden().Expression())
	assert.Equal(t, "//controllerTitle{busy=false}", s.Ready().Expression())
	assert.Equal(t, "//controllerTitle", s.Expression())
}

func TestQueryIsAValue(t *testing.T) {
	s := Selector("//a")
	q1, q2 := s.Visible(), s.Hidden()
	assert.NotEqual(t, q1, q2)
	assert.Equal(t, s.Visible(), q1)
	assert.Equal(t, s, q1.Selector())
	assert.Equal(t, Visible, q1.State())
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "//a (visible)", Selector("//a").Visible().String())
	assert.Equal(t, "//a (ready)", Selector("//a").Ready().String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestSelectorProp(t *testing.T) {
	s := Selector("//serverCountry").Prop("code", "it")
	assert.Equal(t, "//serverCountry{code=it}{visible=true}", s.Visible().Expression())
}

func TestParseExpression(t *testing.T) {
	path, filters, err := ParseExpression("//x{code=it}{visible=true}")
	require.NoError(t, err)
	assert.Equal(t, "//x", path)
	assert.Equal(t, map[string]string{"code": "it", "visible": "true"}, filters)

	path, filters, err = ParseExpression("//y")
	require.NoError(t, err)
	assert.Equal(t, "//y", path)
	assert.Nil(t, filters)

	for _, bad := range []string{"//x{visible", "//x{=true}", "//x{visible}", "//x{a=b}junk"} {
		t.Run(bad, func(t *testing.T) {
			_, _, err := ParseExpression(bad)
			assert.Error(t, err)
		})
	}
}
