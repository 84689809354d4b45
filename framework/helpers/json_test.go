package helpers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizedJSONString(t *testing.T) {
	v := ldvalue.Parse([]byte(`{"subscriptions":{"vpn":{"active":false}},"avatar":"","devices":[{"name":"d","b":1}]}`))
	assert.Equal(t,
		`{"avatar":"","devices":[{"b":1,"name":"d"}],"subscriptions":{"vpn":{"active":false}}}`,
		CanonicalizedJSONString(v))
	assert.Equal(t, "null", CanonicalizedJSONString(ldvalue.Null()))
}

func TestIfElse(t *testing.T) {
	assert.Equal(t, 201, IfElse(true, 201, 200))
	assert.Equal(t, "off", IfElse(false, "on", "off"))
}

func TestCopyOf(t *testing.T) {
	s := []string{"Authorization"}
	s1 := CopyOf(s)
	s[0] = "x"
	assert.Equal(t, []string{"Authorization"}, s1)
	assert.Nil(t, CopyOf([]string(nil)))
}
