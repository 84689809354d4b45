package mockvpn

import (
	"net/http"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTableRegisterReplaces(t *testing.T) {
	rt := NewRouteTable(Routes{GETs: map[string]EndpointSpec{"/a": {Status: 200}}})
	first, ok := rt.Lookup("GET", "/a")
	require.True(t, ok)

	rt.Register("GET", "/a", EndpointSpec{Status: 500})
	second, ok := rt.Lookup("GET", "/a")
	require.True(t, ok)
	assert.Equal(t, 500, second.Status)
	assert.Equal(t, 200, first.Status, "a replaced spec is a new record")

	_, ok = rt.Lookup("POST", "/a")
	assert.False(t, ok)
}

func TestRouteTableKeysAreSorted(t *testing.T) {
	rt := NewRouteTable(Routes{
		GETs:    map[string]EndpointSpec{"/b": {}, "/a": {}},
		POSTs:   map[string]EndpointSpec{"/a": {}},
		DELETEs: map[string]EndpointSpec{"/c": {}},
	})
	assert.Equal(t, []RouteKey{
		{http.MethodGet, "/a"},
		{http.MethodPost, "/a"},
		{http.MethodGet, "/b"},
		{http.MethodDelete, "/c"},
	}, rt.Keys())
	assert.Equal(t, "DELETE /c", rt.Keys()[3].String())
}

func TestRouteTableCloneIsDeep(t *testing.T) {
	rt := NewRouteTable(Routes{GETs: map[string]EndpointSpec{
		"/a": {Status: 200, RequiredHeaders: []string{"Authorization"}, Body: ldvalue.String("x")},
	}})
	c := rt.Clone()
	spec, _ := c.Lookup("GET", "/a")
	spec.Status = 404
	spec.Body = ldvalue.String("y")
	spec.RequiredHeaders[0] = "Other"

	orig, _ := rt.Lookup("GET", "/a")
	assert.Equal(t, 200, orig.Status)
	assert.Equal(t, ldvalue.String("x"), orig.Body)
	assert.Equal(t, []string{"Authorization"}, orig.RequiredHeaders)
}

func TestRouteTableMerge(t *testing.T) {
	rt := NewRouteTable(Routes{GETs: map[string]EndpointSpec{"/a": {Status: 200}, "/b": {Status: 200}}})
	rt.Merge(Routes{GETs: map[string]EndpointSpec{"/b": {Status: 201}}, POSTs: map[string]EndpointSpec{"/c": {}}})
	a, _ := rt.Lookup("GET", "/a")
	b, _ := rt.Lookup("GET", "/b")
	assert.Equal(t, 200, a.Status)
	assert.Equal(t, 201, b.Status)
	assert.Len(t, rt.Keys(), 3)
}

func TestDefaultRoutesForUnknownService(t *testing.T) {
	ctx := NewContext(ContextConfig{})
	assert.Empty(t, NewRouteTable(DefaultRoutes(ctx, Service("other"))).Keys())
	g := NewGateway(Service("other"), ctx, nil)
	resp := g.Handle("GET", "/", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
