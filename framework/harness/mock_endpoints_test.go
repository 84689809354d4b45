package harness

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

func serve(m *mockEndpointsManager, method, url string, body []byte) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r, _ := http.NewRequest(method, url, bytes.NewReader(body))
	m.router.ServeHTTP(rr, r)
	return rr
}

func TestMockEndpointServesRequest(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	e1, err := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), framework.NullLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://testharness:9999/endpoints/1", e1.BaseURL())

	e2, err := m.newMockEndpoint(httphelpers.HandlerWithStatus(204), framework.NullLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://testharness:9999/endpoints/2", e2.BaseURL())

	assert.Equal(t, 200, serve(m, "GET", e1.BaseURL(), nil).Code)
	assert.Equal(t, 204, serve(m, "GET", e2.BaseURL(), nil).Code)
	assert.Equal(t, 404, serve(m, "GET", "http://testharness:9999/endpoints/3", nil).Code)
	assert.Equal(t, 404, serve(m, "GET", "http://testharness:9999/elsewhere", nil).Code)
}

func TestMockEndpointWithFixedPath(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	e, err := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), framework.NullLogger(),
		MockEndpointPath("guardian"), MockEndpointDescription("Guardian"))
	require.NoError(t, err)
	assert.Equal(t, "http://testharness:9999/endpoints/guardian", e.BaseURL())
	assert.Equal(t, "Guardian", e.Description())
	assert.Equal(t, 200, serve(m, "GET", e.BaseURL()+"/api/v1/vpn/account", nil).Code)

	_, err = m.newMockEndpoint(httphelpers.HandlerWithStatus(200), framework.NullLogger(), MockEndpointPath("guardian"))
	assert.Error(t, err)

	_, err = m.newMockEndpoint(httphelpers.HandlerWithStatus(200), framework.NullLogger(), MockEndpointPath("a/b"))
	assert.Error(t, err)
}

func TestMockEndpointReceivesSubpath(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	e, err := m.newMockEndpoint(handler, framework.NullLogger(), MockEndpointPath("fxa"))
	require.NoError(t, err)

	for _, subpath := range []string{"", "/", "/v1/account/login"} {
		serve(m, "GET", e.BaseURL()+subpath, nil)
		received := <-requests
		if subpath == "" {
			assert.Equal(t, "/", received.Request.URL.Path)
		} else {
			assert.Equal(t, subpath, received.Request.URL.Path)
		}
	}
}

func TestMockEndpointForwardsRequestDetails(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	e, err := m.newMockEndpoint(handler, framework.NullLogger())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r, _ := http.NewRequest("GET", e.BaseURL()+"/x?y=1", nil)
	r.Header.Add("Authorization", "Bearer abc")
	m.router.ServeHTTP(rr, r)
	info1 := helpers.RequireValueWithMessage(t, requests, time.Second, "handler was not called")
	assert.Equal(t, "GET", info1.Request.Method)
	assert.Equal(t, "/x", info1.Request.URL.Path)
	assert.Equal(t, "1", info1.Request.URL.Query().Get("y"))
	assert.Equal(t, "Bearer abc", info1.Request.Header.Get("Authorization"))

	serve(m, "POST", e.BaseURL(), []byte("content"))
	info2 := helpers.RequireValueWithMessage(t, requests, time.Second, "handler was not called")
	assert.Equal(t, "POST", info2.Request.Method)
	assert.Equal(t, []byte("content"), info2.Body)
}

func TestMockEndpointClose(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	e, err := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), framework.NullLogger())
	require.NoError(t, err)
	e.Close()
	assert.Equal(t, 404, serve(m, "GET", e.BaseURL(), nil).Code)
}

func TestHarnessReadinessProbe(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	assert.Equal(t, 200, serve(m, "HEAD", "http://testharness:9999/", nil).Code)
}

func TestNewTestHarnessListensOnChosenPort(t *testing.T) {
	h, err := NewTestHarness("localhost", 0, framework.NullLogger())
	require.NoError(t, err)
	defer h.Close()

	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(418))
	e, err := h.NewMockEndpoint(handler, nil, MockEndpointPath("teapot"))
	require.NoError(t, err)

	resp, err := http.Get(e.BaseURL() + "/brew")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 418, resp.StatusCode)
	received := helpers.RequireValueWithMessage(t, requests, time.Second, "handler was not called")
	assert.Equal(t, "/brew", received.Request.URL.Path)
}
