package mockvpn

import (
	"net/http"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

// Service identifies an emulated upstream service.
type Service string

const (
	Guardian Service = "guardian"
	FxA      Service = "fxa"
)

// EndpointSpec describes how to answer requests for one route.
type EndpointSpec struct {
	// Status is the HTTP status of the response.
	Status int

	// RequiredHeaders must all be present on the request, matched case-insensitively. A request
	// missing one is rejected before the callback runs.
	RequiredHeaders []string

	// BodyValidator, if set, is applied to the parsed JSON request body.
	BodyValidator BodyValidator

	// Body is sent as JSON. The null value means the body has not been computed yet; a callback
	// normally fills it in.
	Body ldvalue.Value

	// Callback runs before the response is built and may change Status and Body on the spec it is
	// given. Whatever they hold after it returns is what gets sent.
	Callback Callback
}

// Callback is invoked by a Gateway for a validated request.
type Callback func(*Call)

// Call is the argument to a Callback. The owning Context is locked for the whole call, so the
// route tables and the shared device record can be read and changed freely through it.
type Call struct {
	Request *Request
	Spec    *EndpointSpec
	ctx     *Context
}

// Routes returns the live route table of a service.
func (c *Call) Routes(service Service) *RouteTable {
	return c.ctx.tables[service]
}

// Device returns the shared device record, which callbacks may modify.
func (c *Call) Device() *Device {
	return &c.ctx.device
}

// Slot calls whatever callback is currently bound to name, if any.
func (c *Call) Slot(name string) {
	if cb := c.ctx.callbacks[name]; cb != nil {
		cb(c)
	}
}

// Respond is a shorthand for setting both fields of the active spec.
func (c *Call) Respond(status int, body ldvalue.Value) {
	c.Spec.Status = status
	c.Spec.Body = body
}

func (s EndpointSpec) clone() EndpointSpec {
	ret := s
	ret.RequiredHeaders = helpers.CopyOf(s.RequiredHeaders)
	return ret
}

// missingHeader returns the first required header that h lacks. Names match case-insensitively
// whether or not h's keys are canonical, and a header that is present with an empty value counts
// as present.
func (s *EndpointSpec) missingHeader(h http.Header) string {
	for _, name := range s.RequiredHeaders {
		if !hasHeader(h, name) {
			return name
		}
	}
	return ""
}

func hasHeader(h http.Header, name string) bool {
	for key, values := range h {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return true
		}
	}
	return false
}
