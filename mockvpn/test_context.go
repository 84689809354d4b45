package mockvpn

import (
	"fmt"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

// ContextConfig customizes a new Context.
type ContextConfig struct {
	// Overrides are merged over DefaultRoutes for each service.
	Overrides map[Service]Routes

	// Callbacks are merged over DefaultCallbacks. These become the bindings that ResetCallbacks
	// restores.
	Callbacks map[string]Callback

	Logger framework.Logger
}

// Context holds everything a test run can reprogram: one route table per emulated service, the
// named callback slots, and the shared device record.
//
// A single lock guards all of it. Gateways hold the lock for the whole of a request, from route
// lookup through the callback to serializing the response, so a test step never observes a
// half-handled request and two callbacks never interleave.
type Context struct {
	initial          map[Service]*RouteTable
	tables           map[Service]*RouteTable
	defaultCallbacks map[string]Callback
	callbacks        map[string]Callback
	initialDevice    Device
	device           Device
	routeErrors      []*RouteError
	logger           framework.Logger
	lock             sync.Mutex
}

// NewContext builds the route tables for Guardian and FxA and binds the default callbacks.
func NewContext(config ContextConfig) *Context {
	logger := config.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	c := &Context{
		initial:          make(map[Service]*RouteTable),
		tables:           make(map[Service]*RouteTable),
		defaultCallbacks: DefaultCallbacks(),
		initialDevice:    newDevice(),
		logger:           logger,
	}
	c.device = c.initialDevice
	for name, cb := range config.Callbacks {
		c.defaultCallbacks[name] = cb
	}
	for _, service := range []Service{Guardian, FxA} {
		rt := NewRouteTable(DefaultRoutes(c, service))
		rt.Merge(config.Overrides[service])
		c.initial[service] = rt
		c.tables[service] = rt.Clone()
	}
	c.ResetCallbacks()
	return c
}

// Slot returns a callback that calls whatever is bound to name at the time of the request.
// Routes refer to slots rather than to callbacks directly so that Bind can change behavior
// without touching the route tables.
func (c *Context) Slot(name string) Callback {
	return func(call *Call) { call.Slot(name) }
}

// Bind sets the callback for a slot until the next ResetCallbacks.
func (c *Context) Bind(name string, cb Callback) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.callbacks[name] = cb
}

// ResetCallbacks restores every slot to its default binding.
func (c *Context) ResetCallbacks() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.resetCallbacksLocked()
}

func (c *Context) resetCallbacksLocked() {
	c.callbacks = make(map[string]Callback, len(c.defaultCallbacks))
	for name, cb := range c.defaultCallbacks {
		c.callbacks[name] = cb
	}
}

// Reset returns the Context to the state it had after NewContext: default callbacks, the
// original route tables, the device record as it was created and no recorded route errors.
func (c *Context) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.resetCallbacksLocked()
	for service, rt := range c.initial {
		c.tables[service] = rt.Clone()
	}
	c.device = c.initialDevice
	c.routeErrors = nil
	c.logger.Println("Test context reset")
}

// Update runs fn with exclusive access to a service's route table.
func (c *Context) Update(service Service, fn func(*RouteTable)) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fn(c.tables[service])
}

// Register sets the spec for a route, replacing any previous one.
func (c *Context) Register(service Service, method, path string, spec EndpointSpec) {
	c.Update(service, func(rt *RouteTable) { rt.Register(method, path, spec) })
}

// SetBody changes the response body of an existing route.
func (c *Context) SetBody(service Service, method, path string, body ldvalue.Value) error {
	return c.updateSpec(service, method, path, func(s *EndpointSpec) { s.Body = body })
}

// SetStatus changes the response status of an existing route.
func (c *Context) SetStatus(service Service, method, path string, status int) error {
	return c.updateSpec(service, method, path, func(s *EndpointSpec) { s.Status = status })
}

func (c *Context) updateSpec(service Service, method, path string, fn func(*EndpointSpec)) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	spec, ok := c.tables[service].Lookup(method, path)
	if !ok {
		return fmt.Errorf("no %s route for %s %s", service, method, path)
	}
	fn(spec)
	return nil
}

// Spec returns a copy of the current spec for a route.
func (c *Context) Spec(service Service, method, path string) (EndpointSpec, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	spec, ok := c.tables[service].Lookup(method, path)
	if !ok {
		return EndpointSpec{}, false
	}
	return spec.clone(), true
}

// Routes returns the keys of every route currently defined for a service.
func (c *Context) Routes(service Service) []RouteKey {
	c.lock.Lock()
	defer c.lock.Unlock()
	if rt := c.tables[service]; rt != nil {
		return rt.Keys()
	}
	return nil
}

// Device returns a copy of the shared device record.
func (c *Context) Device() Device {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.device
}

// RouteErrors returns the errors recorded by gateways since the last Reset.
func (c *Context) RouteErrors() []*RouteError {
	c.lock.Lock()
	defer c.lock.Unlock()
	return helpers.CopyOf(c.routeErrors)
}

func (c *Context) handle(req *Request) (int, []byte, *RouteError) {
	c.lock.Lock()
	defer c.lock.Unlock()
	status, body, err := c.serve(req)
	return status, []byte(helpers.CanonicalizedJSONString(body)), err
}

// serve resolves a request against the service's route table. It returns the spec values to
// send, or a RouteError. The caller must hold the lock.
func (c *Context) serve(req *Request) (int, ldvalue.Value, *RouteError) {
	fail := func(kind ErrorKind, detail string) (int, ldvalue.Value, *RouteError) {
		err := &RouteError{Kind: kind, Service: req.Service, Method: req.Method, Path: req.Path, Detail: detail}
		c.routeErrors = append(c.routeErrors, err)
		return kind.status(), ldvalue.Null(), err
	}

	rt := c.tables[req.Service]
	if rt == nil {
		return fail(UnmatchedRoute, "service has no route table")
	}
	spec, ok := rt.Lookup(req.Method, req.Path)
	if !ok {
		return fail(UnmatchedRoute, fmt.Sprintf("known %s paths: %v", req.Method, rt.pathsFor(req.Method)))
	}
	if missing := spec.missingHeader(req.Header); missing != "" {
		return fail(MissingRequiredHeader, "missing "+missing)
	}
	if spec.BodyValidator != nil {
		body, err := req.ParsedBody()
		if err == nil {
			err = spec.BodyValidator.ValidateBody(body)
		}
		if err != nil {
			return fail(BodyValidationFailed, err.Error())
		}
	}
	if spec.Callback != nil {
		spec.Callback(&Call{Request: req, Spec: spec, ctx: c})
		if current, ok := c.tables[req.Service].Lookup(req.Method, req.Path); ok {
			spec = current // the callback may have registered a replacement
		}
	}
	return spec.Status, spec.Body, nil
}
