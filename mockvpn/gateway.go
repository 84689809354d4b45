package mockvpn

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

// Response is what a Gateway sends back for a request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Gateway serves one emulated service from the route table that its Context holds for that
// service. It also keeps a log of every request it received.
type Gateway struct {
	service  Service
	context  *Context
	router   *mux.Router
	logger   framework.Logger
	requests []*Request
	lock     sync.Mutex
}

// NewGateway creates a gateway for a service. If ctx is nil, every request is an unmatched route.
func NewGateway(service Service, ctx *Context, logger framework.Logger) *Gateway {
	g := &Gateway{
		service: service,
		context: ctx,
		logger:  framework.LoggerWithPrefix(logger, "["+string(service)+"] "),
	}
	router := mux.NewRouter()
	router.PathPrefix("/").
		Methods(http.MethodGet, http.MethodPost, http.MethodDelete).
		HandlerFunc(g.serveHTTP)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.logger.Printf("Unsupported method %s for %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	g.router = router
	return g
}

func (g *Gateway) Service() Service {
	return g.service
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

func (g *Gateway) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			g.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}
	resp := g.Handle(r.Method, r.URL.RequestURI(), r.Header, body)
	for name, values := range resp.Header {
		w.Header()[name] = values
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// Handle answers one request. target is the request path, optionally with a query string.
func (g *Gateway) Handle(method, target string, headers http.Header, rawBody []byte) Response {
	req := newRequest(g.service, method, target, headers, rawBody)

	var (
		status   int
		routeErr *RouteError
		data     []byte
	)
	if g.context == nil {
		routeErr = &RouteError{
			Kind: UnmatchedRoute, Service: g.service, Method: req.Method, Path: req.Path,
			Detail: "no test context attached",
		}
		status = routeErr.Kind.status()
	} else {
		status, data, routeErr = g.context.handle(req)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	if routeErr != nil {
		header.Set(ErrorHeader, string(routeErr.Kind))
		data = []byte(ldvalue.ObjectBuild().
			SetString("error", string(routeErr.Kind)).
			SetString("message", routeErr.Error()).
			Build().JSONString())
		g.logger.Printf("%s %s -> %d: %s", req.Method, req.Path, status, routeErr)
	} else {
		g.logger.Printf("%s %s -> %d %s", req.Method, req.Path, status,
			helpers.CanonicalizedJSONString(ldvalue.Parse(data)))
	}

	req.Status = status
	req.Err = routeErr
	g.lock.Lock()
	g.requests = append(g.requests, req)
	g.lock.Unlock()

	return Response{Status: status, Header: header, Body: data}
}

// Requests returns the request log in arrival order.
func (g *Gateway) Requests() []*Request {
	g.lock.Lock()
	defer g.lock.Unlock()
	return helpers.CopyOf(g.requests)
}

// ClearRequests empties the request log.
func (g *Gateway) ClearRequests() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.requests = nil
}

// AwaitRequest polls the request log until a request satisfying match has been received.
func (g *Gateway) AwaitRequest(
	description string,
	match func(*Request) bool,
	timeout time.Duration,
) (*Request, error) {
	return helpers.Poll(
		fmt.Sprintf("%s request %s", g.service, description),
		func() (*Request, bool, error) {
			for _, r := range g.Requests() {
				if match(r) {
					return r, true, nil
				}
			}
			return nil, false, nil
		},
		helpers.DefaultPollInterval,
		timeout,
	)
}

// RequestTo matches requests for a method and path.
func RequestTo(method, path string) func(*Request) bool {
	return func(r *Request) bool {
		return r.Method == method && r.Path == path
	}
}
