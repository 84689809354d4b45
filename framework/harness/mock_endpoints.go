package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

const endpointPathPrefix = "/endpoints/"

type mockEndpointsManager struct {
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	externalBaseURL string
	router          *mux.Router
	logger          framework.Logger
	lock            sync.Mutex
}

// MockEndpoint is a path prefix on the harness listener that forwards requests to a handler.
type MockEndpoint struct {
	owner       *mockEndpointsManager
	id          string
	description string
	basePath    string
	handler     http.Handler
	cancels     map[int]context.CancelFunc
	lastCancel  int
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

type MockEndpointOption helpers.ConfigOption[MockEndpoint]

// MockEndpointDescription sets the name used for the endpoint in log output.
func MockEndpointDescription(description string) MockEndpointOption {
	return helpers.ConfigOptionFunc[MockEndpoint](func(e *MockEndpoint) error {
		e.description = description
		return nil
	})
}

// MockEndpointPath gives the endpoint a fixed path component instead of a generated number, so
// that its BaseURL is known before the harness starts. This is what lets the application under
// test be launched with its service URLs already pointing at the harness.
func MockEndpointPath(id string) MockEndpointOption {
	return helpers.ConfigOptionFunc[MockEndpoint](func(e *MockEndpoint) error {
		if id == "" || strings.Contains(id, "/") {
			return fmt.Errorf("invalid endpoint path %q", id)
		}
		e.id = id
		return nil
	})
}

func newMockEndpointsManager(externalBaseURL string, logger framework.Logger) *mockEndpointsManager {
	m := &mockEndpointsManager{
		endpoints:       make(map[string]*MockEndpoint),
		externalBaseURL: externalBaseURL,
		logger:          logger,
	}
	router := mux.NewRouter()
	router.Methods(http.MethodHead).Path("/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK) // readiness probe for our own listener
	})
	router.PathPrefix(endpointPathPrefix + "{id}").HandlerFunc(m.serveEndpoint)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	m.router = router
	return m
}

func (m *mockEndpointsManager) newMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) (*MockEndpoint, error) {
	e := &MockEndpoint{
		owner:   m,
		handler: handler,
		cancels: make(map[int]context.CancelFunc),
		logger:  logger,
	}
	if err := helpers.ApplyOptions(e, options...); err != nil {
		return nil, err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if e.id == "" {
		for {
			m.lastEndpointID++
			e.id = strconv.Itoa(m.lastEndpointID)
			if m.endpoints[e.id] == nil {
				break
			}
		}
	} else if m.endpoints[e.id] != nil {
		return nil, fmt.Errorf("an endpoint with path %q already exists", e.id)
	}
	e.basePath = endpointPathPrefix + e.id
	if e.description == "" {
		e.description = e.id
	}
	m.endpoints[e.id] = e
	return e, nil
}

func (m *mockEndpointsManager) closeAll() {
	m.lock.Lock()
	all := make([]*MockEndpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		all = append(all, e)
	}
	m.lock.Unlock()
	for _, e := range all {
		e.Close()
	}
}

func (m *mockEndpointsManager) serveEndpoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m.lock.Lock()
	e := m.endpoints[id]
	m.lock.Unlock()
	if e == nil {
		m.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	subpath := strings.TrimPrefix(r.URL.Path, e.basePath)
	if subpath == "" {
		subpath = "/"
	}

	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	key, ok := e.trackRequest(cancel)
	if !ok {
		e.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer e.untrackRequest(key)

	u := *r.URL
	u.Path = subpath
	u.RawPath = ""
	transformed := r.WithContext(ctx)
	transformed.URL = &u
	transformed.Body = io.NopCloser(bytes.NewReader(body))

	ww := &statusRecordingWriter{ResponseWriter: w}
	e.handler.ServeHTTP(ww, transformed)
	e.logger.Printf("%s %s -> %d", r.Method, subpath, ww.statusOrDefault())
}

func (e *MockEndpoint) trackRequest(cancel context.CancelFunc) (int, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.cancels == nil {
		return 0, false
	}
	e.lastCancel++
	e.cancels[e.lastCancel] = cancel
	return e.lastCancel, true
}

func (e *MockEndpoint) untrackRequest(key int) {
	e.lock.Lock()
	defer e.lock.Unlock()
	delete(e.cancels, key)
}

// BaseURL returns the full URL of the endpoint, without a trailing slash.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

func (e *MockEndpoint) Description() string {
	return e.description
}

// Close unregisters the endpoint so that later requests get a 404, and cancels the Context of
// every request still in progress.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancels := e.cancels
		e.cancels = nil
		e.lock.Unlock()
		for _, cancel := range cancels {
			cancel()
		}
	})
}

type statusRecordingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusRecordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecordingWriter) statusOrDefault() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
