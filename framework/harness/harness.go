package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

const httpListenerTimeout = time.Second * 10

// TestHarness owns the HTTP listener that the application under test is pointed at, and the
// mock endpoints mounted on it.
//
// It contains no VPN-specific logic. The emulated services are ordinary http.Handlers mounted
// with NewMockEndpoint.
type TestHarness struct {
	mockEndpoints *mockEndpointsManager
	server        *http.Server
	listener      net.Listener
	logger        framework.Logger
}

// NewTestHarness starts the HTTP listener on the given port and waits until it is accepting
// requests. A port of 0 picks a free port; the chosen one is reflected in every endpoint's BaseURL.
//
// externalHostname is the host name the application under test should use to reach the harness.
func NewTestHarness(
	externalHostname string,
	port int,
	debugLogger framework.Logger,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("could not listen on port %d: %w", port, err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	h := &TestHarness{
		mockEndpoints: newMockEndpointsManager(
			fmt.Sprintf("http://%s:%d", externalHostname, actualPort),
			debugLogger,
		),
		listener: listener,
		logger:   debugLogger,
	}
	h.server = &http.Server{
		Handler:           h.mockEndpoints.router,
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debugLogger.Printf("HTTP listener stopped: %s", err)
		}
	}()

	// Wait till the server is definitely listening for requests before we run any tests
	ownURL := fmt.Sprintf("http://localhost:%d/", actualPort)
	if err := helpers.WaitForCondition("own listener at "+ownURL, func() (bool, error) {
		resp, err := http.DefaultClient.Head(ownURL)
		if err != nil {
			return false, err
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK, nil
	}, httpListenerTimeout); err != nil {
		_ = h.server.Close()
		return nil, err
	}

	return h, nil
}

// BaseURL returns the externally visible URL of the listener, without a trailing slash.
func (h *TestHarness) BaseURL() string {
	return h.mockEndpoints.externalBaseURL
}

// NewMockEndpoint adds a new endpoint that can receive requests.
//
// The handler is called for all incoming requests to the endpoint's base URL or any subpath of
// it. If the endpoint's BaseURL() is http://localhost:8111/endpoints/guardian, it also receives
// requests to http://localhost:8111/endpoints/guardian/api/v1/vpn/account. The handler sees only
// the subpath.
func (h *TestHarness) NewMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) (*MockEndpoint, error) {
	if logger == nil {
		logger = h.logger
	}
	return h.mockEndpoints.newMockEndpoint(handler, logger, options...)
}

// Close stops the listener and closes every endpoint.
func (h *TestHarness) Close() error {
	h.mockEndpoints.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return h.server.Shutdown(ctx)
}
