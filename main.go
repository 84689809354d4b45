package main

import (
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/harness"
	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/uidriver"
	"github.com/mozilla/vpn-test-harness/vpntests"
)

const (
	defaultPort     = 8111
	defaultTimeout  = time.Second * 30
	defaultInterval = time.Millisecond * 200
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("vpn-test-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args, os.Stderr) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*ldtest.Results, error) {
	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	h, err := harness.NewTestHarness(params.host, params.port, mainDebugLogger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	mockContext := mockvpn.NewContext(mockvpn.ContextConfig{
		Logger: framework.LoggerWithPrefix(mainDebugLogger, "[context] "),
	})
	guardian := mockvpn.NewGateway(mockvpn.Guardian, mockContext, mainDebugLogger)
	fxa := mockvpn.NewGateway(mockvpn.FxA, mockContext, mainDebugLogger)
	guardianEndpoint, err := h.NewMockEndpoint(guardian, nil,
		harness.MockEndpointPath(string(mockvpn.Guardian)), harness.MockEndpointDescription("Guardian"))
	if err != nil {
		return nil, err
	}
	fxaEndpoint, err := h.NewMockEndpoint(fxa, nil,
		harness.MockEndpointPath(string(mockvpn.FxA)), harness.MockEndpointDescription("FxA"))
	if err != nil {
		return nil, err
	}
	fmt.Printf("Guardian is emulated at %s\n", guardianEndpoint.BaseURL())
	fmt.Printf("FxA is emulated at %s\n", fxaEndpoint.BaseURL())

	fmt.Printf("Connecting to inspector at %s\n", params.inspectorURL)
	inspector, err := uidriver.DialInspector(params.inspectorURL, params.timeout, params.timeout,
		framework.LoggerWithPrefix(mainDebugLogger, "[inspector] "))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the VPN client: %w", err)
	}
	defer func() { _ = inspector.Close() }()

	driver := uidriver.NewDriver(inspector, uidriver.DriverConfig{
		Timeout:          params.timeout,
		Interval:         params.interval,
		AuthListenerHost: params.authListenerHost,
	})

	consoleLogger := ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	var testLogger ldtest.TestLogger = consoleLogger
	var jUnitLogger *ldtest.JUnitTestLogger
	if params.jUnitFile != "" {
		jUnitLogger = ldtest.NewJUnitTestLogger(params.jUnitFile, ldtest.JUnitRunInfo{
			InspectorURL: params.inspectorURL,
			Capabilities: params.capabilities,
			Filters:      params.filters,
		})
		testLogger = ldtest.MultiTestLogger{consoleLogger, jUnitLogger}
	}

	results := vpntests.RunVPNTestSuite(vpntests.SuiteConfig{
		Driver:       driver,
		Context:      mockContext,
		Guardian:     guardian,
		FxA:          fxa,
		Capabilities: params.capabilities,
		Filters:      params.filters,
		TestLogger:   testLogger,
	})

	fmt.Println()
	ldtest.PrintResults(results)

	if jUnitLogger != nil {
		if err := jUnitLogger.EndLog(); err != nil {
			return nil, fmt.Errorf("error writing log: %w", err)
		}
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %w", err)
		}
		err = ldtest.WriteFailureList(f, results)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot write suppression file: %w", err)
		}
	}

	return &results, nil
}
