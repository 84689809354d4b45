package mockvpn

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a request that the gateway refused to serve.
type ErrorKind string

const (
	UnmatchedRoute        ErrorKind = "unmatched-route"
	MissingRequiredHeader ErrorKind = "missing-required-header"
	BodyValidationFailed  ErrorKind = "body-validation-failed"
)

// ErrorHeader is set on every response the gateway generates for a RouteError, so that such a
// response can never be confused with a status a test configured on purpose.
const ErrorHeader = "X-Mock-Gateway-Error"

func (k ErrorKind) status() int {
	switch k {
	case MissingRequiredHeader:
		return http.StatusUnauthorized
	case BodyValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusNotFound
	}
}

// RouteError means the application under test sent a request that the current route tables
// could not serve. Any RouteError fails the test case in which it happened.
type RouteError struct {
	Kind    ErrorKind
	Service Service
	Method  string
	Path    string
	Detail  string
}

func (e *RouteError) Error() string {
	msg := fmt.Sprintf("%s: %s %s %s", e.Kind, e.Service, e.Method, e.Path)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

var errEmptyBody = errors.New("request body is empty")

func (k ErrorKind) String() string { return string(k) }
