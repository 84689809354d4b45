package mockvpn

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Request is an inbound request as seen by a Gateway.
type Request struct {
	ID      string
	Service Service
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	RawBody []byte
	Time    time.Time

	// Status is the status code that was sent back, filled in once the request is handled.
	Status int
	// Err is set if the gateway refused the request.
	Err *RouteError
}

func newRequest(service Service, method, target string, header http.Header, rawBody []byte) *Request {
	r := &Request{
		ID:      uuid.NewString(),
		Service: service,
		Method:  method,
		Path:    target,
		Header:  header.Clone(),
		RawBody: rawBody,
		Time:    time.Now(),
	}
	if u, err := url.Parse(target); err == nil {
		r.Path = u.Path
		r.Query = u.Query()
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	return r
}

// Field returns a value from the JSON body using gjson path syntax, such as "name" or
// "devices.0.pubkey".
func (r *Request) Field(path string) gjson.Result {
	return gjson.GetBytes(r.RawBody, path)
}

// ParsedBody decodes the JSON body into generic values. It returns an error if the body is
// empty or is not valid JSON.
func (r *Request) ParsedBody() (interface{}, error) {
	var v interface{}
	if len(r.RawBody) == 0 {
		return nil, errEmptyBody
	}
	if err := json.Unmarshal(r.RawBody, &v); err != nil {
		return nil, err
	}
	return v, nil
}
