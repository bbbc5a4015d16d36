package collection

import (
	"errors"
	"fmt"
	"net/http"
)

var errNoResponse = errors.New("no response")

// Response is the raw outcome of one round-trip to a collection endpoint.
// A Response is returned for every status code; interpreting it is up to the caller.
type Response struct {
	Method      string
	URL         string
	StatusCode  int
	Body        []byte
	ContentType string
	Location    string
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a *StatusError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r == nil {
		return errNoResponse
	}
	if r.IsSuccess() {
		return nil
	}
	return &StatusError{
		Method:     r.Method,
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       string(r.Body),
	}
}

// StatusError is a remote rejection: the request reached storage and was answered with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
