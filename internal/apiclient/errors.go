package apiclient

import (
	"fmt"

	"github.com/khIbrahim/popcornon/internal/failure"
)

// TransportError is returned for every HTTP-level failure: a non-2xx
// response (StatusCode and the decoded Payload set) or a request that never
// got a response (StatusCode 0, Err set).
type TransportError struct {
	StatusCode int
	Payload    failure.Payload
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Payload.Error != "":
		return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Payload.Error)
	}
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransportResponse exposes the response to the failure classifier.  A
// request that never got a response reports ok false.
func (e *TransportError) TransportResponse() (int, failure.Payload, bool) {
	return e.StatusCode, e.Payload, e.StatusCode != 0
}

var _ failure.Transport = (*TransportError)(nil)
