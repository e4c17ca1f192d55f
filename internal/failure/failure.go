// Package failure normalizes anything a caller caught into exactly one
// user-visible notification.  Values are first classified into a closed
// set of variants and only then formatted, so the wording for each shape
// lives in one place.
package failure

import (
	"errors"
	"fmt"
)

// Fallback texts shown when a failure carries no usable wording.
const (
	FallbackTransportMessage = "An error occurred"
	FallbackTransportError   = "Unknown error"
	FallbackGeneric          = "An unexpected error occurred"
	FallbackUnknown          = "An unexpected error occurred. Please try again."
)

// Payload is the JSON error body returned by the PopcornON API.
type Payload struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Transport is implemented by errors that may carry an HTTP response.  ok
// is false when the request never got one.
type Transport interface {
	error
	TransportResponse() (status int, payload Payload, ok bool)
}

// Kind names a Failure variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindGeneric
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Failure is one of TransportFailure, GenericFailure or UnknownFailure.
type Failure interface {
	Kind() Kind
	Message() string
	sealed()
}

// TransportFailure is a request that got an HTTP response and came
// back with a structured body (or with none).
type TransportFailure struct {
	Status  int
	Payload Payload
}

func (TransportFailure) Kind() Kind { return KindTransport }
func (TransportFailure) sealed()    {}

// Message renders "<message>: <error>" with fallbacks for missing parts.
func (f TransportFailure) Message() string {
	msg := f.Payload.Message
	if msg == "" {
		msg = FallbackTransportMessage
	}
	code := f.Payload.Error
	if code == "" {
		code = FallbackTransportError
	}
	return fmt.Sprintf("%s: %s", msg, code)
}

// GenericFailure is any other error value.
type GenericFailure struct {
	Text string
}

func (GenericFailure) Kind() Kind { return KindGeneric }
func (GenericFailure) sealed()    {}

func (f GenericFailure) Message() string {
	if f.Text == "" {
		return FallbackGeneric
	}
	return f.Text
}

// UnknownFailure is a value that is not an error at all.
type UnknownFailure struct{}

func (UnknownFailure) Kind() Kind      { return KindUnknown }
func (UnknownFailure) sealed()         {}
func (UnknownFailure) Message() string { return FallbackUnknown }

// Classify maps any caught value onto a Failure variant.
func Classify(v any) Failure {
	err, ok := v.(error)
	if !ok || err == nil {
		return UnknownFailure{}
	}
	var t Transport
	if errors.As(err, &t) {
		if status, payload, ok := t.TransportResponse(); ok {
			return TransportFailure{Status: status, Payload: payload}
		}
	}
	return GenericFailure{Text: err.Error()}
}

// Message is Classify(v).Message().
func Message(v any) string { return Classify(v).Message() }
