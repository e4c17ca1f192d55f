package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khIbrahim/popcornon/internal/notify"
)

type httpError struct {
	status  int
	payload Payload
	cause   error
}

func (e *httpError) Error() string {
	if e.cause != nil {
		return "request failed: " + e.cause.Error()
	}
	return fmt.Sprintf("status %d", e.status)
}

func (e *httpError) TransportResponse() (int, Payload, bool) {
	return e.status, e.payload, e.cause == nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
		want string
	}{
		{
			name: "transport with message and error",
			in:   &httpError{status: 400, payload: Payload{Message: "Invalid request", Error: "bad_id"}},
			kind: KindTransport,
			want: "Invalid request: bad_id",
		},
		{
			name: "transport missing message",
			in:   &httpError{status: 500, payload: Payload{Error: "db_down"}},
			kind: KindTransport,
			want: "An error occurred: db_down",
		},
		{
			name: "transport missing error",
			in:   &httpError{status: 404, payload: Payload{Message: "Cinema not found"}},
			kind: KindTransport,
			want: "Cinema not found: Unknown error",
		},
		{
			name: "transport without body",
			in:   &httpError{status: 502},
			kind: KindTransport,
			want: "An error occurred: Unknown error",
		},
		{
			name: "transport without response",
			in:   &httpError{cause: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")},
			kind: KindGeneric,
			want: "request failed: dial tcp 127.0.0.1:1: connect: connection refused",
		},
		{
			name: "wrapped transport",
			in:   fmt.Errorf("load overview: %w", &httpError{status: 403, payload: Payload{Message: "Forbidden", Error: "forbidden"}}),
			kind: KindTransport,
			want: "Forbidden: forbidden",
		},
		{
			name: "generic error",
			in:   errors.New("Network down"),
			kind: KindGeneric,
			want: "Network down",
		},
		{
			name: "generic error with empty message",
			in:   errors.New(""),
			kind: KindGeneric,
			want: "An unexpected error occurred",
		},
		{name: "plain string", in: "oops", kind: KindUnknown, want: FallbackUnknown},
		{name: "nil", in: nil, kind: KindUnknown, want: FallbackUnknown},
		{name: "number", in: 42, kind: KindUnknown, want: FallbackUnknown},
		{name: "struct", in: struct{ Message string }{"hi"}, kind: KindUnknown, want: FallbackUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.in)
			assert.Equal(t, tt.kind, f.Kind())
			assert.Equal(t, tt.want, f.Message())
			assert.Equal(t, tt.want, Message(tt.in))
		})
	}
}

func TestClassifyKeepsStatus(t *testing.T) {
	f := Classify(&httpError{status: 422, payload: Payload{Message: "m", Error: "e"}})
	tf, ok := f.(TransportFailure)
	require.True(t, ok)
	assert.Equal(t, 422, tf.Status)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "generic", KindGeneric.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestNormalizerEmitsExactlyOneToast(t *testing.T) {
	inputs := []struct {
		in   any
		want string
	}{
		{&httpError{status: 400, payload: Payload{Message: "Invalid request", Error: "bad_id"}}, "Invalid request: bad_id"},
		{errors.New("Network down"), "Network down"},
		{errors.New(""), "An unexpected error occurred"},
		{"oops", "An unexpected error occurred. Please try again."},
		{nil, "An unexpected error occurred. Please try again."},
	}
	for _, in := range inputs {
		rec := &notify.Recorder{}
		n := New(rec, zerolog.Nop())
		n.Handle(in.in)
		toasts := rec.Toasts()
		require.Len(t, toasts, 1)
		assert.Equal(t, notify.LevelError, toasts[0].Level)
		assert.Equal(t, in.want, toasts[0].Message)
	}
}

func TestNormalizerDoesNotDeduplicate(t *testing.T) {
	rec := &notify.Recorder{}
	n := New(rec, zerolog.Nop())
	err := errors.New("Network down")
	n.Handle(err)
	n.Handle(err)
	n.Handle(err)
	assert.Equal(t, []string{"Network down", "Network down", "Network down"}, rec.Messages())
}

func TestNormalizerRecover(t *testing.T) {
	rec := &notify.Recorder{}
	n := New(rec, zerolog.Nop())

	func() {
		defer n.Recover()
		panic("oops")
	}()
	func() {
		defer n.Recover()
		panic(errors.New("worker crashed"))
	}()
	func() {
		defer n.Recover()
	}()

	assert.Equal(t, []string{FallbackUnknown, "worker crashed"}, rec.Messages())
}
