// Package hooks defines the contract between the interception pipeline and
// user code that inspects or replaces upstream responses.
//
// A Handler receives one of two event variants:
//
//   - *RespondEvent: the upstream response was buffered and decoded, and the
//     handler produces the body and status sent to the client.
//   - *RedirectEvent: the upstream answered with a redirect that the route
//     does not follow automatically.
//
// Both carry the server id and the resolved route so handlers never rely on
// captured state.
package hooks

import (
	"context"
	"net/http"
)

// Status is the status line of an interception result. An empty Message
// means the standard reason phrase for Code.
type Status struct {
	Code    int
	Message string
}

// Result is the body and status that finalize the client response.
type Result struct {
	Body   []byte
	Status Status
}

// Toolkit is handed to handlers to build results.
type Toolkit interface {
	RenderView(ctx context.Context, w http.ResponseWriter, view string, data any) Result
	ErrorCode(code int, message string) Result
	RespondUnmodified() Result
	ParseJSON(buf []byte, v any) error
}

// Event is implemented by *RespondEvent and *RedirectEvent.
type Event interface {
	event()
}

// Exchange holds what every event shares.
type Exchange struct {
	ServerID int
	Route    string
	Params   map[string]string
	Request  *http.Request
	Writer   http.ResponseWriter
	Toolkit  Toolkit
}

// RespondEvent carries a fully buffered, decoded upstream response.
type RespondEvent struct {
	Exchange
	Body       []byte
	StatusCode int
	Header     http.Header
}

// RedirectEvent carries an upstream redirect. Location has already been
// rewritten according to the route options; a relative upstream Location
// is resolved against the client request path.
type RedirectEvent struct {
	Exchange
	StatusCode int
	Location   string
}

func (*RespondEvent) event()  {}
func (*RedirectEvent) event() {}

// Handler handles an interception event. For a RedirectEvent a zero
// Result.Status.Code means the handler wrote the client response itself.
type Handler interface {
	Handle(ctx context.Context, ev Event) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) (Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) (Result, error) {
	return f(ctx, ev)
}

// RespondFunc adapts a function that only handles RespondEvents. Any other
// event is an error.
type RespondFunc func(ctx context.Context, ev *RespondEvent) (Result, error)

// Handle implements Handler.
func (f RespondFunc) Handle(ctx context.Context, ev Event) (Result, error) {
	re, ok := ev.(*RespondEvent)
	if !ok {
		return Result{}, &UnexpectedEventError{Event: ev}
	}
	return f(ctx, re)
}

// RedirectFunc adapts a function that only handles RedirectEvents.
type RedirectFunc func(ctx context.Context, ev *RedirectEvent) (Result, error)

// Handle implements Handler.
func (f RedirectFunc) Handle(ctx context.Context, ev Event) (Result, error) {
	re, ok := ev.(*RedirectEvent)
	if !ok {
		return Result{}, &UnexpectedEventError{Event: ev}
	}
	return f(ctx, re)
}
