package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondFunc(t *testing.T) {
	t.Parallel()

	h := RespondFunc(func(_ context.Context, ev *RespondEvent) (Result, error) {
		return Result{Body: []byte("OK-" + ev.Params["id"]), Status: Status{Code: 200, Message: "OK"}}, nil
	})

	res, err := h.Handle(context.Background(), &RespondEvent{
		Exchange: Exchange{Params: map[string]string{"id": "42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "OK-42", string(res.Body))
	assert.Equal(t, 200, res.Status.Code)

	_, err = h.Handle(context.Background(), &RedirectEvent{})
	var unexpected *UnexpectedEventError
	require.ErrorAs(t, err, &unexpected)
	assert.Contains(t, err.Error(), "*hooks.RedirectEvent")
}

func TestRedirectFunc(t *testing.T) {
	t.Parallel()

	h := RedirectFunc(func(_ context.Context, ev *RedirectEvent) (Result, error) {
		return Result{Body: []byte(ev.Location), Status: Status{Code: 200}}, nil
	})

	res, err := h.Handle(context.Background(), &RedirectEvent{Location: "http://x.test/next"})
	require.NoError(t, err)
	assert.Equal(t, "http://x.test/next", string(res.Body))

	_, err = h.Handle(context.Background(), &RespondEvent{})
	assert.Error(t, err)
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	var seen Event
	h := HandlerFunc(func(_ context.Context, ev Event) (Result, error) {
		seen = ev
		return Result{}, nil
	})

	ev := &RedirectEvent{StatusCode: 302}
	_, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Same(t, ev, seen)
}
