package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/managedproxy/internal/hooks"
	"github.com/vyrodovalexey/managedproxy/internal/intercept"
	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/toolkit"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// roundTripFunc serves upstream requests in-process so targets such as
// http://upstream.test need no DNS.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func handlerTransport(h http.Handler) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		resp := rec.Result()
		resp.Request = r
		return resp, nil
	})
}

type upstreamRecord struct {
	mu      sync.Mutex
	host    string
	url     string
	body    string
	headers http.Header
}

func (u *upstreamRecord) handler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b []byte
		if r.Body != nil {
			b, _ = io.ReadAll(r.Body)
		}
		u.mu.Lock()
		u.host = r.Host
		if u.host == "" {
			u.host = r.URL.Host
		}
		u.url = r.URL.RequestURI()
		u.body = string(b)
		u.headers = r.Header.Clone()
		u.mu.Unlock()
		w.Header().Set("X-Upstream", "1")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func newTestManager(t *testing.T, transport http.RoundTripper) *Manager {
	t.Helper()
	pipeline := intercept.New(toolkit.New(nil))
	return NewManager(registry.New(), pipeline, WithTransport(transport))
}

func newEngine(mws ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(mws...)
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "no route")
	})
	return engine
}

// recorder adds CloseNotify to httptest.ResponseRecorder; gin's writer
// requires it once the reverse proxy asks for close notification.
type recorder struct {
	*httptest.ResponseRecorder
}

func (r *recorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func newRecorder() *recorder {
	return &recorder{ResponseRecorder: httptest.NewRecorder()}
}

func serve(engine http.Handler, method, target string, body io.Reader) *recorder {
	rec := newRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestManager_EndToEndSelfHandle(t *testing.T) {
	t.Parallel()

	up := &upstreamRecord{}
	m := newTestManager(t, handlerTransport(up.handler(200, "upstream body")))

	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)

	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/a/:id", registry.Registration{
		Request: &registry.RequestOptions{SelfHandleResponse: true},
		OnResponse: hooks.RespondFunc(func(_ context.Context, ev *hooks.RespondEvent) (hooks.Result, error) {
			return hooks.Result{
				Body:   []byte("OK-" + ev.Params["id"]),
				Status: hooks.Status{Code: http.StatusOK, Message: "OK"},
			}, nil
		}),
	})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/a/42", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK-42", rec.Body.String())
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "/a/42", up.url)
}

func TestManager_PassThrough(t *testing.T) {
	t.Parallel()

	up := &upstreamRecord{}
	m := newTestManager(t, handlerTransport(up.handler(201, "created")))

	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test/base"})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodPost, "/items", registry.Registration{})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodPost, "/items?x=1", strings.NewReader("payload"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "created", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "/base/items?x=1", up.url)
	assert.Equal(t, "payload", up.body)
	assert.Equal(t, "example.com", up.host)
}

func TestManager_NonMatchingFallsThrough(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, handlerTransport(http.NotFoundHandler()))
	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/files/*", registry.Registration{})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/documents", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no route", rec.Body.String())

	rec = serve(newEngine(mw), http.MethodPost, "/files/a", nil)
	assert.Equal(t, "no route", rec.Body.String())
}

func TestManager_LiteralMiddlewareWins(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, handlerTransport(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)

	respond := func(tag string) registry.Registration {
		return registry.Registration{
			Request: &registry.RequestOptions{SelfHandleResponse: true},
			OnResponse: hooks.RespondFunc(func(context.Context, *hooks.RespondEvent) (hooks.Result, error) {
				return hooks.Result{Body: []byte(tag)}, nil
			}),
		}
	}

	param, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/user/:id", respond("param"))
	require.NoError(t, err)
	literal, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/user/register", respond("literal"))
	require.NoError(t, err)

	engine := newEngine(param, literal)
	assert.Equal(t, "literal", serve(engine, http.MethodGet, "/user/register", nil).Body.String())
	assert.Equal(t, "param", serve(engine, http.MethodGet, "/user/7", nil).Body.String())
}

func TestManager_ForwardingError(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/a", registry.Registration{})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/a", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"bad gateway","message":"failed to proxy request"}`, rec.Body.String())
}

func TestManager_HookError(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, handlerTransport(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Set-Cookie", "session=secret")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=3600")
		w.Header().Set("Content-Type", "text/html")
	})))
	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/a", registry.Registration{
		Request: &registry.RequestOptions{SelfHandleResponse: true},
		OnResponse: hooks.RespondFunc(func(context.Context, *hooks.RespondEvent) (hooks.Result, error) {
			return hooks.Result{}, errors.New("hook failed")
		}),
	})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/a", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "response handler failed")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestManager_CircuitBreaker(t *testing.T) {
	t.Parallel()

	calls := 0
	m := newTestManager(t, roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("down")
	}))
	id, err := m.Create(registry.ProxyOptions{
		Target:         "http://upstream.test",
		CircuitBreaker: &registry.BreakerOptions{FailureThreshold: 2, Timeout: time.Minute},
	})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/a", registry.Registration{})
	require.NoError(t, err)
	engine := newEngine(mw)

	assert.Equal(t, http.StatusBadGateway, serve(engine, http.MethodGet, "/a", nil).Code)
	assert.Equal(t, http.StatusBadGateway, serve(engine, http.MethodGet, "/a", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(engine, http.MethodGet, "/a", nil).Code)
	assert.Equal(t, 2, calls)
}

func TestManager_ParsedBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		parsed      any
		wantBody    string
	}{
		{
			name:        "json",
			contentType: "application/json; charset=utf-8",
			parsed:      map[string]any{"name": "ünï", "n": 1},
			wantBody:    `{"n":1,"name":"ünï"}`,
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			parsed:      url.Values{"a": {"1"}, "b": {"x y"}},
			wantBody:    "a=1&b=x+y",
		},
		{
			name:        "other content type keeps body",
			contentType: "text/plain",
			parsed:      map[string]any{"ignored": true},
			wantBody:    "original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			up := &upstreamRecord{}
			m := newTestManager(t, handlerTransport(up.handler(200, "")))
			id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
			require.NoError(t, err)
			mw, err := m.RegisterAndGetMiddleware(id, http.MethodPost, "/submit", registry.Registration{})
			require.NoError(t, err)

			setBody := func(c *gin.Context) {
				c.Set(ParsedBodyKey, tt.parsed)
				c.Next()
			}
			req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("original"))
			req.Header.Set("Content-Type", tt.contentType)
			rec := newRecorder()
			newEngine(setBody, mw).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			if tt.name == "json" {
				assert.JSONEq(t, tt.wantBody, up.body)
			} else {
				assert.Equal(t, tt.wantBody, up.body)
			}
			if tt.name != "other content type keeps body" {
				assert.Equal(t, len(up.body), contentLength(t, up.headers))
			}
		})
	}
}

func contentLength(t *testing.T, h http.Header) int {
	t.Helper()
	n, err := strconv.Atoi(h.Get("Content-Length"))
	require.NoError(t, err)
	return n
}

func TestManager_OutgoingRequestOptions(t *testing.T) {
	t.Parallel()

	up := &upstreamRecord{}
	m := newTestManager(t, handlerTransport(up.handler(200, "")))
	id, err := m.Create(registry.ProxyOptions{
		Target:       "http://upstream.test",
		ChangeOrigin: true,
		XForwarded:   true,
		Headers:      map[string]string{"X-Api-Key": "secret"},
	})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/o", registry.Registration{
		Request: &registry.RequestOptions{TargetOverride: "http://other.test/v2"},
	})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/o", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "other.test", up.host)
	assert.Equal(t, "/v2/o", up.url)
	assert.Equal(t, "secret", up.headers.Get("X-Api-Key"))
	assert.Equal(t, "example.com", up.headers.Get("X-Forwarded-Host"))
	assert.Equal(t, "http", up.headers.Get("X-Forwarded-Proto"))
}

func TestManager_RedirectRewrite(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, handlerTransport(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://upstream.test/next", http.StatusMovedPermanently)
	})))
	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)
	mw, err := m.RegisterAndGetMiddleware(id, http.MethodGet, "/old", registry.Registration{
		Request: &registry.RequestOptions{AutoRewrite: true, ProtocolRewrite: "https"},
	})
	require.NoError(t, err)

	rec := serve(newEngine(mw), http.MethodGet, "/old", nil)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://example.com/next", rec.Header().Get("Location"))
}

func TestManager_RegisterErrors(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, http.DefaultTransport)

	_, err := m.RegisterAndGetMiddleware(3, http.MethodGet, "/a", registry.Registration{})
	assert.True(t, util.IsConfigError(err))
	assert.ErrorIs(t, err, registry.ErrServerNotFound)

	_, err = m.Create(registry.ProxyOptions{})
	assert.True(t, util.IsConfigError(err))

	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
	require.NoError(t, err)
	_, err = m.RegisterAndGetMiddleware(id, http.MethodGet, "/a", registry.Registration{
		Request: &registry.RequestOptions{SelfHandleResponse: true},
	})
	assert.True(t, util.IsConfigError(err))
}

func TestManager_StatusHelpers(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, http.DefaultTransport)

	assert.True(t, m.IsStatusOK(http.StatusOK))
	assert.True(t, m.IsStatusOK(http.StatusNotModified))
	assert.False(t, m.IsStatusOK(http.StatusCreated))
	assert.False(t, m.IsStatusOK(http.StatusInternalServerError))

	assert.True(t, m.ShouldUseCache(http.StatusNotModified))
	assert.False(t, m.ShouldUseCache(http.StatusOK))
}
