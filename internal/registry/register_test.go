package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

func TestRegister_Defaults(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)

	key, err := r.Register(id, "get", "/a/", Registration{})
	require.NoError(t, err)
	assert.Equal(t, router.Encode("GET", "/a"), key)

	inst, _ := r.Get(id)
	entry, ok := inst.Lookup(key)
	require.True(t, ok)
	opts := entry.Options()
	assert.True(t, opts.Follow())
	assert.False(t, opts.SelfHandleResponse)
	assert.Nil(t, entry.Response)
	assert.Nil(t, entry.OnResponse())
	assert.Nil(t, entry.OnRedirect())
}

func TestRegister_ResolvesToRegistrationKey(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	paths := []string{"/", "/a", "/a/:id", "/files/*", "/user/register", "/user/:id"}
	for _, p := range paths {
		key, err := r.Register(id, "GET", p, Registration{})
		require.NoError(t, err, p)
		assert.Equal(t, key, inst.Resolve("GET", p).Key, p)
	}
}

func TestRegister_LiteralBeatsParameter(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	_, err := r.Register(id, "GET", "/user/:id", Registration{})
	require.NoError(t, err)
	literal, err := r.Register(id, "GET", "/user/register", Registration{})
	require.NoError(t, err)

	assert.Equal(t, literal, inst.Resolve("GET", "/user/register").Key)
	assert.Equal(t, router.Encode("GET", "/user/:id"), inst.Resolve("GET", "/user/99").Key)
}

func TestRegister_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     ServerID
		method string
		path   string
		reg    Registration
	}{
		{name: "empty method", method: "", path: "/a"},
		{name: "bad method", method: "G T", path: "/a"},
		{name: "empty path", method: "GET", path: ""},
		{name: "no leading slash", method: "GET", path: "a"},
		{name: "unknown server", id: 9, method: "GET", path: "/a"},
		{
			name:   "self handle without onResponse",
			method: "GET", path: "/a",
			reg: Registration{Request: &RequestOptions{SelfHandleResponse: true}},
		},
		{
			name:   "onResponse without self handle",
			method: "GET", path: "/a",
			reg: Registration{OnResponse: okHandler},
		},
		{
			name:   "no follow without onRedirect",
			method: "GET", path: "/a",
			reg: Registration{Request: &RequestOptions{FollowRedirects: Bool(false)}},
		},
		{
			name:   "bad protocol rewrite",
			method: "GET", path: "/a",
			reg: Registration{Request: &RequestOptions{ProtocolRewrite: "ftp"}},
		},
		{
			name:   "bad target override",
			method: "GET", path: "/a",
			reg: Registration{Request: &RequestOptions{TargetOverride: "not a url"}},
		},
		{name: "unnamed parameter", method: "GET", path: "/a/:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := newTestRegistry(t)
			_, err := r.Register(tt.id, tt.method, tt.path, tt.reg)
			require.Error(t, err)
			assert.True(t, util.IsConfigError(err))

			inst, _ := r.Get(0)
			assert.Equal(t, 0, inst.Len())
			assert.Equal(t, 0, inst.PatternCount())
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	first := Registration{
		Request:    &RequestOptions{SelfHandleResponse: true},
		OnResponse: okHandler,
	}
	key, err := r.Register(id, "GET", "/a", first)
	require.NoError(t, err)

	_, err = r.Register(id, "GET", "/a/", Registration{})
	require.Error(t, err)
	assert.True(t, util.IsConfigError(err))

	entry, ok := inst.Lookup(key)
	require.True(t, ok)
	assert.True(t, entry.Options().SelfHandleResponse)
	assert.NotNil(t, entry.OnResponse())
	assert.Equal(t, 1, inst.Len())
}

func TestRegister_DuplicateDynamic(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	_, err := r.Register(id, "GET", "/a/:id", Registration{})
	require.NoError(t, err)
	_, err = r.Register(id, "GET", "/a/:id", Registration{})
	require.Error(t, err)
	assert.Equal(t, 1, inst.PatternCount())

	_, err = r.Register(id, "POST", "/a/:id", Registration{})
	require.Error(t, err)
	assert.True(t, util.IsConfigError(err))
	assert.Equal(t, 1, inst.PatternCount())
	assert.Empty(t, inst.Patterns("POST"))

	_, err = r.Register(id, "POST", "/a/:id/", Registration{})
	require.Error(t, err)
}

func TestRegister_RollbackOnInvariantViolation(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	_, err := r.Register(id, "GET", "/files/*", Registration{
		Request: &RequestOptions{SelfHandleResponse: true},
	})
	require.Error(t, err)
	assert.Equal(t, 0, inst.PatternCount())
	assert.Empty(t, inst.Patterns("GET"))

	// The pattern can be registered correctly afterwards.
	_, err = r.Register(id, "GET", "/files/*", Registration{
		Request:    &RequestOptions{SelfHandleResponse: true},
		OnResponse: okHandler,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inst.PatternCount())
}

func TestRegister_RollbackKeepsOrder(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	_, err := r.Register(id, "GET", "/a/:x", Registration{})
	require.NoError(t, err)
	_, err = r.Register(id, "GET", "/:y/b", Registration{OnResponse: okHandler})
	require.Error(t, err)
	_, err = r.Register(id, "GET", "/c/:z", Registration{})
	require.NoError(t, err)

	patterns := inst.Patterns("GET")
	require.Len(t, patterns, 2)
	assert.Equal(t, "/a/:x", patterns[0].Pattern())
	assert.Equal(t, "/c/:z", patterns[1].Pattern())
}

func TestRegister_CopiesFollowRedirects(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	follow := false
	key, err := r.Register(id, "GET", "/r", Registration{
		Request:    &RequestOptions{FollowRedirects: &follow},
		OnRedirect: okHandler,
	})
	require.NoError(t, err)

	follow = true
	entry, _ := inst.Lookup(key)
	assert.False(t, entry.Options().Follow())
}

func TestRegister_MergesHalves(t *testing.T) {
	t.Parallel()

	r, id := newTestRegistry(t)
	inst, _ := r.Get(id)

	key, err := r.Register(id, "GET", "/r", Registration{
		Request:    &RequestOptions{FollowRedirects: Bool(false), HostRewrite: "public.test"},
		OnRedirect: okHandler,
	})
	require.NoError(t, err)

	entry, _ := inst.Lookup(key)
	assert.False(t, entry.Options().Follow())
	assert.Equal(t, "public.test", entry.Options().HostRewrite)
	assert.NotNil(t, entry.OnRedirect())
	assert.Nil(t, entry.OnResponse())
}
