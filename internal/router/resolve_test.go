package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	contexts map[ContextKey]bool
	patterns map[string][]PathMatcher
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		contexts: make(map[ContextKey]bool),
		patterns: make(map[string][]PathMatcher),
	}
}

func (f *fakeTable) add(t *testing.T, method, path string) ContextKey {
	t.Helper()
	path = Normalize(path)
	key := Encode(method, path)
	if IsDynamic(path) {
		m, err := Compile(path)
		require.NoError(t, err)
		f.patterns[key.Method()] = append(f.patterns[key.Method()], m)
	}
	f.contexts[key] = true
	return key
}

func (f *fakeTable) HasContext(key ContextKey) bool { return f.contexts[key] }

func (f *fakeTable) Patterns(method string) []PathMatcher { return f.patterns[method] }

func TestResolve_RegisteredPathsRoundTrip(t *testing.T) {
	t.Parallel()

	table := newFakeTable()
	paths := []string{"/", "/a", "/a/:id", "/files/*", "/user/register"}
	keys := make([]ContextKey, len(paths))
	for i, p := range paths {
		keys[i] = table.add(t, "GET", p)
	}

	for i, p := range paths {
		res := Resolve(table, "GET", p)
		assert.Equal(t, keys[i], res.Key, p)
		assert.False(t, res.Fallback, p)
	}
}

func TestResolve_LiteralWins(t *testing.T) {
	t.Parallel()

	table := newFakeTable()
	table.add(t, "GET", "/user/:id")
	register := table.add(t, "GET", "/user/register")

	res := Resolve(table, "GET", "/user/register")
	assert.Equal(t, register, res.Key)
	assert.Nil(t, res.Pattern)

	res = Resolve(table, "GET", "/user/42?x=1")
	assert.Equal(t, Encode("GET", "/user/:id"), res.Key)
	assert.Equal(t, map[string]string{"id": "42"}, res.Params)
}

func TestResolve_Wildcard(t *testing.T) {
	t.Parallel()

	table := newFakeTable()
	files := table.add(t, "GET", "/files/*")

	res := Resolve(table, "GET", "/files/a/b/c")
	assert.Equal(t, files, res.Key)
	assert.False(t, res.Fallback)

	res = Resolve(table, "GET", "/other")
	assert.Equal(t, Encode("GET", "/other"), res.Key)
	assert.True(t, res.Fallback)
}

func TestResolve_RegistrationOrderBreaksTies(t *testing.T) {
	t.Parallel()

	table := newFakeTable()
	first := table.add(t, "GET", "/a/:x")
	table.add(t, "GET", "/:y/b")

	res := Resolve(table, "GET", "/a/b")
	assert.Equal(t, first, res.Key)
}

func TestResolve_MethodScoped(t *testing.T) {
	t.Parallel()

	table := newFakeTable()
	table.add(t, "POST", "/a/:id")

	res := Resolve(table, "GET", "/a/1")
	assert.True(t, res.Fallback)
	assert.Equal(t, Encode("GET", "/a/1"), res.Key)
}
