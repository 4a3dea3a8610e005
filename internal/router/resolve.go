package router

// Resolution is the outcome of resolving a request against a route table.
type Resolution struct {
	Key     ContextKey
	Params  map[string]string
	Pattern PathMatcher
	// Fallback is true when nothing matched and Key is the literal path.
	Fallback bool
}

// Table is the read side of a route table.
type Table interface {
	HasContext(key ContextKey) bool
	// Patterns returns the dynamic patterns registered for method, in
	// registration order.
	Patterns(method string) []PathMatcher
}

// Resolve maps method and a raw request path to the registered context.
// It never mutates the table.
func Resolve(t Table, method, rawPath string) Resolution {
	path := Normalize(rawPath)
	literal := Encode(method, path)
	if t.HasContext(literal) {
		return Resolution{Key: literal}
	}

	for _, m := range t.Patterns(literal.Method()) {
		if ok, params := m.Match(path); ok {
			return Resolution{
				Key:     Encode(method, m.Pattern()),
				Params:  params,
				Pattern: m,
			}
		}
	}

	return Resolution{Key: literal, Fallback: true}
}
