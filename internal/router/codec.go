package router

import "strings"

// keySeparator joins method and path. NUL never appears in a method token
// and net/http rejects it in request paths.
const keySeparator = "\x00"

// ContextKey identifies a registered (method, path) route.
type ContextKey string

// Encode builds the context key for method and an already-normalized path.
// The method is upper-cased.
func Encode(method, path string) ContextKey {
	return ContextKey(strings.ToUpper(method) + keySeparator + path)
}

// Method returns the method half of the key.
func (k ContextKey) Method() string {
	method, _, _ := strings.Cut(string(k), keySeparator)
	return method
}

// Path returns the path half of the key.
func (k ContextKey) Path() string {
	_, path, _ := strings.Cut(string(k), keySeparator)
	return path
}

// String renders the key as "METHOD path" for logs and metric labels.
func (k ContextKey) String() string {
	return k.Method() + " " + k.Path()
}
