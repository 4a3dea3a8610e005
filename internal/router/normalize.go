package router

import "strings"

// Normalize strips the query from the last path segment and then a single
// trailing slash. The root path stays "/".
func Normalize(path string) string {
	lastSlash := strings.LastIndexByte(path, '/')
	if q := strings.IndexByte(path[lastSlash+1:], '?'); q >= 0 {
		path = path[:lastSlash+1+q]
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
