// Package router maps request paths to registered route contexts.
//
// A context is the canonical key for a (method, normalized path) pair.
// Literal paths are looked up directly. Dynamic paths are precompiled into
// matchers once, at registration time:
//
//   - Wildcard: a path ending in "/*" matches every path that starts with
//     its prefix. "/files/*" matches "/files", "/files/a/b/c" and also
//     "/filesystem".
//   - Parameter: a path with one or more ":name" segments matches any path
//     with the same number of segments whose fixed segments are equal,
//     ignoring case.
//
// Resolution order is literal first, then dynamic patterns in registration
// order, then the literal path itself as a fallback.
package router
