// Package server hosts the gin engine that managed route middlewares are
// installed on, plus the optional metrics listener.
//
// Requests that no managed route claims fall through to a JSON 404.
// /healthz is always served and is never proxied; /readyz reports the
// registered health checks.
package server
