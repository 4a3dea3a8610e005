// Package intercept drives the response interception pipeline.
//
// For every upstream response of a managed route the pipeline picks one
// branch:
//
//   - redirect: the upstream answered 301/302/303/307/308 with a Location.
//     The client is redirected, or the route's redirect hook decides.
//   - self_handle: the route buffers the response. The body is decoded
//     (gzip, deflate, br), handed to the response hook, and the hook's
//     result is written with a fresh Content-Length.
//   - ignored: the response streams through unchanged apart from cookie
//     rewrites.
//
// Handle reports whether it wrote the client response. When it did not,
// the caller copies the upstream response as usual.
package intercept
