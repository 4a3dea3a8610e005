// Package registry owns proxy server instances and their route tables.
//
// A Registry is an explicit object: callers create one and pass it to the
// components that need it. Servers are created with Create and receive
// monotonically increasing ids. Routes are added with Register, which
// validates the route options before anything becomes visible to request
// resolution:
//
//	reg := registry.New(registry.WithLogger(logger))
//	id, err := reg.Create(registry.ProxyOptions{Target: "http://upstream.test"})
//	key, err := reg.Register(id, "GET", "/a/:id", registry.Registration{
//	    Request:    &registry.RequestOptions{SelfHandleResponse: true},
//	    OnResponse: handler,
//	})
//
// Registration is expected to finish before traffic arrives. Tables are
// guarded by read-write locks so late registration is safe, but a route
// registered mid-flight only affects requests resolved after it.
package registry
