// Package proxy exposes managed proxy servers to a gin application.
//
// A Manager creates server instances and hands out one gin middleware per
// registered route:
//
//	m := proxy.NewManager(reg, pipeline, proxy.WithLogger(logger))
//	id, err := m.Create(registry.ProxyOptions{Target: "http://upstream.test"})
//	mw, err := m.RegisterAndGetMiddleware(id, "GET", "/a/:id", registry.Registration{...})
//	engine.Use(mw)
//
// A route middleware resolves the request against its server's route table
// and forwards only when the request resolves to its own route; otherwise
// it calls the next handler. Route middlewares can therefore be installed
// globally in any order, or mounted per route with router.GinPath.
//
// Each server has one httputil.ReverseProxy. Upstream responses go through
// the interception pipeline before anything is written to the client.
package proxy
