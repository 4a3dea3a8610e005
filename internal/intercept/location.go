package intercept

import (
	"net/http"
	"net/url"

	"github.com/vyrodovalexey/managedproxy/internal/registry"
)

// rewriteLocation applies the route's host and protocol rewrites to an
// upstream Location. Only locations pointing at the upstream itself are
// rewritten; a relative Location is resolved against the client path.
func rewriteLocation(location string, upstream *url.URL, client *http.Request, opts registry.RequestOptions) (string, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}

	if !loc.IsAbs() && loc.Host == "" {
		base := &url.URL{Path: client.URL.Path}
		return base.ResolveReference(loc).String(), nil
	}

	if upstream == nil || loc.Host != upstream.Host {
		return loc.String(), nil
	}

	switch {
	case opts.HostRewrite != "":
		loc.Host = opts.HostRewrite
	case opts.AutoRewrite:
		loc.Host = client.Host
	}
	if opts.ProtocolRewrite != "" {
		loc.Scheme = opts.ProtocolRewrite
	}
	return loc.String(), nil
}
