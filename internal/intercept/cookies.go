package intercept

import (
	"net/http"
	"strings"
)

// stripCookieDomain removes every Domain attribute from a Set-Cookie value,
// keeping the other attributes in order.
func stripCookieDomain(cookie string) string {
	return rewriteCookieAttr(cookie, "domain", "", true)
}

// rewriteCookieAttr replaces the value of attr in a Set-Cookie value. With
// drop set the attribute is removed instead.
func rewriteCookieAttr(cookie, attr, value string, drop bool) string {
	parts := strings.Split(cookie, ";")
	out := make([]string, 0, len(parts))
	out = append(out, strings.TrimSpace(parts[0]))
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		if strings.EqualFold(strings.TrimSpace(name), attr) {
			if drop {
				continue
			}
			part = name + "=" + value
		}
		out = append(out, part)
	}
	return strings.Join(out, "; ")
}

// rewriteSetCookies applies fn to every Set-Cookie value in h, preserving
// their order.
func rewriteSetCookies(h http.Header, fn func(string) string) {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return
	}
	rewritten := make([]string, len(values))
	for i, v := range values {
		rewritten[i] = fn(v)
	}
	h["Set-Cookie"] = rewritten
}
