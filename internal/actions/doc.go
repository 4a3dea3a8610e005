// Package actions provides built-in hooks that routes declared in
// configuration attach by name.
//
// Response actions:
//
//   - render: decode the upstream JSON body and render a view with it.
//   - status: reply with a fixed status and no body.
//   - unmodified: reply 304 Not Modified.
//   - passthrough: return the buffered upstream body unchanged.
//
// Redirect actions:
//
//   - json: reply 200 with {"location": "..."}.
//   - status: reply with a fixed status; 3xx codes keep the Location header.
package actions
