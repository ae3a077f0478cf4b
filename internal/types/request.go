package types

import (
	"net/http"
	"net/url"
)

// InboundRequest is the canonical internal view of an incoming webhook
// delivery. It is built once per request from the raw HTTP request and owned
// by the pipeline for the lifetime of that request; it is never persisted.
type InboundRequest struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   []byte

	// ParsedBody is the structured form of Body, populated by the default
	// middleware. Nil until the middleware chain has run.
	ParsedBody map[string]any
}

// NewInboundRequest captures the relevant parts of an HTTP request. The body
// must already be fully read; the *http.Request itself is not retained.
func NewInboundRequest(r *http.Request, body []byte) *InboundRequest {
	return &InboundRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Query:  r.URL.Query(),
		Body:   body,
	}
}
