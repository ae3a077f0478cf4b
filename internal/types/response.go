package types

import (
	"encoding/json"
	"net/http"
)

// BackendResponse is what the backend collaborator returns for an invocation.
// Body is the raw JSON response document.
type BackendResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// Response is a fully shaped HTTP response ready to be written to the caller.
// Produced either by a short-circuiting middleware or by the response shaper.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Write copies the response onto w. A zero ContentType defaults to JSON when
// a body is present.
func (resp *Response) Write(w http.ResponseWriter) {
	if len(resp.Body) > 0 {
		ct := resp.ContentType
		if ct == "" {
			ct = "application/json"
		}
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
