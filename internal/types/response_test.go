package types

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWrite(t *testing.T) {
	w := httptest.NewRecorder()
	(&Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}).Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want JSON default", ct)
	}
	if w.Body.String() != `{"ok":true}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestResponseWrite_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	(&Response{StatusCode: http.StatusUnauthorized}).Write(w)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("empty responses should not claim a content type")
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %s, want empty", w.Body.String())
	}
}

func TestNewInboundRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/workflow/app123?token=abc", nil)
	r.Header.Set("X-Api-Key", "k")

	req := NewInboundRequest(r, []byte(`{"inputs":{}}`))
	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if req.Path != "/workflow/app123" {
		t.Errorf("path = %s", req.Path)
	}
	if req.Query.Get("token") != "abc" {
		t.Errorf("query = %v", req.Query)
	}
	if req.Header.Get("X-Api-Key") != "k" {
		t.Errorf("header = %v", req.Header)
	}
	if req.ParsedBody != nil {
		t.Error("ParsedBody must stay nil until the middleware chain runs")
	}
}
