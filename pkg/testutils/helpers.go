package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nimeshabuddhika/product-api/pkg"
)

// ApiResponse is the success envelope with loosely typed data.
type ApiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ErrorResponse covers both the error envelope and the route-not-found envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details"`
	TraceID string `json:"traceId"`
}

// Do serves one request against h and returns the recorded response.
// A string body is sent as is; anything else is JSON encoded.
func Do(t *testing.T, h http.Handler, method, url string, body any, headers ...map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, hs := range headers {
		for k, v := range hs {
			req.Header.Set(k, v)
		}
	}
	t.Logf("Request %s %s", method, url)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	t.Logf("Response %s %s: Status %d", method, url, w.Code)
	return w
}

func GetTraceId(w *httptest.ResponseRecorder) string {
	return w.Header().Get(pkg.HeaderTraceId)
}

func DecodeSuccess(r io.Reader) (ApiResponse, error) {
	var out ApiResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func DecodeError(r io.Reader) (ErrorResponse, error) {
	var out ErrorResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
