package governance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T, status int, contentType, body string) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return target
}

func throughProxy(t *testing.T, target *url.URL) *httptest.ResponseRecorder {
	t.Helper()
	s, err := Build(context.Background(), loadConfig(t), nil)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "http://gw/api/books/7", nil)
	w := httptest.NewRecorder()
	s.Guard(s.Proxy(target)).ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestProxy_SuccessPassesThrough(t *testing.T) {
	w := throughProxy(t, upstream(t, http.StatusOK, "text/plain", "hello"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestProxy_UpstreamErrorsAreEnveloped(t *testing.T) {
	cases := []struct {
		name     string
		upstream int
		status   int
		code     string
	}{
		{"not found", http.StatusNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"bad request", http.StatusBadRequest, http.StatusBadRequest, "INVALID_INPUT"},
		{"forbidden", http.StatusForbidden, http.StatusUnprocessableEntity, "INVALID_OPERATION"},
		{"internal", http.StatusInternalServerError, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"bad gateway", http.StatusBadGateway, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := throughProxy(t, upstream(t, tc.upstream, "text/html", "<h1>stack trace at db.go:42</h1>"))

			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "stack trace")
			body := decodeError(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, w.Header().Get("X-Request-ID"), body["requestId"])
		})
	}
}

func TestProxy_UpstreamEnvelopeIsKept(t *testing.T) {
	const env = `{"success":false,"error":"ALREADY_EXISTS","message":"book 1 already exists","timestamp":"2024-03-19T12:00:00.000Z","requestId":"up-1"}`
	w := throughProxy(t, upstream(t, http.StatusConflict, "application/json", env))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, env, w.Body.String())
}

func TestProxy_UnknownEnvelopeCodeIsRewritten(t *testing.T) {
	w := throughProxy(t, upstream(t, http.StatusConflict, "application/json", `{"success":false,"error":"TEAPOT"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_EXISTS", decodeError(t, w)["error"])
}

func TestProxy_UpstreamDownIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	w := throughProxy(t, target)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, w)["error"])
}
