package normalize

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"governance-gateway/middleware/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestNormalizer(t *testing.T) (*Normalizer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	n := New(zap.New(core), WithClock(func() time.Time { return t0 }))
	return n, logs
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), w.Body.String())
	return got
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandle_SuccessEnvelope(t *testing.T) {
	n, logs := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(*http.Request) (Result, error) {
		return OK(map[string]int{"id": 1}), nil
	}))

	w := serve(h, http.MethodGet, "/api/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode(t, w)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, map[string]any{"id": float64(1)}, got["data"])
	assert.Equal(t, "2024-03-19T12:00:00.000Z", got["timestamp"])
	assert.NotContains(t, got, "error")
	assert.NotContains(t, got, "requestId")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, w.Header().Get(RequestIDHeader), entry.ContextMap()["request_id"])
}

func TestHandle_CreatedStatus(t *testing.T) {
	n, _ := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(*http.Request) (Result, error) { return Created("x"), nil }))
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/", "").Code)
}

func TestFail_StorageMissingBecomes404(t *testing.T) {
	n, logs := newTestNormalizer(t)
	router := chi.NewRouter()
	router.Use(n.Boundary)
	router.Method(http.MethodGet, "/api/books/{id}", n.Handle(func(r *http.Request) (Result, error) {
		return Result{}, failure.RecordMissing("get", "book", chi.URLParam(r, "id"))
	}))

	w := serve(router, http.MethodGet, "/api/books/999?verbose=1", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	got := decode(t, w)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "NOT_FOUND", got["error"])
	assert.Contains(t, got["message"], "999")
	assert.Equal(t, w.Header().Get(RequestIDHeader), got["requestId"])
	assert.NotContains(t, got, "data")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "NOT_FOUND", fields["error_code"])
	assert.Equal(t, map[string]string{"id": "999"}, fields["params"])
	assert.Contains(t, fields, "query")
	assert.Equal(t, "/api/books/999", fields["path"])
}

func TestFail_RejectionSetsRetryAfter(t *testing.T) {
	n, _ := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(*http.Request) (Result, error) {
		return Result{}, rejection(10 * time.Second)
	}))

	w := serve(h, http.MethodPost, "/api/books", `{"title":"x"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "50", w.Header().Get("Retry-After"))

	got := decode(t, w)
	assert.Equal(t, "RATE_LIMITED", got["error"])
	details := got["details"].(map[string]any)
	assert.Equal(t, float64(50), details["waitTimeSeconds"])
	assert.Equal(t, float64(30), details["limit"])
	assert.Equal(t, float64(0), details["remainingAttempts"])
}

func TestFail_UnknownErrorDoesNotLeak(t *testing.T) {
	n, logs := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(r *http.Request) (Result, error) {
		_, _ = r.Body.Read(make([]byte, 64))
		return Result{}, errors.New("pq: password authentication failed for user admin")
	}))

	w := serve(h, http.MethodPost, "/api/books", `{"title":"Dune"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "INTERNAL_SERVER_ERROR", decode(t, w)["error"])

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Contains(t, entry.ContextMap()["error"], "password")
	assert.Equal(t, `{"title":"Dune"}`, entry.ContextMap()["body"])
}

func TestBoundary_RecoversPanic(t *testing.T) {
	n, logs := newTestNormalizer(t)
	h := n.Boundary(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))

	w := serve(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "nil map")
	assert.Equal(t, "INTERNAL_SERVER_ERROR", decode(t, w)["error"])
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap(), "stack")
}

func TestBoundary_EmptyHandlerStillResponds(t *testing.T) {
	n, _ := newTestNormalizer(t)
	h := n.Boundary(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	w := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestBoundary_FreshIDPerRequest(t *testing.T) {
	n, _ := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(*http.Request) (Result, error) {
		return Result{}, failure.NewNotFound("book", 1)
	}))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "client-supplied")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		id := decode(t, w)["requestId"].(string)
		assert.NotEqual(t, "client-supplied", id)
		assert.False(t, seen[id], "request id reused")
		seen[id] = true
	}
}

func TestFail_OutsideBoundary(t *testing.T) {
	n, logs := newTestNormalizer(t)
	w := httptest.NewRecorder()
	n.Fail(w, httptest.NewRequest(http.MethodGet, "/", nil), &failure.Unavailable{Reason: "overload"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, decode(t, w)["requestId"])
	assert.Equal(t, 1, logs.Len())
}

func TestRespond_UnencodableDataFails(t *testing.T) {
	n, _ := newTestNormalizer(t)
	h := n.Boundary(n.Handle(func(*http.Request) (Result, error) {
		return OK(make(chan int)), nil
	}))

	w := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", decode(t, w)["error"])
}
