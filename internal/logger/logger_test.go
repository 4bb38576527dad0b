package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLoggerIsIdempotent(t *testing.T) {
	ctx, first := ContextWithLogger(context.Background())
	id := RequestIDFromContext(ctx)
	require.NotEmpty(t, id)

	ctx2, second := ContextWithLogger(ctx)
	assert.Same(t, first, second)
	assert.Equal(t, id, RequestIDFromContext(ctx2))
}

func TestContextWithIdentity(t *testing.T) {
	ctx, _ := ContextWithRequestID(context.Background(), "req-1")
	ctx, rlog := ContextWithIdentity(ctx, "ada@example.com")

	assert.Equal(t, "ada@example.com", rlog.Data[identityKey])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Same(t, rlog, FromContext(ctx))
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestMiddlewareEchoesRequestID(t *testing.T) {
	var seen string
	router := mux.NewRouter()
	router.Use(Middleware())
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}
