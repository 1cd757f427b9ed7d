package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/pkg/composables"
	"github.com/iota-uz/orgmatrix/pkg/constants"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWithLogger_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := WithLogger(quietLogger(), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := composables.UseRequestID(r.Context())
		require.True(t, ok)
		_, ok = composables.TryUseLogger(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "req-42", seen)
	require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	t.Parallel()

	h := WithLogger(quietLogger(), DefaultLoggerOptions())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
}

func TestProvide(t *testing.T) {
	t.Parallel()

	h := Provide(constants.AppKey, "app")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "app", r.Context().Value(constants.AppKey))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestParams_UsesRealIPHeader(t *testing.T) {
	t.Parallel()

	h := RequestParams("X-Real-IP")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, ok := composables.UseIP(r.Context())
		require.True(t, ok)
		require.Equal(t, "10.0.0.7", ip)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	t.Parallel()

	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 1, Store: NewMemoryStore()})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}
