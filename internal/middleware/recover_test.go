package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/pkg/logger"
)

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error", logger.WithFormat(logger.FormatJSON))
	before := testutil.ToFloat64(metrics.PanicsTotal)

	handler := New(RequestID(), Recover(log)).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/1.0/regions", nil)
	req.Header.Set(HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body.Error.ID)
	assert.Equal(t, "Internal Server Error", body.Error.Message)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PanicsTotal))
	assert.Contains(t, buf.String(), "panic serving request")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecover_GeneratesIDWithoutRequestID(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(handler)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, uuidRegex.MatchString(body.Error.ID))
}

func TestRecover_AfterHeadersWritten(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		panic("late")
	}))

	rec := serve(handler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestRecover_ReraisesAbort(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { serve(handler) })
}

func TestRecover_PassesThrough(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	assert.Equal(t, http.StatusAccepted, serve(handler).Code)
}
