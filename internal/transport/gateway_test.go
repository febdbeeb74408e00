package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGatewaySendSuccess(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/send/7", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{BaseURL: srv.URL + "/v1/", Token: "secret", Timeout: time.Second, MaxRetry: 2}, discardLogger())
	require.NoError(t, err)

	ok, code := gw.Send(context.Background(), 7, "hello", 79998887766)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, sendRequest{ID: 7, Phone: 79998887766, Text: "hello"}, got)
}

func TestGatewayClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{BaseURL: srv.URL, MaxRetry: 3}, discardLogger())
	require.NoError(t, err)

	ok, code := gw.Send(context.Background(), 1, "hi", 79990000000)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGatewayServerErrorRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{BaseURL: srv.URL, MaxRetry: 3, RetryBackoff: time.Millisecond}, discardLogger())
	require.NoError(t, err)

	ok, code := gw.Send(context.Background(), 1, "hi", 79990000000)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, code)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestGatewayServerErrorExhaustsRetries(t *testing.T) {
	tests := []struct {
		name      string
		maxRetry  int
		wantCalls int32
	}{
		{"bounded retries", 2, 2},
		{"zero means a single request", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			gw, err := NewGateway(GatewayConfig{
				BaseURL:      srv.URL,
				MaxRetry:     tt.maxRetry,
				RetryBackoff: time.Millisecond,
			}, discardLogger())
			require.NoError(t, err)

			ok, code := gw.Send(context.Background(), 1, "hi", 79990000000)
			assert.False(t, ok)
			assert.Equal(t, http.StatusInternalServerError, code)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestNewGatewayRejectsOversizedBackoff(t *testing.T) {
	_, err := NewGateway(GatewayConfig{BaseURL: "http://localhost", MaxRetry: 1, RetryBackoff: time.Minute}, discardLogger())
	assert.Error(t, err)
}
