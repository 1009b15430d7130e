package lookup_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/lookup"
)

func TestHTTPProvider_Init(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 1, 0)
	require.NoError(t, p.Init(context.Background()))
}

func TestHTTPProvider_InitUnhealthy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 1, 0)
	require.Error(t, p.Init(context.Background()))
}

func TestHTTPProvider_ProcessDNI_Found(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lookup", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "12345678", req["dni"])

		json.NewEncoder(w).Encode(map[string]any{
			"found":   true,
			"payload": map[string]string{"name": "JUAN PEREZ"},
		})
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 3, time.Millisecond)

	result, err := p.ProcessDNI(context.Background(), "12345678")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.JSONEq(t, `{"name":"JUAN PEREZ"}`, string(result.Payload))
}

func TestHTTPProvider_ProcessDNI_NotFoundGetsReason(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"found": false})
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("institute", srv.URL, 1, 0)

	result, err := p.ProcessDNI(context.Background(), "12345678")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.NotEmpty(t, result.Reason)
}

func TestHTTPProvider_ProcessDNI_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"found": true, "payload": map[string]string{}})
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 3, time.Millisecond)

	result, err := p.ProcessDNI(context.Background(), "12345678")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProvider_ProcessDNI_ExhaustedBudgetIsNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 2, time.Millisecond)

	result, err := p.ProcessDNI(context.Background(), "12345678")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Contains(t, result.Reason, "after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPProvider_ProcessDNI_ClientErrorIsUnrecoverable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 3, time.Millisecond)

	_, err := p.ProcessDNI(context.Background(), "12345678")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestHTTPProvider_ProcessDNI_CanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := lookup.NewHTTPProvider("university", srv.URL, 5, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessDNI(ctx, "12345678")
	require.Error(t, err)
}
