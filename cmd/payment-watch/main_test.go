package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer is written by the watcher and countdown goroutines at once.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestRun_ExitsWhenPaid(t *testing.T) {
	// Arrange
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if requests.Add(1) < 2 {
			fmt.Fprint(w, `{"success":true,"data":{"reference":"REF123","status":"pending"}}`)
			return
		}
		fmt.Fprint(w, `{"estado":"pago"}`)
	}))
	defer server.Close()

	t.Setenv("WATCHER_BASE_URL", server.URL)
	t.Setenv("WATCHER_INTERVAL", "20ms")
	t.Setenv("WATCHER_LOCALE", "en")

	var stdout, stderr syncBuffer
	expires := time.Now().Add(time.Hour).Format(time.RFC3339)

	// Act
	code := run(t.Context(), []string{"-ref", "REF123", "-expires", expires}, &stdout, &stderr)

	// Assert
	assert.Equal(t, exitPaid, code)
	assert.Equal(t, int32(2), requests.Load())
	assert.Contains(t, stdout.String(), "Payment confirmed!")
	assert.Contains(t, stdout.String(), "REF123: paid (pago)")
}

func TestRun_CancelsOnExpiry(t *testing.T) {
	// Arrange
	var cancelled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			cancelled.Store(true)
			fmt.Fprint(w, `{"success":true,"data":{"status":"cancelled"}}`)
			return
		}
		fmt.Fprint(w, `{"status":"pending"}`)
	}))
	defer server.Close()

	t.Setenv("WATCHER_BASE_URL", server.URL)
	t.Setenv("WATCHER_INTERVAL", "20ms")
	t.Setenv("WATCHER_LOCALE", "en")

	var stdout, stderr syncBuffer
	expires := time.Now().Add(100 * time.Millisecond).Format(time.RFC3339Nano)

	// Act
	code := run(t.Context(), []string{"-ref", "REF9", "-expires", expires, "-on-expire", "cancel_payment"}, &stdout, &stderr)

	// Assert
	assert.Equal(t, exitUnpaid, code)
	assert.True(t, cancelled.Load())
	assert.Contains(t, stdout.String(), "Payment REF9 was cancelled")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(t.Context(), nil, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "-ref is required")
}

func TestRun_UnknownExpirePolicy(t *testing.T) {
	var stdout, stderr bytes.Buffer
	expires := time.Now().Add(time.Hour).Format(time.RFC3339)

	code := run(t.Context(), []string{"-ref", "REF1", "-expires", expires, "-on-expire", "cancel"}, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "unknown expire policy")
}
