package automator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeSucceedsOnceEndpointComesUp(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"Browser":"Code/1.92.0"}`))
	}))
	defer ts.Close()

	err := probeURL(context.Background(), ts.URL, "localhost", 9222, 30, time.Millisecond)

	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestProbeExhaustsAttempts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	err := probeURL(context.Background(), ts.URL, "localhost", 9222, 5, time.Millisecond)

	var unreachable *EndpointUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, 5, unreachable.Attempts)
	assert.Equal(t, 9222, unreachable.Port)
}

func TestProbeSwallowsNetworkErrors(t *testing.T) {
	// Nothing is listening here; connection refusals must count as "not
	// ready yet" rather than aborting the probe.
	err := probeURL(context.Background(), "http://127.0.0.1:1/json/version", "127.0.0.1", 1, 3, time.Millisecond)

	var unreachable *EndpointUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, 3, unreachable.Attempts)
}

func TestProbeHonorsContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := probeURL(ctx, ts.URL, "localhost", 9222, 30, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}
