package metrics_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/imperfect/internal/metrics"
)

func TestObserveRPC(t *testing.T) {
	before := testutil.CollectAndCount(metrics.RPCLatency)
	metrics.ObserveRPC("/imperfect.v1.MatchService/Like", "OK", time.Now())
	metrics.ObserveRPC("/imperfect.v1.MatchService/Like", "OK", time.Now())
	assert.Equal(t, before+1, testutil.CollectAndCount(metrics.RPCLatency))
}

func TestServe(t *testing.T) {
	// grab a free port
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	metrics.MatchesCreated.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- metrics.Serve(ctx, addr) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, "imperfect_matches_created_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
