package oracle

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// mockClient is a scriptable provider for corrector tests.
type mockClient struct {
	response CorrectionResponse
	err      error
	delay    time.Duration
	calls    int
}

func (m *mockClient) CorrectName(ctx context.Context, _ string) (CorrectionResponse, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return CorrectionResponse{}, ctx.Err()
		}
	}
	if m.err != nil {
		return CorrectionResponse{}, m.err
	}
	return m.response, nil
}

func newTestCorrector(t *testing.T, client Client, timeout time.Duration) *Corrector {
	t.Helper()
	c, err := NewCorrector(Config{Provider: "lexicon", Timeout: timeout, MaxRetries: 1}, slog.Default())
	require.NoError(t, err)
	c.client = client
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCorrector_AcceptsResolvedName(t *testing.T) {
	client := &mockClient{response: CorrectionResponse{CorrectedName: "Apfel", Resolved: true}}
	c := newTestCorrector(t, client, time.Second)

	result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "Ap...el"})
	require.NoError(t, err)
	assert.Equal(t, "Apfel", result.CorrectedName)
	assert.True(t, result.Accepted)
}

func TestCorrector_UnresolvedBecomesSentinel(t *testing.T) {
	client := &mockClient{response: CorrectionResponse{Resolved: false}}
	c := newTestCorrector(t, client, time.Second)

	result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "x#@!"})
	require.NoError(t, err)
	assert.Equal(t, model.Unrecognized, result.CorrectedName)
}

func TestCorrector_TimeoutFallsBackToRawName(t *testing.T) {
	client := &mockClient{
		response: CorrectionResponse{CorrectedName: "never seen", Resolved: true},
		delay:    500 * time.Millisecond,
	}
	c := newTestCorrector(t, client, 50*time.Millisecond)

	start := time.Now()
	result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "M..lch"})
	elapsed := time.Since(start)

	require.NoError(t, err, "oracle trouble must never surface as a hard failure")
	assert.Equal(t, "M..lch", result.CorrectedName)
	assert.False(t, result.Accepted)
	assert.Less(t, elapsed, 400*time.Millisecond, "caller latency must stay bounded by the timeout")
}

func TestCorrector_ProviderErrorFallsBackToRawName(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	c := newTestCorrector(t, client, time.Second)

	result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "BROT"})
	require.NoError(t, err)
	assert.Equal(t, "BROT", result.CorrectedName)
	assert.False(t, result.Accepted)
}

func TestCorrector_CachesResults(t *testing.T) {
	client := &mockClient{response: CorrectionResponse{CorrectedName: "Milch", Resolved: true}}
	c := newTestCorrector(t, client, time.Second)

	for range 3 {
		result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "M..lch"})
		require.NoError(t, err)
		assert.Equal(t, "Milch", result.CorrectedName)
	}

	assert.Equal(t, 1, client.calls, "repeated names should hit the cache")
}

func TestCorrectionCache(t *testing.T) {
	cache := newCorrectionCache(50 * time.Millisecond)
	defer cache.Close()

	assert.Zero(t, cache.size())

	cache.set("m..lch", service.CorrectionResult{CorrectedName: "Milch"})
	cache.set("br0t", service.CorrectionResult{CorrectedName: "Brot"})
	assert.Equal(t, 2, cache.size())

	got, ok := cache.get("m..lch")
	require.True(t, ok)
	assert.Equal(t, "Milch", got.CorrectedName)

	time.Sleep(80 * time.Millisecond)
	_, ok = cache.get("m..lch")
	assert.False(t, ok, "expired entries are not served")
}

func TestCorrector_EmptyNameShortCircuits(t *testing.T) {
	client := &mockClient{}
	c := newTestCorrector(t, client, time.Second)

	result, err := c.Correct(context.Background(), service.CorrectionRequest{RawName: "   "})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Zero(t, client.calls)
}
