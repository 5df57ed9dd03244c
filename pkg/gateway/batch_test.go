package gateway

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowProvider answers every tool call after a fixed delay and keeps track
// of how many calls were in flight at once.
type slowProvider struct {
	delay time.Duration

	mu       sync.Mutex
	order    []string
	inFlight int
	peak     int
}

func (p *slowProvider) start(t *testing.T) *httptest.Server {
	t.Helper()

	server := fakeProvider(t, func(_, tool string) string {
		p.mu.Lock()
		p.order = append(p.order, tool)
		p.inFlight++
		if p.inFlight > p.peak {
			p.peak = p.inFlight
		}
		p.mu.Unlock()

		time.Sleep(p.delay)

		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()

		return fmt.Sprintf(`{"jsonrpc":"2.0","id":"1","result":{"content":"done %s"}}`, tool)
	})
	return server
}

func TestBatchCallIsolatesFailures(t *testing.T) {
	provider := echoProvider(t)

	g := newTestGateway(t)
	registerProvider(t, g, "alpha", provider.URL, "tool_a", "tool_c")

	results := g.BatchCall(t.Context(), []ToolCallRequest{
		{Server: "alpha", Tool: "tool_a"},
		{Tool: "tool_b"},
		{Server: "alpha", Tool: "tool_c"},
	}, true)

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not found")
	assert.True(t, results[2].Success)
}

func TestBatchCallSequentialPreservesOrder(t *testing.T) {
	provider := &slowProvider{delay: 10 * time.Millisecond}
	server := provider.start(t)

	g := newTestGateway(t)
	registerProvider(t, g, "alpha", server.URL, "tool_1", "tool_2", "tool_3")

	results := g.BatchCall(t.Context(), []ToolCallRequest{
		{Server: "alpha", Tool: "tool_1"},
		{Server: "alpha", Tool: "tool_2"},
		{Server: "alpha", Tool: "tool_3"},
	}, false)

	require.Len(t, results, 3)
	for _, result := range results {
		assert.True(t, result.Success)
	}

	assert.Equal(t, []string{"tool_1", "tool_2", "tool_3"}, provider.order)
	assert.Equal(t, 1, provider.peak, "sequential batches must not overlap calls")
}

func TestBatchCallParallelOverlaps(t *testing.T) {
	provider := &slowProvider{delay: 150 * time.Millisecond}
	server := provider.start(t)

	g := newTestGateway(t)
	registerProvider(t, g, "alpha", server.URL, "tool_1", "tool_2", "tool_3")

	results := g.BatchCall(t.Context(), []ToolCallRequest{
		{Server: "alpha", Tool: "tool_1"},
		{Server: "alpha", Tool: "tool_2"},
		{Server: "alpha", Tool: "tool_3"},
	}, true)

	require.Len(t, results, 3)
	assert.Greater(t, provider.peak, 1, "parallel batches should overlap calls")
}

func TestBatchCallEmpty(t *testing.T) {
	g := newTestGateway(t)

	assert.Empty(t, g.BatchCall(t.Context(), nil, true))
	assert.Empty(t, g.BatchCall(t.Context(), nil, false))
}

// Leaving parallel out of the request body means parallel, not false.
func TestHandleBatchDefaultsToParallel(t *testing.T) {
	provider := &slowProvider{delay: 150 * time.Millisecond}
	server := provider.start(t)

	g := newTestGateway(t)
	registerProvider(t, g, "alpha", server.URL, "tool_1", "tool_2", "tool_3")
	api := apiServer(t, g)

	var body struct {
		Results []Response `json:"results"`
	}
	status := postJSON(t, api.URL+"/api/mcp/batch", map[string]any{
		"requests": []ToolCallRequest{
			{Server: "alpha", Tool: "tool_1"},
			{Server: "alpha", Tool: "tool_2"},
			{Server: "alpha", Tool: "tool_3"},
		},
	}, &body)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Results, 3)
	assert.Greater(t, provider.peak, 1)
}

func TestHandleBatchExplicitSequential(t *testing.T) {
	provider := &slowProvider{delay: 10 * time.Millisecond}
	server := provider.start(t)

	g := newTestGateway(t)
	registerProvider(t, g, "alpha", server.URL, "tool_1", "tool_2")
	api := apiServer(t, g)

	var body struct {
		Results []Response `json:"results"`
	}
	status := postJSON(t, api.URL+"/api/mcp/batch", map[string]any{
		"requests": []ToolCallRequest{
			{Server: "alpha", Tool: "tool_1"},
			{Server: "alpha", Tool: "tool_2"},
		},
		"parallel": false,
	}, &body)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Results, 2)
	assert.Equal(t, 1, provider.peak)
}
