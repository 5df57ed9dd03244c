// Package router dispatches tool calls and resource reads to registered
// servers and keeps their health status up to date as calls succeed or fail.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/converge-ai/mcp-gateway/pkg/registry"
)

const (
	defaultCallTimeout   = 30 * time.Second
	defaultHealthTimeout = 5 * time.Second

	// Upper bound on concurrent outbound calls during a health sweep.
	// Large registries otherwise open one connection per server at once.
	defaultHealthConcurrency = 16
)

type Options struct {
	CallTimeout       time.Duration
	HealthTimeout     time.Duration
	HealthConcurrency int
}

// Router resolves servers through the registry and talks to them over HTTP.
// It never retries: callers decide whether a failed call is worth repeating.
type Router struct {
	registry     *registry.Registry
	client       *http.Client
	healthClient *http.Client
	opts         Options
}

func New(reg *registry.Registry, opts Options) *Router {
	if opts.CallTimeout == 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.HealthTimeout == 0 {
		opts.HealthTimeout = defaultHealthTimeout
	}
	if opts.HealthConcurrency == 0 {
		opts.HealthConcurrency = defaultHealthConcurrency
	}

	return &Router{
		registry:     reg,
		client:       &http.Client{Timeout: opts.CallTimeout},
		healthClient: &http.Client{Timeout: opts.HealthTimeout},
		opts:         opts,
	}
}

// CallTool invokes a tool on a named server and returns the result.content
// field of the server's reply.
//
// A non-2xx reply marks the server degraded; a connection failure marks it
// unavailable. Either way the error goes back to the caller untouched.
func (r *Router) CallTool(ctx context.Context, serverName, toolName string, arguments map[string]any, sessionID, traceID string) (any, error) {
	server, ok := r.registry.Get(serverName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
	}
	if server.Status != registry.StatusAvailable {
		return nil, fmt.Errorf("%w: %s (status: %s)", ErrServerUnavailable, serverName, server.Status)
	}

	if traceID == "" {
		traceID = "1"
	}
	req := rpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      traceID,
		Method:  methodToolsCall,
		Params: rpcParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
	if sessionID != "" {
		req.Params.Meta = &rpcMeta{SessionID: sessionID}
	}

	result, err := r.post(ctx, server, req)
	if err != nil {
		logf("calling %s/%s: %s", serverName, toolName, err)
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.Content, nil
}

// ReadResource reads a resource from a named server and returns the
// result.contents field of the reply.
//
// Unlike CallTool, there is no availability guard: a read against a server
// marked degraded or unavailable is still dispatched. That asymmetry is
// long-standing behavior that downstream callers rely on, so it stays.
func (r *Router) ReadResource(ctx context.Context, serverName, uri, sessionID string) (any, error) {
	server, ok := r.registry.Get(serverName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
	}

	req := rpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      "1",
		Method:  methodResourcesRead,
		Params:  rpcParams{URI: uri},
	}
	if sessionID != "" {
		req.Params.Meta = &rpcMeta{SessionID: sessionID}
	}

	result, err := r.post(ctx, server, req)
	if err != nil {
		logf("reading resource %s from %s: %s", uri, serverName, err)
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.Contents, nil
}

// ListServerTools asks a server for its live tool list via tools/list.
func (r *Router) ListServerTools(ctx context.Context, serverName string) ([]registry.Tool, error) {
	server, ok := r.registry.Get(serverName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
	}

	req := rpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      "1",
		Method:  methodToolsList,
	}

	result, err := r.post(ctx, server, req)
	if err != nil {
		logf("listing tools from %s: %s", serverName, err)
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.Tools, nil
}

// post sends one envelope to the server's /mcp endpoint and decodes the
// reply, updating the server's health status on transport-level failures.
func (r *Router) post(ctx context.Context, server registry.ServerInfo, rpc rpcRequest) (*rpcResult, error) {
	if server.Transport != registry.TransportHTTP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, server.Transport)
	}

	body, err := json.Marshal(rpc)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, server.Endpoint+"/mcp", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		if isConnectionError(err) {
			r.registry.UpdateStatus(server.Name, registry.StatusUnavailable)
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		r.registry.UpdateStatus(server.Name, registry.StatusDegraded)
		return nil, &StatusError{Server: server.Name, StatusCode: httpResp.StatusCode}
	}

	var resp rpcResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", server.Name, err)
	}
	if resp.Error != nil {
		return nil, &RemoteToolError{Server: server.Name, Message: resp.Error.Message}
	}

	return resp.Result, nil
}

// HealthResult is the outcome of one server health probe. Status is one of
// the registry statuses, or "not_found" for an unknown name.
type HealthResult struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	ResponseTimeMS float64 `json:"response_time_ms,omitempty"`
	StatusCode     int     `json:"status_code,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// CheckServerHealth probes a server's /health endpoint and writes the
// outcome back through the registry, whatever the previous status was.
// Probe failures are terminal here: they show up in the result, never as an
// error.
func (r *Router) CheckServerHealth(ctx context.Context, serverName string) HealthResult {
	server, ok := r.registry.Get(serverName)
	if !ok {
		return HealthResult{Name: serverName, Status: "not_found"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, server.Endpoint+"/health", nil)
	if err != nil {
		return HealthResult{Name: serverName, Status: string(registry.StatusUnavailable), Error: err.Error()}
	}

	start := time.Now()
	httpResp, err := r.healthClient.Do(httpReq)
	if err != nil {
		switch {
		case isTimeout(err):
			r.registry.UpdateStatus(serverName, registry.StatusDegraded)
			return HealthResult{Name: serverName, Status: string(registry.StatusDegraded), Error: "Timeout"}
		case isConnectionError(err):
			r.registry.UpdateStatus(serverName, registry.StatusUnavailable)
			return HealthResult{Name: serverName, Status: string(registry.StatusUnavailable), Error: "Connection refused"}
		default:
			r.registry.UpdateStatus(serverName, registry.StatusUnavailable)
			return HealthResult{Name: serverName, Status: string(registry.StatusUnavailable), Error: err.Error()}
		}
	}
	defer httpResp.Body.Close()
	_, _ = io.Copy(io.Discard, httpResp.Body)

	if httpResp.StatusCode == http.StatusOK {
		r.registry.UpdateStatus(serverName, registry.StatusAvailable)
		return HealthResult{
			Name:           serverName,
			Status:         string(registry.StatusAvailable),
			ResponseTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
		}
	}

	r.registry.UpdateStatus(serverName, registry.StatusDegraded)
	return HealthResult{
		Name:       serverName,
		Status:     string(registry.StatusDegraded),
		StatusCode: httpResp.StatusCode,
	}
}

// CheckAllHealth probes every registered server concurrently and waits for
// all probes to finish. One unreachable server never hides the results of
// the others.
func (r *Router) CheckAllHealth(ctx context.Context) []HealthResult {
	names := r.registry.Names()
	results := make([]HealthResult, len(names))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.HealthConcurrency)
	for i, name := range names {
		group.Go(func() error {
			results[i] = r.CheckServerHealth(ctx, name)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

// isTimeout must be checked before isConnectionError: a timed-out dial
// surfaces as a net.OpError that also satisfies net.Error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
