package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/converge-ai/mcp-gateway/pkg/registry"
	"github.com/converge-ai/mcp-gateway/pkg/router"
	"github.com/converge-ai/mcp-gateway/pkg/telemetry"
)

// ToolCallRequest asks the gateway to invoke a tool. When Server is empty
// the gateway resolves it by scanning registered tool names.
type ToolCallRequest struct {
	Server    string         `json:"server,omitempty"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
}

// ResourceReadRequest asks the gateway to read a resource from a server.
type ResourceReadRequest struct {
	Server    string `json:"server"`
	URI       string `json:"uri"`
	SessionID string `json:"session_id,omitempty"`
}

// Response is the gateway's answer to any call or read. Downstream failures
// are data, not transport errors: the HTTP status is 200 either way and
// Success tells them apart.
type Response struct {
	ID              string  `json:"id"`
	Success         bool    `json:"success"`
	Result          any     `json:"result,omitempty"`
	Error           string  `json:"error,omitempty"`
	Server          string  `json:"server,omitempty"`
	ExecutionTimeMS float64 `json:"execution_time_ms,omitempty"`
}

// CallTool resolves the target server, dispatches through the router, and
// folds any failure into the response. Used by the REST handler, batches,
// and the WebSocket channel alike.
func (g *Gateway) CallTool(ctx context.Context, req ToolCallRequest) Response {
	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	start := time.Now()

	serverName := req.Server
	if serverName == "" {
		name, ok := g.registry.FindToolServer(req.Tool)
		if !ok {
			err := fmt.Errorf("tool %q: %w", req.Tool, router.ErrToolNotFound)
			return Response{
				ID:      traceID,
				Success: false,
				Error:   err.Error(),
			}
		}
		serverName = name
	}

	if g.Verbose {
		logf("- Calling %s on %s (trace %s)", req.Tool, serverName, traceID)
	}

	ctx, span := telemetry.StartToolCallSpan(ctx, serverName, req.Tool)
	defer span.End()

	result, err := g.router.CallTool(ctx, serverName, req.Tool, req.Arguments, req.SessionID, traceID)
	elapsed := millisSince(start)
	if err != nil {
		telemetry.RecordToolError(ctx, serverName, req.Tool)
		span.SetStatus(codes.Error, "tool call failed")
		return Response{
			ID:              traceID,
			Success:         false,
			Error:           err.Error(),
			ExecutionTimeMS: elapsed,
		}
	}

	telemetry.RecordToolCall(ctx, serverName, req.Tool, elapsed)
	span.SetStatus(codes.Ok, "")
	return Response{
		ID:              traceID,
		Success:         true,
		Result:          result,
		Server:          serverName,
		ExecutionTimeMS: elapsed,
	}
}

// ReadResource dispatches a resource read, folding failures into the
// response the same way CallTool does.
func (g *Gateway) ReadResource(ctx context.Context, req ResourceReadRequest) Response {
	id := uuid.NewString()

	if g.Verbose {
		logf("- Reading %s from %s", req.URI, req.Server)
	}

	ctx, span := telemetry.StartResourceSpan(ctx, req.Server, req.URI)
	defer span.End()

	result, err := g.router.ReadResource(ctx, req.Server, req.URI, req.SessionID)
	if err != nil {
		span.SetStatus(codes.Error, "resource read failed")
		return Response{ID: id, Success: false, Error: err.Error()}
	}

	telemetry.RecordResourceRead(ctx, req.Server, req.URI)
	span.SetStatus(codes.Ok, "")
	return Response{ID: id, Success: true, Result: result, Server: req.Server}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !g.health.IsReady() {
		status = "starting"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             status,
		"service":            telemetry.ServiceName,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":     g.health.Uptime().Seconds(),
		"registered_servers": g.registry.Len(),
	})
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg registry.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("invalid request body: %s", err),
		})
		return
	}

	if _, err := g.registry.Register(r.Context(), reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Server %s registered", reg.Name),
	})
}

func (g *Gateway) handleUnregister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !g.registry.Unregister(r.Context(), name) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Server %s not found", name),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Server %s unregistered", name),
	})
}

func (g *Gateway) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers := g.registry.List()
	if servers == nil {
		servers = []registry.ServerInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (g *Gateway) handleGetServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	info, ok := g.registry.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Server %s not found", name),
		})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleServerTools asks the server itself, not the registry, so the answer
// reflects tools added or removed since registration.
func (g *Gateway) handleServerTools(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	tools, err := g.router.ListServerTools(r.Context(), name)
	if errors.Is(err, router.ErrServerNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Server %s not found", name),
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if tools == nil {
		tools = []registry.Tool{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"server": name, "tools": tools})
}

func (g *Gateway) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := g.registry.ListAllTools()
	if tools == nil {
		tools = []registry.ToolEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (g *Gateway) handleSearchTools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	category := r.URL.Query().Get("category")

	tools := g.registry.SearchTools(query, category)
	if tools == nil {
		tools = []registry.ToolEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (g *Gateway) handleFindToolServer(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")
	server, ok := g.registry.FindToolServer(tool)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Tool %s not found", tool),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tool": tool, "server": server})
}

func (g *Gateway) handleCall(w http.ResponseWriter, r *http.Request) {
	var req ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("invalid request body: %s", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, g.CallTool(r.Context(), req))
}

func (g *Gateway) handleResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("invalid request body: %s", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, g.ReadResource(r.Context(), req))
}

func (g *Gateway) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources := g.registry.ListAllResources()
	if resources == nil {
		resources = []registry.ResourceEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

func (g *Gateway) handleAllHealth(w http.ResponseWriter, r *http.Request) {
	results := g.router.CheckAllHealth(r.Context())
	for _, result := range results {
		telemetry.RecordHealthCheck(r.Context(), result.Name, result.Status)
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": results})
}

func (g *Gateway) handleServerHealth(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	result := g.router.CheckServerHealth(r.Context(), name)
	telemetry.RecordHealthCheck(r.Context(), result.Name, result.Status)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf("writing response: %s", err)
	}
}

func millisSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
