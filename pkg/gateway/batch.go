package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// BatchRequest bundles several tool calls. Parallel defaults to true.
type BatchRequest struct {
	Requests []ToolCallRequest `json:"requests"`
	Parallel bool              `json:"parallel"`
}

// BatchCall executes every request and always returns one response per
// request, in request order. Failures are isolated: a bad request yields a
// failed response in its slot and the others proceed.
//
// Parallel batches fan out up to the configured concurrency limit.
// Sequential batches don't start request N+1 before request N has finished.
func (g *Gateway) BatchCall(ctx context.Context, requests []ToolCallRequest, parallel bool) []Response {
	results := make([]Response, len(requests))

	if parallel {
		var group errgroup.Group
		group.SetLimit(g.Concurrency)
		for i, req := range requests {
			group.Go(func() error {
				results[i] = g.CallTool(ctx, req)
				return nil
			})
		}
		_ = group.Wait()
		return results
	}

	for i, req := range requests {
		results[i] = g.CallTool(ctx, req)
	}
	return results
}

func (g *Gateway) handleBatch(w http.ResponseWriter, r *http.Request) {
	req := BatchRequest{Parallel: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("invalid request body: %s", err),
		})
		return
	}

	results := g.BatchCall(r.Context(), req.Requests, req.Parallel)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
