package router

import "github.com/converge-ai/mcp-gateway/pkg/registry"

// Wire format between the gateway and servers: a JSON-RPC 2.0 request
// POSTed to {endpoint}/mcp. Servers reply with {result: {...}} or
// {error: {message}}; tool output is always nested under result.content.

const jsonrpcVersion = "2.0"

const (
	methodToolsCall     = "tools/call"
	methodToolsList     = "tools/list"
	methodResourcesRead = "resources/read"
)

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	URI       string         `json:"uri,omitempty"`
	Meta      *rpcMeta       `json:"_meta,omitempty"`
}

type rpcMeta struct {
	SessionID string `json:"session_id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      any        `json:"id"`
	Result  *rpcResult `json:"result"`
	Error   *rpcError  `json:"error"`
}

type rpcResult struct {
	Content  any             `json:"content"`
	Contents any             `json:"contents"`
	Tools    []registry.Tool `json:"tools"`
}

type rpcError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}
