package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Origin checks are left to the CORS layer; the WebSocket endpoint accepts
// the same callers the REST API does.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Server  string          `json:"server,omitempty"`
}

type wsReply struct {
	Type    string    `json:"type"`
	Payload *Response `json:"payload,omitempty"`
	Server  string    `json:"server,omitempty"`
}

// handleWebSocket serves the streaming channel. Frames are
// {type: tool_call|subscribe|ping} and get {type: tool_result|subscribed|pong}
// back. Subscribe is acknowledged but delivers no events yet; the ack
// contract is all clients depend on today.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logf("websocket upgrade: %s", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log("WebSocket connection established:", sessionID)

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logf("websocket %s: %s", sessionID, err)
			} else {
				log("WebSocket disconnected:", sessionID)
			}
			return
		}

		switch frame.Type {
		case "tool_call":
			var req ToolCallRequest
			if err := json.Unmarshal(frame.Payload, &req); err != nil {
				result := Response{ID: uuid.NewString(), Success: false, Error: "invalid tool_call payload: " + err.Error()}
				if err := conn.WriteJSON(wsReply{Type: "tool_result", Payload: &result}); err != nil {
					return
				}
				continue
			}
			if req.SessionID == "" {
				req.SessionID = sessionID
			}
			result := g.CallTool(r.Context(), req)
			if err := conn.WriteJSON(wsReply{Type: "tool_result", Payload: &result}); err != nil {
				return
			}

		case "subscribe":
			if err := conn.WriteJSON(wsReply{Type: "subscribed", Server: frame.Server}); err != nil {
				return
			}

		case "ping":
			if err := conn.WriteJSON(wsReply{Type: "pong"}); err != nil {
				return
			}
		}
	}
}
