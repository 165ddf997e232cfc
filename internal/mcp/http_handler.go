package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewRPCHandler wraps the SDK server in a plain single-shot JSON-RPC
// endpoint. It exists for local tooling and curl-style debugging; the
// streamable MCP endpoint is the transport agents should use.
func NewRPCHandler(server *sdkmcp.Server, logger *slog.Logger) http.Handler {
	return &rpcHandler{server: server, logger: logger}
}

type rpcHandler struct {
	server *sdkmcp.Server
	logger *slog.Logger
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, -32700, "Parse error", nil)
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, -32700, "Parse error", nil)
		return
	}

	// Each request runs over a throwaway in-memory session, so this
	// endpoint never carries per-request credentials; it is only wired
	// up when auth is disabled.
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	session, err := h.server.Connect(r.Context(), serverTransport, nil)
	if err != nil {
		h.writeError(w, -32603, "Internal error: "+err.Error(), req.ID)
		return
	}
	defer session.Close()

	conn, err := clientTransport.Connect(r.Context())
	if err != nil {
		h.writeError(w, -32603, "Internal error: "+err.Error(), req.ID)
		return
	}
	defer conn.Close()

	id, err := jsonrpc.MakeID(req.ID)
	if err != nil {
		h.writeError(w, -32600, "Invalid request: "+err.Error(), req.ID)
		return
	}
	if err := conn.Write(r.Context(), &jsonrpc.Request{
		ID:     id,
		Method: req.Method,
		Params: req.Params,
	}); err != nil {
		h.writeError(w, -32603, "Internal error: "+err.Error(), req.ID)
		return
	}

	var msg *jsonrpc.Response
	for msg == nil {
		m, err := conn.Read(r.Context())
		if err != nil {
			h.writeError(w, -32603, "Internal error: "+err.Error(), req.ID)
			return
		}
		msg, _ = m.(*jsonrpc.Response)
	}

	resp := rpcResponse{JSONRPC: "2.0", Result: msg.Result, ID: msg.ID.Raw()}
	if msg.Error != nil {
		werr := &rpcError{Code: -32603, Message: msg.Error.Error()}
		var wireErr *jsonrpc.Error
		if errors.As(msg.Error, &wireErr) {
			werr = &rpcError{Code: int(wireErr.Code), Message: wireErr.Message, Data: wireErr.Data}
		}
		resp.Error = werr
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil && h.logger != nil {
		h.logger.Warn("rpc response write failed", "error", err)
	}
}

func (h *rpcHandler) writeError(w http.ResponseWriter, code int, message string, id any) {
	w.Header().Set("Content-Type", "application/json")
	// JSON-RPC errors still answer 200
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		Error:   &rpcError{Code: code, Message: message},
		ID:      id,
	})
}
