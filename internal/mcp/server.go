// Package mcp implements a Model Context Protocol server over stdio.
// Messages are JSON-RPC 2.0, one per line, as the MCP stdio transport
// defines. Tool failures are returned as error-text tool results; nothing
// propagates past the protocol boundary.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/version"
)

const protocolVersion = "2025-06-18"

// Message is a JSON-RPC message in the MCP protocol.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes used at this boundary.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// Server dispatches MCP requests to the watsonx backend.
type Server struct {
	backend   Backend
	sessionID string
}

// NewServer creates an MCP server for the given backend.
func NewServer(backend Backend) *Server {
	return &Server{
		backend:   backend,
		sessionID: uuid.New().String(),
	}
}

// Run reads newline-delimited JSON-RPC messages from r and writes
// responses to w until EOF or context cancellation.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	log.Info("MCP server listening on stdio", "session", s.sessionID)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			resp := &Message{
				JSONRPC: "2.0",
				Error:   &Error{Code: codeParseError, Message: "parse error: " + err.Error()},
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
			continue
		}

		resp := s.handleMessage(ctx, &msg)
		if resp == nil {
			continue // notification, no reply
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	log.Info("MCP client disconnected", "session", s.sessionID)
	return nil
}

func (s *Server) handleMessage(ctx context.Context, msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "notifications/initialized", "initialized":
		return nil
	case "ping":
		return result(msg.ID, map[string]any{})
	case "shutdown":
		return result(msg.ID, map[string]any{})
	case "tools/list":
		return s.handleToolsList(msg)
	case "tools/call":
		return s.handleToolCall(ctx, msg)
	default:
		return rpcError(msg.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleInitialize(msg *Message) *Message {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return rpcError(msg.ID, codeInvalidParams, "invalid initialize params: "+err.Error())
		}
	}
	log.Debug("client initialized", "client", params.ClientInfo.Name, "protocol", params.ProtocolVersion)

	return result(msg.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]any{
			"name":    "watsonx-mcp-server",
			"version": version.Info(),
		},
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
		},
	})
}

func (s *Server) handleToolsList(msg *Message) *Message {
	return result(msg.ID, map[string]any{"tools": toolList()})
}

func (s *Server) handleToolCall(ctx context.Context, msg *Message) *Message {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return rpcError(msg.ID, codeInvalidParams, "invalid tool call params: "+err.Error())
	}

	text, err := callTool(ctx, s.backend, params.Name, params.Arguments)
	if err != nil {
		// Tool failures become error-text results, not protocol errors.
		log.Warn("tool call failed", "tool", params.Name, "error", err)
		return result(msg.ID, toolResult(err.Error(), true))
	}
	return result(msg.ID, toolResult(text, false))
}

func toolResult(text string, isErr bool) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"isError": isErr,
	}
}

func result(id any, res any) *Message {
	return &Message{JSONRPC: "2.0", ID: id, Result: res}
}

func rpcError(id any, code int, message string) *Message {
	return &Message{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
}
