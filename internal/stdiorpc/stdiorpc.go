// Package stdiorpc implements the newline-framed JSON-RPC-shaped transport
// (§6), grounded in the MCP-host-style request/response shape from the
// retrieval pack's internal/mcp server code. Deliberately thin: PROC's
// dispatcher sees only two request kinds, "tools/list" and "tools/call";
// everything else is a protocol-level error.
package stdiorpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gomind-research/procmind/internal/tooling"
)

// Request is one line of the newline-framed wire protocol.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the corresponding reply, always carrying the request's ID.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is a protocol-level fault: malformed input, unknown method, or
// (per spec.md §4.7) an unknown tool name on a tools/call request.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// toolDescription mirrors the declarative tool table returned by tools/list.
type toolDescription struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Capability  string      `json:"capability,omitempty"`
	Schema      interface{} `json:"inputSchema,omitempty"`
}

// Server reads newline-framed requests from r and writes newline-framed
// responses to w, dispatching tool calls to registry. One request is
// processed at a time; the loop returns nil cleanly on EOF.
type Server struct {
	registry *tooling.Registry
	schemas  map[string]interface{}
	in       *bufio.Scanner
	out      io.Writer
	writeMu  sync.Mutex
}

// NewServer builds a transport server. schemas maps tool name to the raw
// JSON-schema document used for the tools/list response only (validation
// itself happens inside the registry).
func NewServer(registry *tooling.Registry, schemas map[string]interface{}, r io.Reader, w io.Writer) *Server {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Server{registry: registry, schemas: schemas, in: scanner, out: w}
}

// Run is the main loop. It returns when stdin is closed or a write fails.
// ctx is checked once per line read, so after cancellation Run returns when
// the next line arrives; it does not interrupt a pending read.
func (s *Server) Run(ctx context.Context) error {
	for s.in.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := s.in.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if werr := s.write(Response{Error: &RPCError{Code: codeParseError, Message: err.Error()}}); werr != nil {
				return werr
			}
			continue
		}

		resp := s.dispatch(ctx, req)
		if werr := s.write(resp); werr != nil {
			return werr
		}
	}
	return s.in.Err()
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return Response{ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}}
	}
}

func (s *Server) handleToolsList(req Request) Response {
	descriptors := s.registry.List()
	tools := make([]toolDescription, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, toolDescription{
			Name:        d.Name,
			Description: d.Description,
			Capability:  d.Capability,
			Schema:      s.schemas[d.Name],
		})
	}
	payload, _ := json.Marshal(struct {
		Tools []toolDescription `json:"tools"`
	}{Tools: tools})
	return Response{ID: req.ID, Result: payload}
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return Response{ID: req.ID, Error: &RPCError{Code: codeInvalidParams, Message: err.Error()}}
	}

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		// Unknown tool name is the one path that surfaces as a protocol
		// fault rather than an is_error tool result, per spec.md §4.7.
		return Response{ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: err.Error()}}
	}

	payload, _ := json.Marshal(struct {
		Content []contentBlock `json:"content"`
		IsError bool           `json:"is_error,omitempty"`
	}{
		Content: []contentBlock{{Type: "text", Text: result.Content}},
		IsError: result.IsError,
	})
	return Response{ID: req.ID, Result: payload}
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *Server) write(resp Response) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	_, err = s.out.Write(encoded)
	return err
}
