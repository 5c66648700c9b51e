// Package mcp serves the companion's lab operations as MCP tools over stdio,
// delegating every call to the HTTP server.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/client"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

const protocolVersion = "2024-11-05"

const maxLineBytes = 1024 * 1024

// Server answers JSON-RPC requests read one per line.
type Server struct {
	api    *client.Client
	logger *slog.Logger

	// insights are fetched in the background; tool calls poll until loaded
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewServer(api *client.Client, logger *slog.Logger) *Server {
	return &Server{
		api:          api,
		logger:       logger,
		pollInterval: 500 * time.Millisecond,
		pollTimeout:  2 * time.Minute,
	}
}

// Run processes requests from in until it is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("unparseable request", "error", err)
			if err := enc.Encode(errorResponse(nil, codeParseError, "parse error: "+err.Error())); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			continue
		}

		resp := s.handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req *Request) *Response {
	var result any
	switch req.Method {
	case "initialize":
		result = initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities{Tools: &struct{}{}},
			ServerInfo:      serverInfo{Name: "gcp-lab-companion", Version: "1.0.0"},
		}
	case "tools/list":
		result = toolsList{Tools: Tools()}
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error())
		}
		text, isError := s.call(ctx, params.Name, params.Arguments)
		result = callResult{Content: []textBlock{{Type: "text", Text: text}}, IsError: isError}
	case "ping":
		result = struct{}{}
	default:
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}

	if req.IsNotification() {
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	if id == nil {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}

// call runs one tool and renders its result as text. The bool reports a tool
// level failure, which MCP carries in the result rather than as an RPC error.
func (s *Server) call(ctx context.Context, name string, args map[string]any) (string, bool) {
	var (
		v   any
		err error
	)

	switch name {
	case "labs_list":
		v, err = s.api.ListLabs(ctx, client.ListParams{
			Search:       getString(args, "search"),
			Statuses:     convertStrings[models.LabStatus](getStrings(args, "statuses")),
			Difficulties: convertStrings[models.Difficulty](getStrings(args, "difficulties")),
			Sort:         getString(args, "sort"),
		})
	case "labs_stats":
		v, err = s.api.Stats(ctx)
	case "labs_insights":
		v, err = s.insights(ctx, getBool(args, "refresh", false))
	case "lab_get", "lab_generate_steps", "copilot_run", "copilot_pause", "copilot_reset":
		id := getString(args, "labId")
		if id == "" {
			return "labId is required", true
		}
		v, err = s.labTool(ctx, name, id)
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}

	if err != nil {
		s.logger.Warn("tool call failed", "tool", name, "error", err)
		return err.Error(), true
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("marshal error: %s", err), true
	}
	return string(data), false
}

func (s *Server) labTool(ctx context.Context, name, id string) (*models.Lab, error) {
	switch name {
	case "lab_get":
		return s.api.GetLab(ctx, id)
	case "lab_generate_steps":
		return s.api.GenerateSteps(ctx, id)
	case "copilot_run":
		return s.api.Copilot(ctx, id, "run")
	case "copilot_pause":
		return s.api.Copilot(ctx, id, "pause")
	default:
		return s.api.Copilot(ctx, id, "reset")
	}
}

func (s *Server) insights(ctx context.Context, refresh bool) (*models.InsightsResponse, error) {
	var (
		resp *models.InsightsResponse
		err  error
	)
	if refresh {
		resp, err = s.api.RefreshInsights(ctx)
	} else {
		resp, err = s.api.Insights(ctx)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for resp.Status == models.InsightLoading || resp.Status == models.InsightNotFetched {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("insights still loading: %w", ctx.Err())
		case <-ticker.C:
		}
		if resp, err = s.api.Insights(ctx); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// --- argument helpers ---

func getString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func getBool(args map[string]any, key string, fallback bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return fallback
}

// getStrings accepts either a JSON array of strings or a comma list.
func getStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

func convertStrings[T ~string](in []string) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, s := range in {
		out[i] = T(s)
	}
	return out
}
