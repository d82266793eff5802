package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/observability"
	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/thought"
	"github.com/kokistudios/thinker/internal/ui"
)

const instructions = "Structured thinking sessions. Use thought_append for free-form sequential thinking " +
	"with revisions and branches. Use the stepwise, why_analysis, dialectical and scamper tools for " +
	"guided processes; each result lists the allowed_actions for the session's current state."

// Server wraps the MCP server with thinker's engines.
type Server struct {
	thoughts  *thought.Engine
	processes *process.Engine
	metrics   *observability.Metrics
	server    *mcp.Server
	tools     []ToolInfo
}

// ToolInfo describes a registered tool for listings.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"read_only"`
}

// NewServer creates a new thinker MCP server. metrics may be nil.
func NewServer(thoughts *thought.Engine, processes *process.Engine, metrics *observability.Metrics, version string) *Server {
	s := &Server{thoughts: thoughts, processes: processes, metrics: metrics}

	impl := &mcp.Implementation{
		Name:    "thinker",
		Version: version,
	}

	s.server = mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions})
	s.registerThoughtTools()
	s.registerStepwiseTools()
	s.registerWhyTools()
	s.registerDialecticalTools()
	s.registerScamperTools()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over t until the client disconnects.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.tools...)
}

func boolPtr(b bool) *bool { return &b }

func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{Title: title, ReadOnlyHint: true, OpenWorldHint: boolPtr(false)}
}

func mutating(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{Title: title, DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)}
}

// addTool registers h with logging, metrics and error translation. Domain
// errors become IsError results; they never fail the JSON-RPC call.
func addTool[In any](s *Server, t *mcp.Tool, h func(ctx context.Context, args In) (any, error)) {
	s.tools = append(s.tools, ToolInfo{
		Name:        t.Name,
		Description: t.Description,
		ReadOnly:    t.Annotations != nil && t.Annotations.ReadOnlyHint,
	})
	name := t.Name
	mcp.AddTool(s.server, t, func(ctx context.Context, req *mcp.CallToolRequest, args In) (res *mcp.CallToolResult, out any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				ui.Logger.Error("tool panicked", "tool", name, "panic", r)
				res, out, err = errorResult(fault.New(fault.Internal, "%s failed unexpectedly", name)), nil, nil
			}
		}()

		out, herr := h(ctx, args)
		outcome := "ok"
		if herr != nil {
			outcome = string(fault.KindOf(herr))
		}
		if s.metrics != nil {
			s.metrics.ObserveTool(name, outcome, time.Since(start))
		}
		if herr != nil {
			ui.Logger.Debug("tool call rejected", "tool", name, "kind", outcome, "err", herr)
			return errorResult(herr), nil, nil
		}
		ui.Logger.Debug("tool call", "tool", name, "duration", time.Since(start))
		return nil, out, nil
	})
}

// ErrorBody is the structured content of an IsError result.
type ErrorBody struct {
	Error *fault.Error `json:"error"`
}

func errorResult(err error) *mcp.CallToolResult {
	fe := fault.From(err)
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: fe.Error()}},
		StructuredContent: ErrorBody{Error: fe},
	}
}

func (s *Server) sessionCreated(kind session.Kind) {
	if s.metrics != nil {
		s.metrics.SessionsCreated.WithLabelValues(string(kind)).Inc()
	}
}

func (s *Server) transitioned(kind session.Kind, action string) {
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(kind), action).Inc()
	}
}

func requireSession(id string) error {
	if id == "" {
		return fault.Validationf("session_id is required")
	}
	return nil
}
