// Package mcp exposes the summarize and transcribe runs as MCP tools so
// assistants can brief local files.
package mcp

import (
	"context"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/report"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ToolSummarize  = "summarize"
	ToolTranscribe = "transcribe"

	serverName    = "polyglot-brief"
	serverVersion = "1.0.0"
	argPath       = "path"
)

type runFunc func(ctx context.Context, file *model.SourceFile) (model.PipelineResult, error)

type toolHandlers struct {
	service service.Service
}

func NewServer(svc service.Service) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	h := &toolHandlers{service: svc}

	s.AddTool(mcp.NewTool(ToolSummarize,
		mcp.WithDescription("Summarize a local text or audio file into the speaker's argument, the other party's argument and the context."),
		mcp.WithString(argPath, mcp.Required(), mcp.Description("Path of the file to summarize")),
	), h.summarize)
	s.AddTool(mcp.NewTool(ToolTranscribe,
		mcp.WithDescription("Transcribe a local audio file verbatim with speaker labels."),
		mcp.WithString(argPath, mcp.Required(), mcp.Description("Path of the audio file")),
	), h.transcribe)

	return s
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func ServeStdio(svc service.Service) error {
	return server.ServeStdio(NewServer(svc))
}

func (h *toolHandlers) summarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, request, h.service.Summarize)
}

func (h *toolHandlers) transcribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, request, h.service.Transcribe)
}

// run reports every failure as tool output so the calling model can see it.
func (h *toolHandlers) run(ctx context.Context, request mcp.CallToolRequest, fn runFunc) (*mcp.CallToolResult, error) {
	ctx = logging.WithFields(ctx, map[string]any{"tool": request.Params.Name})
	log := logging.NewLogger(ctx)

	path, err := request.RequireString(argPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file, err := encoder.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := fn(ctx, file)
	if err != nil {
		log.Errorf("error: %v", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.IsFailed() {
		return mcp.NewToolResultError(report.FailureMessage(result)), nil
	}

	log.Infof("file=%q model=%q result=%s", file.Name, result.Model, result.Kind)
	return mcp.NewToolResultText(report.Text(result)), nil
}
