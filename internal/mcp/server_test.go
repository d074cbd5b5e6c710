package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/pipeline"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/suite"
)

type fakeService struct {
	result model.PipelineResult
	err    error
	files  []string
}

func (f *fakeService) SaveCredential(string) error { return nil }

func (f *fakeService) ClearCredential() error { return nil }

func (f *fakeService) Summarize(_ context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	f.files = append(f.files, file.Name)
	return f.result, f.err
}

func (f *fakeService) Transcribe(_ context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	f.files = append(f.files, file.Name)
	return f.result, f.err
}

var _ service.Service = (*fakeService)(nil)

type ServerSuite struct {
	suite.Suite
	svc    *fakeService
	client *client.Client
	ctx    context.Context
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = &fakeService{}

	c, err := client.NewInProcessClient(NewServer(s.svc))
	s.Require().NoError(err)
	s.Require().NoError(c.Start(s.ctx))
	s.client = c
}

func (s *ServerSuite) TearDownTest() {
	s.Require().NoError(s.client.Close())
}

func (s *ServerSuite) initializeAndListTools() []mcp.Tool {
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: "brief-test", Version: "1.0.0"}

	serverInfo, err := s.client.Initialize(s.ctx, initRequest)
	s.Require().NoError(err)
	s.Require().NotNil(serverInfo.Capabilities.Tools)

	toolsResult, err := s.client.ListTools(s.ctx, mcp.ListToolsRequest{})
	s.Require().NoError(err)
	return toolsResult.Tools
}

func (s *ServerSuite) call(name string, args map[string]any) (*mcp.CallToolResult, string) {
	s.initializeAndListTools()

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := s.client.CallTool(s.ctx, request)
	s.Require().NoError(err)
	s.Require().NotEmpty(result.Content)

	text, ok := mcp.AsTextContent(result.Content[0])
	s.Require().True(ok)
	return result, text.Text
}

func (s *ServerSuite) writeFile(name string, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ServerSuite) TestToolsAreListed() {
	tools := s.initializeAndListTools()

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		s.Contains(tool.InputSchema.Required, argPath)
	}
	s.ElementsMatch([]string{ToolSummarize, ToolTranscribe}, names)
}

func (s *ServerSuite) TestSummarizeReturnsText() {
	s.svc.result = model.NewStructuredResult(model.Summary{MyArgument: "X", OtherArgument: "Y", Context: "Z"})

	result, text := s.call(ToolSummarize, map[string]any{argPath: s.writeFile("minutes.txt", "Alice argued X.")})

	s.False(result.IsError)
	s.Contains(text, "My argument:\nX")
	s.Equal([]string{"minutes.txt"}, s.svc.files)
}

func (s *ServerSuite) TestFailedRunIsToolError() {
	s.svc.result = model.NewFailedResult("quota exceeded")

	result, text := s.call(ToolTranscribe, map[string]any{argPath: s.writeFile("call.mp3", "\x00\x01")})

	s.True(result.IsError)
	s.Contains(text, "quota exceeded")
}

func (s *ServerSuite) TestServiceErrorIsToolError() {
	s.svc.err = pipeline.ErrEmptyCredential

	result, text := s.call(ToolSummarize, map[string]any{argPath: s.writeFile("notes.txt", "x")})

	s.True(result.IsError)
	s.Equal(pipeline.ErrEmptyCredential.Error(), text)
}

func (s *ServerSuite) TestMissingFileIsToolError() {
	result, _ := s.call(ToolSummarize, map[string]any{argPath: filepath.Join(s.T().TempDir(), "absent.txt")})

	s.True(result.IsError)
	s.Empty(s.svc.files)
}

func (s *ServerSuite) TestMissingPathArgumentIsToolError() {
	s.svc.err = errors.New("should not run")

	result, _ := s.call(ToolSummarize, map[string]any{})

	s.True(result.IsError)
	s.Empty(s.svc.files)
}
