package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/async"
	"github.com/mklauzo/pdf-search/internal/index"
	"github.com/mklauzo/pdf-search/internal/store"
	"github.com/mklauzo/pdf-search/pkg/version"
)

// ServerName is the MCP implementation name.
const ServerName = "pdfsearch"

// Search result limits for the search tool.
const (
	defaultSearchLimit = 100
	maxSearchLimit     = 500
)

// HTTPPath is where the streamable HTTP transport is mounted.
const HTTPPath = "/mcp"

// Controller is the set of operations the server exposes.
type Controller interface {
	TriggerIndexing(ctx context.Context, full bool) app.TriggerResult
	IndexingStatus() async.RunSnapshot
	Search(ctx context.Context, query string, limit int) (*app.SearchResponse, error)
	Stats(ctx context.Context) (*store.Stats, error)
	GetScope() app.ScopeInfo
	SetScope(ctx context.Context, path string) (app.TriggerResult, error)
	ListDirectories() ([]string, error)
	ListFiles(ctx context.Context) ([]string, error)
	FilePageCount(file string) (*app.PageCount, error)
	PageImage(ctx context.Context, file string, page int, query string) (*app.PageImage, error)
	DetectChanges(ctx context.Context) (index.ChangeSet, error)
}

var _ Controller = (*app.Service)(nil)

// Server bridges MCP clients with the PDF index.
type Server struct {
	mcp    *mcp.Server
	ctl    Controller
	logger *slog.Logger
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{"trigger_indexing", "Start indexing the PDFs in the active directory in the background. Unchanged files are skipped unless full_reindex is set. Returns immediately; poll indexing_status for progress."},
	{"indexing_status", "Progress of the current or last indexing run: files processed, current file and per-file errors."},
	{"search", "Full-text search over the text of every indexed PDF page, best matches first. Each result names the file, the 1-based page and a snippet with matches in bold."},
	{"get_stats", "Index statistics: file and page counts, total characters, average pages per file and files per top-level directory."},
	{"get_scope", "The active directory that indexing and file listing operate on."},
	{"set_scope", "Change the active directory to a directory under the base directory and start a full reindex of it."},
	{"list_directories", "Directories under the base directory, up to two levels deep. Use these as set_scope paths."},
	{"list_files", "PDF files in the active directory, relative to it."},
	{"file_page_count", "Number of pages of a PDF in the active directory."},
	{"page_image", "Render one page of a PDF as a PNG image. With a query, words matching it are outlined in red."},
	{"detect_changes", "Compare the PDFs on disk with the index: counts of new and deleted files. Reports no changes while indexing runs."},
}

// NewServer creates an MCP server over ctl.
func NewServer(ctl Controller) (*Server, error) {
	if ctl == nil {
		return nil, errors.New("controller is required")
	}

	s := &Server{
		ctl:    ctl,
		logger: slog.Default(),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

func description(name string) string {
	for _, t := range toolInfos {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}

func (s *Server) registerTools() {
	s.logger.Debug("registering_mcp_tools")

	addTool(s, "trigger_indexing", s.handleTriggerIndexing)
	addTool(s, "indexing_status", s.handleIndexingStatus)
	addTool(s, "search", s.handleSearch)
	addTool(s, "get_stats", s.handleGetStats)
	addTool(s, "get_scope", s.handleGetScope)
	addTool(s, "set_scope", s.handleSetScope)
	addTool(s, "list_directories", s.handleListDirectories)
	addTool(s, "list_files", s.handleListFiles)
	addTool(s, "file_page_count", s.handleFilePageCount)
	addTool(s, "page_image", s.handlePageImage)
	addTool(s, "detect_changes", s.handleDetectChanges)

	s.logger.Info("mcp_tools_registered", slog.Int("count", len(toolInfos)))
}

func addTool[In, Out any](s *Server, name string, h mcp.ToolHandlerFor[In, Out]) {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: name, Description: description(name)}, h)
}

func (s *Server) handleTriggerIndexing(ctx context.Context, _ *mcp.CallToolRequest, in TriggerIndexingInput) (*mcp.CallToolResult, *MessageOutput, error) {
	res := s.ctl.TriggerIndexing(ctx, in.FullReindex)
	s.logger.Info("tool_trigger_indexing",
		slog.Bool("full_reindex", in.FullReindex),
		slog.Bool("started", res.Started))
	return nil, &MessageOutput{Started: res.Started, TaskID: res.TaskID, Message: res.Message}, nil
}

func (s *Server) handleIndexingStatus(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *IndexingStatusOutput, error) {
	return nil, toStatusOutput(s.ctl.IndexingStatus()), nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, *app.SearchResponse, error) {
	start := time.Now()
	requestID := generateRequestID()

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, nil, NewInvalidParamsError("query parameter is required")
	}
	limit := clampLimit(in.Limit, defaultSearchLimit, 1, maxSearchLimit)

	s.logger.Info("search_started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit))

	resp, err := s.ctl.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, nil, MapError(err)
	}

	s.logger.Info("search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(resp.Results)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatSearchResults(query, resp)}},
	}, resp, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *store.Stats, error) {
	stats, err := s.ctl.Stats(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, stats, nil
}

func (s *Server) handleGetScope(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *app.ScopeInfo, error) {
	info := s.ctl.GetScope()
	return nil, &info, nil
}

func (s *Server) handleSetScope(ctx context.Context, _ *mcp.CallToolRequest, in SetScopeInput) (*mcp.CallToolResult, *MessageOutput, error) {
	res, err := s.ctl.SetScope(ctx, in.Path)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, &MessageOutput{Started: res.Started, TaskID: res.TaskID, Message: res.Message}, nil
}

func (s *Server) handleListDirectories(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *ListOutput, error) {
	dirs, err := s.ctl.ListDirectories()
	if err != nil {
		return nil, nil, MapError(err)
	}
	return listResult("Directories", dirs)
}

func (s *Server) handleListFiles(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *ListOutput, error) {
	files, err := s.ctl.ListFiles(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return listResult("Files", files)
}

func listResult(title string, items []string) (*mcp.CallToolResult, *ListOutput, error) {
	if items == nil {
		items = []string{}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatList(title, items)}},
	}, &ListOutput{Items: items}, nil
}

func (s *Server) handleFilePageCount(_ context.Context, _ *mcp.CallToolRequest, in FileInput) (*mcp.CallToolResult, *app.PageCount, error) {
	pc, err := s.ctl.FilePageCount(in.File)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, pc, nil
}

func (s *Server) handlePageImage(ctx context.Context, _ *mcp.CallToolRequest, in PageImageInput) (*mcp.CallToolResult, *PageImageOutput, error) {
	if in.Page < 1 {
		return nil, nil, NewInvalidParamsError(fmt.Sprintf("page must be at least 1, got %d", in.Page))
	}

	img, err := s.ctl.PageImage(ctx, in.File, in.Page, in.Query)
	if err != nil {
		s.logger.Warn("page_image_failed",
			slog.String("file", in.File),
			slog.Int("page", in.Page),
			slog.String("error", err.Error()))
		return nil, nil, MapError(err)
	}

	content := []mcp.Content{&mcp.ImageContent{Data: img.Data, MIMEType: "image/png"}}
	if img.Warning != "" {
		content = append(content, &mcp.TextContent{Text: img.Warning})
	}
	return &mcp.CallToolResult{Content: content}, &PageImageOutput{
		File:    img.File,
		Page:    img.Page,
		Matches: img.Matches,
		Warning: img.Warning,
	}, nil
}

func (s *Server) handleDetectChanges(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *index.ChangeSet, error) {
	cs, err := s.ctl.DetectChanges(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, &cs, nil
}

// Serve runs the server on the given transport until ctx is done.
// transport is "stdio" or "http"; addr is used by "http".
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("mcp_server_starting",
		slog.String("transport", transport),
		slog.String("addr", addr))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	case "http":
		return s.serveHTTP(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
	}
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(HTTPPath, s.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http transport failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http transport: %w", err)
		}
		s.logger.Info("mcp_server_stopped", slog.String("transport", "http"))
		return nil
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
