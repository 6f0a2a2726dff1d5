package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/extract"
	"github.com/neilberkman/modforge/internal/core/importer"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/report"
	"github.com/neilberkman/modforge/internal/core/session"
)

// GetSessionArgs defines arguments for the get_session tool
type GetSessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Session id (32 hex characters),required"`
}

// SearchSessionsArgs defines arguments for the search_sessions tool
type SearchSessionsArgs struct {
	Query string `json:"query" jsonschema:"description=Words to match in prompts and responses,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max number of results (default: 10)"`
}

// PreviewExtractionArgs defines arguments for the preview_extraction tool
type PreviewExtractionArgs struct {
	Text string `json:"text" jsonschema:"description=Response text to scan for file blocks,required"`
}

// ModuleSummary is one entry of list_modules
type ModuleSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	Priority    int      `json:"priority"`
	Current     bool     `json:"current"`
	Files       []string `json:"files"`
}

// SessionDetail is the get_session result
type SessionDetail struct {
	SessionID      string   `json:"session_id"`
	Module         string   `json:"module"`
	Timestamp      string   `json:"timestamp"`
	TokensUsed     int      `json:"tokens_used"`
	ResponseTime   float64  `json:"response_time"`
	Prompt         string   `json:"prompt"`
	Response       string   `json:"response"`
	ExtractedFiles []string `json:"extracted_files,omitempty"`
}

// SearchMatch is one search_sessions hit
type SearchMatch struct {
	SessionID string `json:"session_id"`
	Module    string `json:"module"`
	CreatedAt string `json:"created_at"`
	Snippet   string `json:"snippet"`
}

// PreviewMatch is one file block that would be written
type PreviewMatch struct {
	Rule    string `json:"rule"`
	RawPath string `json:"raw_path"`
	Path    string `json:"path"`
	Target  string `json:"target"`
	Bytes   int    `json:"bytes"`
}

// Deps is what the tools read from
type Deps struct {
	Store       *project.Store
	Recorder    *session.Recorder
	Index       *db.DB
	Extractor   *extract.Extractor
	SessionsDir string
	Logger      *slog.Logger
}

// Server exposes project state as MCP tools
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// New registers the tools
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, mcp: server.NewMCPServer("modforge", "1.0.0")}

	s.mcp.AddTool(mcp.NewTool("project_report",
		mcp.WithDescription("Project progress: overall percentage, module counts, files, tokens used and sessions"),
	), s.handleProjectReport)

	s.mcp.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List project modules with status, progress and registered files"),
	), s.handleListModules)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Retrieve a recorded session: prompt, response, tokens and the files extracted from it"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id (32 hex characters)")),
	), s.handleGetSession)

	s.mcp.AddTool(mcp.NewTool("search_sessions",
		mcp.WithDescription("Full-text search over recorded prompts and responses"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Words to match in prompts and responses")),
		mcp.WithNumber("limit",
			mcp.Description("Max number of results (default: 10)")),
	), s.handleSearchSessions)

	s.mcp.AddTool(mcp.NewTool("preview_extraction",
		mcp.WithDescription("Show which files a response would write, without writing anything"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Response text to scan for file blocks")),
	), s.handlePreviewExtraction)

	return s
}

// ServeStdio blocks serving requests on stdin/stdout
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// syncIndex ensures the index is up-to-date before running tool queries
func (s *Server) syncIndex() error {
	if s.deps.Index == nil {
		return nil
	}
	if _, err := importer.New(s.deps.Index, s.deps.Logger).ImportDirectory(s.deps.SessionsDir, nil); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	return nil
}

func bindArgs(request mcp.CallToolRequest, v any) error {
	argsBytes, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(argsBytes, v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleProjectReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(report.Build(s.deps.Store.Config(), time.Now()))
}

func (s *Server) handleListModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.deps.Store.Config()
	modules := make([]ModuleSummary, 0, len(cfg.Project.Modules))
	for _, m := range cfg.Project.Modules {
		modules = append(modules, ModuleSummary{
			Name:        m.Name,
			Description: m.Description,
			Status:      string(m.Status),
			Progress:    m.Progress,
			Priority:    m.Priority,
			Current:     m.Name == cfg.Context.CurrentModule,
			Files:       m.Files,
		})
	}
	return jsonResult(modules)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args GetSessionArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	found, ok := s.deps.Recorder.Get(args.SessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
	}

	detail := SessionDetail{
		SessionID:    found.ID,
		Module:       found.Module,
		Timestamp:    found.Timestamp.String(),
		TokensUsed:   found.TokensUsed,
		ResponseTime: found.ResponseTime,
		Prompt:       found.Prompt,
		Response:     found.Response,
	}

	if s.deps.Index != nil {
		if err := s.syncIndex(); err != nil {
			s.deps.Logger.Warn("sync failed", "error", err)
		}
		files, err := s.deps.Index.ExtractedFiles(found.ID)
		if err != nil {
			s.deps.Logger.Warn("failed to read extracted files", "error", err)
		}
		for _, f := range files {
			detail.ExtractedFiles = append(detail.ExtractedFiles, f.Path)
		}
	}
	return jsonResult(detail)
}

func (s *Server) handleSearchSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Index == nil {
		return mcp.NewToolResultError("session index not available"), nil
	}
	if err := s.syncIndex(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	var args SearchSessionsArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Limit <= 0 {
		args.Limit = 10
	}

	results, err := s.deps.Index.Search(args.Query, args.Limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	matches := make([]SearchMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, SearchMatch{
			SessionID: r.SessionID,
			Module:    r.Module,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
			Snippet:   r.Snippet,
		})
	}
	return jsonResult(matches)
}

func (s *Server) handlePreviewExtraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args PreviewExtractionArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	matches := s.deps.Extractor.Scan(args.Text)
	preview := make([]PreviewMatch, 0, len(matches))
	for _, m := range matches {
		preview = append(preview, PreviewMatch{
			Rule:    m.Rule,
			RawPath: m.RawPath,
			Path:    m.Path,
			Target:  s.deps.Extractor.Resolve(m.Path),
			Bytes:   len(m.Content),
		})
	}
	return jsonResult(preview)
}
