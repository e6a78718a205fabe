// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the published vault for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/noteservice"
	"github.com/starford/vaultsite/internal/parser"
	"github.com/starford/vaultsite/internal/schema"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "vaultsite://note-format"

// Server wraps the MCP server with vaultsite tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *noteservice.Service
	validator *schema.Validator
	contract  string
}

// New creates a new MCP server with all vaultsite tools registered.
func New(svc *noteservice.Service, validator *schema.Validator, version string) *Server {
	s := &Server{svc: svc, validator: validator, contract: NoteContract(validator)}

	s.mcp = server.NewMCPServer(
		"vaultsite",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List published entries (id, title, type, tags). Optionally filter by frontmatter type."),
		mcp.WithString("type", mcp.Description("Optional note type, e.g. research, plan, concept")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_raw",
		mcp.WithDescription("Read the raw Markdown body of an entry or project file, exactly as served at raw/<id>.md."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry identifier, e.g. research/issue-17506 or projects/sample/overview")),
	), s.readRaw)

	s.mcp.AddTool(mcp.NewTool("resolve_wikilink",
		mcp.WithDescription("Resolve a [[wiki-link]] the way the site renderer does. Returns the destination or reports it dangling."),
		mcp.WithString("link", mcp.Required(), mcp.Description("Link text with or without brackets, e.g. [[Issue 17506]]")),
	), s.resolveWikilink)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all entries that link to the specified entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Identifier of the entry to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_dangling",
		mcp.WithDescription("List wiki-links that resolve to no entry in the current build."),
	), s.listDangling)

	s.mcp.AddTool(mcp.NewTool("validate_note",
		mcp.WithDescription("Validate a note's frontmatter against the vault schema without writing it. "+
			"Read the contract first via get_note_contract or the "+NoteFormatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full Markdown content including frontmatter")),
	), s.validateNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the vault note format contract. "+
			"Call this before drafting notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Frontmatter schema, tag rules and wiki-link resolution rules for vault notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotReady) {
		return mcp.NewToolResultError("no build available yet")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteType := ""
	if t, err := req.RequireString("type"); err == nil {
		noteType = t
	}
	entries, err := s.svc.ListEntries(ctx, noteType)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) readRaw(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := s.svc.Raw(ctx, strings.TrimSuffix(strings.Trim(id, "/"), ".md"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return toolError(err), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (s *Server) resolveWikilink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := req.RequireString("link")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, link)
	if err != nil {
		return toolError(err), nil
	}
	if res.Dangling() {
		return mcp.NewToolResultText(fmt.Sprintf("dangling: no entry matches %q", res.Label)), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, strings.Trim(id, "/"))
	if err != nil {
		return toolError(err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(joinSources(bl)), nil
}

func joinSources(links []models.Link) string {
	lines := make([]string, len(links))
	for i, l := range links {
		lines[i] = l.Source
		if l.Origin != "" {
			lines[i] += " (" + l.Origin + ")"
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Server) listDangling(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	links, err := s.svc.Dangling(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no dangling links"), nil
	}
	lines := make([]string, len(links))
	for i, l := range links {
		lines[i] = fmt.Sprintf("%s: [[%s]]", l.Source, l.Label)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) validateNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fm, _, err := parser.Frontmatter([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("frontmatter: %v", err)), nil
	}
	errs, warns := s.validator.ValidateData(fm)
	if len(errs) == 0 && len(warns) == 0 {
		return mcp.NewToolResultText("valid"), nil
	}
	var b strings.Builder
	for _, e := range errs {
		b.WriteString("ERROR  " + e + "\n")
	}
	for _, w := range warns {
		b.WriteString("WARN   " + w + "\n")
	}
	if len(errs) > 0 {
		return mcp.NewToolResultError(b.String()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.contract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     s.contract,
		},
	}, nil
}
