// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes framelens tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/store"
)

// Extractor produces baseline metadata for a node.
type Extractor interface {
	Extract(node *models.Node) (models.DesignMetadata, error)
}

// Rasterizer renders a node to PNG.
type Rasterizer interface {
	Render(ctx context.Context, node *models.Node) ([]byte, error)
}

// Server wraps the MCP server with framelens tools.
type Server struct {
	mcp       *server.MCPServer
	extractor Extractor
	raster    Rasterizer
	repo      store.Repository
}

// New creates a new MCP server with all framelens tools registered.
func New(extractor Extractor, raster Rasterizer, repo store.Repository) *Server {
	s := &Server{extractor: extractor, raster: raster, repo: repo}

	s.mcp = server.NewMCPServer(
		"Framelens",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("extract_metadata",
		mcp.WithDescription("Extract heuristic design metadata from a canvas node. "+
			"The node is a FRAME or GROUP in the host's JSON node format, with TEXT "+
			"descendants carrying their characters. Read the contract via "+
			"get_metadata_contract to interpret the result."),
		mcp.WithString("node", mcp.Required(), mcp.Description("Node tree as a JSON string")),
	), s.extractMetadata)

	s.mcp.AddTool(mcp.NewTool("render_node",
		mcp.WithDescription("Render a canvas node to a PNG preview."),
		mcp.WithString("node", mcp.Required(), mcp.Description("Node tree as a JSON string")),
	), s.renderNode)

	s.mcp.AddTool(mcp.NewTool("get_analysis",
		mcp.WithDescription("Read a saved analysis by the id of the selection it was made from."),
		mcp.WithString("selection_id", mcp.Required(), mcp.Description("Host selection id (e.g. 1:2)")),
	), s.getAnalysis)

	s.mcp.AddTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List saved analyses, most recent first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of analyses (default 50)")),
	), s.listAnalyses)

	s.mcp.AddTool(mcp.NewTool("get_metadata_contract",
		mcp.WithDescription("Returns the design metadata contract: the ten fields, "+
			"their defaults and how each is filled."),
	), s.getMetadataContract)

	// Resource: metadata contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Design Metadata Contract",
			mcp.WithResourceDescription("Schema and rules of the design metadata record."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func decodeNode(req mcp.CallToolRequest) (*models.Node, error) {
	raw, err := req.RequireString("node")
	if err != nil {
		return nil, err
	}
	var node models.Node
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		return nil, fmt.Errorf("invalid node JSON: %w", err)
	}
	if !node.IsAnalyzable() {
		return nil, fmt.Errorf("node type %q: %w", node.Type, apperr.ErrInvalidSelectionType)
	}
	return &node, nil
}

func (s *Server) extractMetadata(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := decodeNode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := s.extractor.Extract(node)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(md, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) renderNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := decodeNode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	png, err := s.raster.Render(ctx, node)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultImage(fmt.Sprintf("rendered %s (%d bytes)", node.ID, len(png)),
		base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

func (s *Server) getAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("selection_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listAnalyses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	items, total, err := s.repo.ListAnalyses(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"analyses": items,
		"total":    total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMetadataContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MetadataContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     MetadataContract,
		},
	}, nil
}
