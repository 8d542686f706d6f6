package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"career-bingo/internal/game"
	"career-bingo/internal/match"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type RoomLister interface {
	ListRooms(ctx context.Context) ([]game.Room, error)
}

// Server exposes session play to external agents over MCP streamable HTTP.
// External agents play as regular participants: their clicks go through the
// same path as human clicks.
type Server struct {
	reg   *match.Registry
	rooms RoomLister

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(reg *match.Registry, rooms RoomLister) *Server {
	mcpSrv := server.NewMCPServer(
		"career-bingo",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		reg:        reg,
		rooms:      rooms,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerPublicTools()
	s.registerGameplayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{session_id}/state",
			"session_state",
			mcp.WithTemplateDescription("Session snapshot by session id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "session://") || !strings.HasSuffix(raw, "/state") {
				return nil, nil
			}
			sessionID := strings.TrimSuffix(strings.TrimPrefix(raw, "session://"), "/state")
			if sessionID == "" {
				return nil, nil
			}
			snap, err := s.reg.Snapshot(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
