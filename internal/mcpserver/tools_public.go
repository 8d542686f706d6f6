package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_rooms",
			mcp.WithDescription("List bingo rooms and their game settings"),
		),
		s.handleListRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"session_state",
			mcp.WithDescription("Session snapshot: status, open question, participants, awards and the final summary once completed"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		),
		s.handleSessionState,
	)
}

func (s *Server) handleListRooms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"items": rooms}), nil
}

func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	snap, err := s.reg.Snapshot(ctx, sessionID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(snap), nil
}
