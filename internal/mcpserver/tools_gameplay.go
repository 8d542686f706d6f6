package mcpserver

import (
	"context"
	"math"

	"career-bingo/internal/game"
	"career-bingo/internal/match"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGameplayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_session",
			mcp.WithDescription("Join a session and receive a bingo card. Keep participant_id for submit_click."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("display_name", mcp.Required(), mcp.Description("Name shown on the leaderboard")),
		),
		s.handleJoinSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_click",
			mcp.WithDescription("Answer the open question by clicking a card cell. One answer per question."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id from join_session")),
			mcp.WithNumber("row", mcp.Required(), mcp.Description("Row 0-4")),
			mcp.WithNumber("col", mcp.Required(), mcp.Description("Column 0-4")),
		),
		s.handleSubmitClick,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"leave_session",
			mcp.WithDescription("Leave a session; later clicks are ignored"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id")),
		),
		s.handleLeaveSession,
	)
}

func (s *Server) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	name, err := request.RequireString("display_name")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	p, err := s.reg.Join(ctx, sessionID, match.JoinRequest{DisplayName: name, Kind: game.KindHuman})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{
		"participant_id": p.ID,
		"session_id":     p.SessionID,
		"card":           p.Card.Slice(),
		"unlocked":       p.Unlocked.Cells(),
	}), nil
}

func (s *Server) handleSubmitClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	participantID, err := request.RequireString("participant_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	row, err := request.RequireFloat("row")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	col, err := request.RequireFloat("col")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if row != math.Trunc(row) || col != math.Trunc(col) {
		return toolError("invalid_cell", "row and col must be integers"), nil
	}
	res, err := s.reg.SubmitClick(ctx, sessionID, participantID, game.Cell{Row: int(row), Col: int(col)})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleLeaveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	participantID, err := request.RequireString("participant_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.reg.Leave(ctx, sessionID, participantID); err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}
