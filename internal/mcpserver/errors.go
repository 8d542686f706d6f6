package mcpserver

import (
	"errors"
	"fmt"

	"career-bingo/internal/game"
	"career-bingo/internal/match"
	"career-bingo/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.Is(err, match.ErrInvalidRequest):
		return toolError("invalid_request", err.Error())
	case errors.Is(err, match.ErrInvalidCell):
		return toolError("invalid_cell", err.Error())
	case errors.Is(err, match.ErrSessionCompleted):
		return toolError("session_completed", err.Error())
	case errors.Is(err, game.ErrNotEnoughCategories):
		return toolError("not_enough_categories", err.Error())
	case errors.Is(err, match.ErrTooManyConflicts):
		return toolError("conflict", err.Error())
	case errors.Is(err, store.ErrNotFound):
		return toolError("not_found", err.Error())
	default:
		return toolError("internal_error", err.Error())
	}
}
