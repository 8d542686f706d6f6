package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/match"
	"career-bingo/internal/store"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServerToolsAndFlows(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	roomID, err := store.EnsureDefaults(ctx, repo, game.Room{
		Name:              "mcp room",
		QuestionTimeLimit: time.Minute,
		TotalQuestions:    3,
		BingoSlots:        2,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	reg := match.NewRegistry(repo, broadcast.NewHub(50), match.Options{})
	sess, err := reg.OpenSession(ctx, roomID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	httpSrv := httptest.NewServer(New(reg, repo).Handler())
	defer httpSrv.Close()
	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	assertToolNames(t, mustListTools(t, mcpClient),
		"list_rooms",
		"session_state",
		"join_session",
		"submit_click",
		"leave_session",
	)

	rooms := mapFromStructured(t, mustCallTool(t, mcpClient, "list_rooms", nil))
	if items, _ := rooms["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one room, got %v", rooms)
	}

	joined := mapFromStructured(t, mustCallTool(t, mcpClient, "join_session", map[string]any{
		"session_id":   sess.ID,
		"display_name": "mcp-bot",
	}))
	participantID := asString(joined["participant_id"])
	if participantID == "" {
		t.Fatalf("missing participant_id: %v", joined)
	}
	if card, _ := joined["card"].([]any); len(card) != game.CellCount {
		t.Fatalf("expected %d card cells, got %v", game.CellCount, joined["card"])
	}

	click := mapFromStructured(t, mustCallTool(t, mcpClient, "submit_click", map[string]any{
		"session_id":     sess.ID,
		"participant_id": participantID,
		"row":            0,
		"col":            0,
	}))
	if click["applied"] != false || asString(click["reason"]) != match.ReasonNoActiveQuestion {
		t.Fatalf("click before start should be stale: %v", click)
	}

	state := mapFromStructured(t, mustCallTool(t, mcpClient, "session_state", map[string]any{"session_id": sess.ID}))
	if ps, _ := state["participants"].([]any); len(ps) != 1 {
		t.Fatalf("expected one participant, got %v", state["participants"])
	}

	left := mapFromStructured(t, mustCallTool(t, mcpClient, "leave_session", map[string]any{
		"session_id":     sess.ID,
		"participant_id": participantID,
	}))
	if left["ok"] != true {
		t.Fatalf("leave failed: %v", left)
	}
}

func TestMCPServerToolErrors(t *testing.T) {
	repo := store.NewMemory()
	reg := match.NewRegistry(repo, broadcast.NewHub(50), match.Options{})
	httpSrv := httptest.NewServer(New(reg, repo).Handler())
	defer httpSrv.Close()
	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	assertToolErrorCode(t, mustCallTool(t, mcpClient, "session_state", map[string]any{}), "invalid_request")
	assertToolErrorCode(t, mustCallTool(t, mcpClient, "session_state", map[string]any{"session_id": "missing"}), "not_found")
	assertToolErrorCode(t, mustCallTool(t, mcpClient, "join_session", map[string]any{
		"session_id": "missing", "display_name": "x",
	}), "not_found")
	assertToolErrorCode(t, mustCallTool(t, mcpClient, "submit_click", map[string]any{
		"session_id": "missing", "participant_id": "p", "row": 9, "col": 0,
	}), "invalid_cell")
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
