package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"career-bingo/internal/config"
	"career-bingo/internal/game"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You play career bingo. Each clue describes one career. " +
	"Reply with a JSON object {\"category\": \"<CODE>\"} using one code from the list, " +
	"or {\"category\": \"PASS\"} when no listed career fits."

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI asks a chat model which locked cell matches the clue. Timing comes
// from the difficulty profile; any model failure falls back to the heuristic.
type OpenAI struct {
	client   chatCompleter
	model    string
	timeout  time.Duration
	fallback *Heuristic
}

func NewOpenAI(cfg config.OracleConfig, fallback *Heuristic) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	log.Info().Str("model", model).Msg("openai oracle initialised")
	return newOpenAI(openai.NewClientWithConfig(clientCfg), model, cfg.Timeout, fallback), nil
}

func newOpenAI(client chatCompleter, model string, timeout time.Duration, fallback *Heuristic) *OpenAI {
	if fallback == nil {
		fallback = NewHeuristic(nil)
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout, fallback: fallback}
}

func (o *OpenAI) Decide(ctx context.Context, q game.Question, view AgentView, difficulty game.Difficulty) (Decision, error) {
	category, err := o.ask(ctx, q, view)
	if err != nil {
		metricOracleFallbackTotal.Add(1)
		log.Warn().Err(err).Str("question_id", q.ID).Msg("openai oracle failed; using heuristic")
		return o.fallback.Decide(ctx, q, view, difficulty)
	}
	d := Decision{ResponseTime: o.fallback.responseTime(difficulty)}
	if category == "PASS" {
		d.Pass = true
		return d, nil
	}
	cell, ok := view.Card.Find(category)
	if !ok || view.Unlocked.Has(cell) {
		d.Pass = true
		return d, nil
	}
	d.Cell = cell
	return d, nil
}

func (o *OpenAI) ask(ctx context.Context, q game.Question, view AgentView) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(q, view)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.2,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return "", fmt.Errorf("decode openai answer: %w", err)
	}
	return strings.ToUpper(strings.TrimSpace(out.Category)), nil
}

func prompt(q game.Question, view AgentView) string {
	var b strings.Builder
	b.WriteString("Clue: ")
	b.WriteString(q.Text)
	b.WriteString("\nCodes:")
	for i := 0; i < game.CellCount; i++ {
		c := game.CellAt(i)
		cat := view.Card.At(c)
		if cat == game.FreeCategory || view.Unlocked.Has(c) {
			continue
		}
		b.WriteString(" ")
		b.WriteString(cat)
	}
	return b.String()
}
