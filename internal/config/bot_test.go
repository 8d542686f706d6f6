package config

import "testing"

func TestLoadBotDefaults(t *testing.T) {
	cfg, err := LoadBot()
	if err != nil {
		t.Fatalf("LoadBot() error = %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("BaseURL = %q, want http://localhost:8080", cfg.BaseURL)
	}
	if cfg.Name != "bot" {
		t.Fatalf("Name = %q, want bot", cfg.Name)
	}
	if cfg.AnswerRate != 0.7 {
		t.Fatalf("AnswerRate = %v, want 0.7", cfg.AnswerRate)
	}
}

func TestLoadBotOverrides(t *testing.T) {
	t.Setenv("BOT_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("BOT_SESSION_ID", "sess-1")
	t.Setenv("BOT_NAME", "BotA")
	t.Setenv("BOT_ANSWER_RATE", "1")

	cfg, err := LoadBot()
	if err != nil {
		t.Fatalf("LoadBot() error = %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:9000" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SessionID != "sess-1" || cfg.Name != "BotA" || cfg.AnswerRate != 1 {
		t.Fatalf("unexpected bot config: %+v", cfg)
	}
}
