package config

import "testing"

func TestLoadAgentDefaults(t *testing.T) {
	cfg, err := LoadAgent()
	if err != nil {
		t.Fatalf("LoadAgent() error = %v", err)
	}
	if cfg.TargetBotID != 80277459 {
		t.Fatalf("TargetBotID = %d, want 80277459", cfg.TargetBotID)
	}
	if cfg.Personality != "balanced" {
		t.Fatalf("Personality = %q, want balanced", cfg.Personality)
	}
}

func TestLoadAgentParseTypes(t *testing.T) {
	t.Setenv("TARGET_BOT_ID", "12345")
	t.Setenv("PERSONALITY_TYPE", "competitive")
	t.Setenv("DB_PATH", "/tmp/agent.db")

	cfg, err := LoadAgent()
	if err != nil {
		t.Fatalf("LoadAgent() error = %v", err)
	}
	if cfg.TargetBotID != 12345 {
		t.Fatalf("TargetBotID = %d, want 12345", cfg.TargetBotID)
	}
	if cfg.Personality != "competitive" || cfg.DBPath != "/tmp/agent.db" {
		t.Fatalf("unexpected agent config: %+v", cfg)
	}
}
