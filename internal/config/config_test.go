package config

import (
	"testing"
	"time"
)

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset uses default", "", 5},
		{"positive value", "30", 30},
		{"zero is accepted", "0", 0},
		{"negative falls back", "-1", 5},
		{"non-numeric falls back", "soon", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PLAYTIME_WARNING_WINDOW_MINUTES", tt.value)
			if got := getEnvInt("PLAYTIME_WARNING_WINDOW_MINUTES", 5); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_TYPE", "QUEST_TIMEOUT_SECONDS", "PLAYTIME_WARNING_WINDOW_MINUTES", "PLAYTIME_KICK_MESSAGE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DatabaseType != "sqlite" {
		t.Errorf("Expected sqlite default, got %q", cfg.DatabaseType)
	}
	if cfg.QuestTimeout != 2*time.Minute {
		t.Errorf("Expected 2m quest timeout, got %v", cfg.QuestTimeout)
	}
	if cfg.PlaytimeWarningWindow != 5 {
		t.Errorf("Expected warning window 5, got %d", cfg.PlaytimeWarningWindow)
	}
	if cfg.PlaytimeKickMessage != DefaultKickMessage {
		t.Errorf("Expected default kick message, got %q", cfg.PlaytimeKickMessage)
	}
}
