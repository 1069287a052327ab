package repository

import (
	"testing"
)

func TestPlaytimeLazyCreate(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	state, err := playtime.GetOrCreateToday("alice", "2026-09-01", 120)
	if err != nil {
		t.Fatalf("GetOrCreateToday failed: %v", err)
	}
	if state.DailyUsedMinutes != 0 {
		t.Errorf("Expected 0 used minutes for new player, got %d", state.DailyUsedMinutes)
	}
	if state.EffectiveLimitMinutes != 120 {
		t.Errorf("Expected default limit 120, got %d", state.EffectiveLimitMinutes)
	}
	if state.LimitOverrideMinutes != nil {
		t.Errorf("Expected no override for new player, got %d", *state.LimitOverrideMinutes)
	}
}

func TestPlaytimeAddAndSet(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	state, err := playtime.AddUsedMinutes("alice", 1, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("AddUsedMinutes failed: %v", err)
	}
	if state.DailyUsedMinutes != 1 {
		t.Errorf("Expected 1 used minute, got %d", state.DailyUsedMinutes)
	}

	state, err = playtime.AddUsedMinutes("alice", 1, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("AddUsedMinutes failed: %v", err)
	}
	if state.DailyUsedMinutes != 2 {
		t.Errorf("Expected 2 used minutes, got %d", state.DailyUsedMinutes)
	}

	state, err = playtime.SetUsedMinutes("alice", 90, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("SetUsedMinutes failed: %v", err)
	}
	if state.DailyUsedMinutes != 90 {
		t.Errorf("Expected 90 used minutes, got %d", state.DailyUsedMinutes)
	}
}

func TestPlaytimeOverride(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	limit := 30
	state, err := playtime.SetLimitOverride("alice", &limit, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("SetLimitOverride failed: %v", err)
	}
	if state.EffectiveLimitMinutes != 30 {
		t.Errorf("Expected effective limit 30, got %d", state.EffectiveLimitMinutes)
	}

	// Clearing the override restores the default
	state, err = playtime.SetLimitOverride("alice", nil, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("SetLimitOverride(nil) failed: %v", err)
	}
	if state.EffectiveLimitMinutes != 120 {
		t.Errorf("Expected effective limit 120 after clearing override, got %d", state.EffectiveLimitMinutes)
	}
	if state.LimitOverrideMinutes != nil {
		t.Errorf("Expected override cleared, got %d", *state.LimitOverrideMinutes)
	}
}

func TestPlaytimeDayRollover(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	limit := 30
	if _, err := playtime.SetLimitOverride("alice", &limit, "2026-09-01", 120); err != nil {
		t.Fatalf("SetLimitOverride failed: %v", err)
	}
	if _, err := playtime.SetUsedMinutes("alice", 30, "2026-09-01", 120); err != nil {
		t.Fatalf("SetUsedMinutes failed: %v", err)
	}

	// New day: used minutes reset, override survives
	state, err := playtime.GetOrCreateToday("alice", "2026-09-02", 120)
	if err != nil {
		t.Fatalf("GetOrCreateToday failed: %v", err)
	}
	if state.DailyUsedMinutes != 0 {
		t.Errorf("Expected used minutes reset on rollover, got %d", state.DailyUsedMinutes)
	}
	if state.LimitOverrideMinutes == nil || *state.LimitOverrideMinutes != 30 {
		t.Errorf("Expected override to survive rollover, got %+v", state.LimitOverrideMinutes)
	}
	if state.LastResetDate != "2026-09-02" {
		t.Errorf("Expected reset date stamped, got %s", state.LastResetDate)
	}
}

func TestPlaytimeResetAll(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	if _, err := playtime.SetUsedMinutes("alice", 50, "2026-09-01", 120); err != nil {
		t.Fatalf("SetUsedMinutes failed: %v", err)
	}
	if _, err := playtime.SetUsedMinutes("bob", 70, "2026-09-01", 120); err != nil {
		t.Fatalf("SetUsedMinutes failed: %v", err)
	}

	count, err := playtime.ResetAllToday("2026-09-01")
	if err != nil {
		t.Fatalf("ResetAllToday failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows reset, got %d", count)
	}

	entries, err := playtime.ListAll(120)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	for _, entry := range entries {
		if entry.DailyUsedMinutes != 0 {
			t.Errorf("Expected %s reset to 0, got %d", entry.Username, entry.DailyUsedMinutes)
		}
	}
}

func TestPlaytimeUsedNeverNegative(t *testing.T) {
	db, mu := newTestStore(t)
	playtime := NewPlaytimeRepository(db, mu)

	state, err := playtime.AddUsedMinutes("alice", -5, "2026-09-01", 120)
	if err != nil {
		t.Fatalf("AddUsedMinutes failed: %v", err)
	}
	if state.DailyUsedMinutes != 0 {
		t.Errorf("Expected used minutes clamped to 0, got %d", state.DailyUsedMinutes)
	}
}
