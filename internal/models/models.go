package models

import "time"

// VocabPair is a single source-word/translation pair within one language table.
type VocabPair struct {
	SourceWord  string
	Translation string
}

// User represents a player known to the store.
type User struct {
	Username  string
	FirstSeen time.Time
	LastSeen  time.Time
}

// Attempt is one answer attempt against a vocabulary entry. Rows are
// append-only; they drive quest selection weighting.
type Attempt struct {
	Username    string
	Language    Language
	SourceWord  string
	Correct     bool
	AttemptedAt time.Time
}

// RewardClaim records that a player has been rewarded for an entry.
// The (username, language, source word) triple is the primary key; a row's
// existence is the single source of truth for "already rewarded".
type RewardClaim struct {
	Username   string
	Language   Language
	SourceWord string
	RewardedAt time.Time
}

// PlayerPlaytime is a player's quota state for the current day.
type PlayerPlaytime struct {
	Username              string
	DailyUsedMinutes      int
	LimitOverrideMinutes  *int
	EffectiveLimitMinutes int
	LastResetDate         string
}

// QuestCandidate is one vocabulary entry annotated for quest selection.
// EligiblePlayers counts the online players who have not yet claimed the
// entry's reward.
type QuestCandidate struct {
	Language        Language
	SourceWord      string
	Answer          string
	Attempts        int
	EligiblePlayers int
}

// ActiveQuest identifies the currently open question. It is held only by the
// quest lifecycle, never persisted.
type ActiveQuest struct {
	Language   Language
	SourceWord string
	Answer     string
}

// DumpSummary reports row counts after a full table dump.
type DumpSummary struct {
	Users     int
	EnEntries int
	FrEntries int
	Rewards   int
	Attempts  int
}

// ImportSummary reports the outcome of a merge import.
type ImportSummary struct {
	SourceRows      int
	Inserted        int
	SkippedExisting int
}
