package repository

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// PlaytimeRepository handles daily playtime quota rows. Each player has at
// most one row; crossing into a new day resets the used counter in place
// while preserving any limit override.
type PlaytimeRepository struct {
	db *database.DB
	mu *sync.Mutex
}

// NewPlaytimeRepository creates a new playtime repository
func NewPlaytimeRepository(db *database.DB, mu *sync.Mutex) *PlaytimeRepository {
	return &PlaytimeRepository{db: db, mu: mu}
}

// GetOrCreateToday returns the player's quota state for the given date,
// creating the row or rolling it over to the new day as needed.
func (r *PlaytimeRepository) GetOrCreateToday(username, date string, defaultLimit int) (*models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(username, date, defaultLimit, nil)
}

// AddUsedMinutes adds delta minutes to the player's used counter for the
// given date and returns the updated state.
func (r *PlaytimeRepository) AddUsedMinutes(username string, delta int, date string, defaultLimit int) (*models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(username, date, defaultLimit, func(state *rowState) {
		state.used += delta
	})
}

// SetUsedMinutes overwrites the player's used counter for the given date.
func (r *PlaytimeRepository) SetUsedMinutes(username string, minutes int, date string, defaultLimit int) (*models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(username, date, defaultLimit, func(state *rowState) {
		state.used = minutes
	})
}

// SetLimitOverride sets or clears (nil) the player's personal daily limit.
func (r *PlaytimeRepository) SetLimitOverride(username string, override *int, date string, defaultLimit int) (*models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(username, date, defaultLimit, func(state *rowState) {
		state.override = override
	})
}

// ResetUsed zeroes the player's used counter for the given date.
func (r *PlaytimeRepository) ResetUsed(username, date string, defaultLimit int) (*models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(username, date, defaultLimit, func(state *rowState) {
		state.used = 0
	})
}

// ResetAllToday zeroes every player's used counter and stamps the given date.
// Returns the number of rows touched.
func (r *PlaytimeRepository) ResetAllToday(date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.Exec(
		"UPDATE player_playtime SET daily_used_minutes = 0, last_reset_date = ?", date)
	if err != nil {
		return 0, fmt.Errorf("failed to reset playtime: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ListAll returns every player's raw quota row, ordered by username.
func (r *PlaytimeRepository) ListAll(defaultLimit int) ([]models.PlayerPlaytime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		"SELECT username, daily_used_minutes, limit_override_minutes, last_reset_date FROM player_playtime ORDER BY username ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PlayerPlaytime
	for rows.Next() {
		var entry models.PlayerPlaytime
		var override sql.NullInt64
		if err := rows.Scan(&entry.Username, &entry.DailyUsedMinutes, &override, &entry.LastResetDate); err != nil {
			return nil, err
		}
		entry.EffectiveLimitMinutes = defaultLimit
		if override.Valid {
			value := int(override.Int64)
			entry.LimitOverrideMinutes = &value
			entry.EffectiveLimitMinutes = value
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// rowState is the mutable portion of a playtime row.
type rowState struct {
	used     int
	override *int
}

// mutate loads (creating or rolling over as needed) the player's row, applies
// apply if non-nil, writes the result back, and returns the final state. All
// steps run in one transaction. Caller holds the mutex.
func (r *PlaytimeRepository) mutate(username, date string, defaultLimit int, apply func(*rowState)) (*models.PlayerPlaytime, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	selectQuery := r.db.Dialect.RewriteQuery(
		"SELECT daily_used_minutes, limit_override_minutes, last_reset_date FROM player_playtime WHERE username = ?")

	var state rowState
	var override sql.NullInt64
	var lastReset string
	err = tx.QueryRow(selectQuery, username).Scan(&state.used, &override, &lastReset)
	switch {
	case err == sql.ErrNoRows:
		insertQuery := r.db.Dialect.RewriteQuery(
			"INSERT INTO player_playtime (username, daily_used_minutes, limit_override_minutes, last_reset_date) VALUES (?, 0, NULL, ?)")
		if _, err := tx.Exec(insertQuery, username, date); err != nil {
			return nil, fmt.Errorf("failed to create playtime row for %s: %w", username, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load playtime for %s: %w", username, err)
	default:
		if override.Valid {
			value := int(override.Int64)
			state.override = &value
		}
		if lastReset != date {
			// New day: used minutes reset, the override survives.
			state.used = 0
		}
	}

	if apply != nil {
		apply(&state)
	}
	if state.used < 0 {
		state.used = 0
	}

	updateQuery := r.db.Dialect.RewriteQuery(
		"UPDATE player_playtime SET daily_used_minutes = ?, limit_override_minutes = ?, last_reset_date = ? WHERE username = ?")
	var overrideValue interface{}
	if state.override != nil {
		overrideValue = *state.override
	}
	if _, err := tx.Exec(updateQuery, state.used, overrideValue, date, username); err != nil {
		return nil, fmt.Errorf("failed to update playtime for %s: %w", username, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result := &models.PlayerPlaytime{
		Username:              username,
		DailyUsedMinutes:      state.used,
		LimitOverrideMinutes:  state.override,
		EffectiveLimitMinutes: defaultLimit,
		LastResetDate:         date,
	}
	if state.override != nil {
		result.EffectiveLimitMinutes = *state.override
	}
	return result, nil
}
