package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// TrackingRepository handles attempt history and reward claims.
type TrackingRepository struct {
	db *database.DB
	mu *sync.Mutex
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(db *database.DB, mu *sync.Mutex) *TrackingRepository {
	return &TrackingRepository{db: db, mu: mu}
}

// RecordAttempt appends one attempt row. Attempts are never updated or
// deleted outside of clear operations.
func (r *TrackingRepository) RecordAttempt(username string, lang models.Language, sourceWord string, correct bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `INSERT INTO vocab_attempts (username, vocab_table, de_word, correct, attempted_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, username, lang.Key(), sourceWord, correct, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ClaimReward atomically claims the reward for (username, language, source
// word). It returns true exactly once per triple; a repeat claim returns
// false with no error.
func (r *TrackingRepository) ClaimReward(username string, lang models.Language, sourceWord string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.Dialect.RewriteQuery(r.db.Dialect.ClaimRewardQuery())
	result, err := r.db.DB.Exec(query, username, lang.Key(), sourceWord, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim reward: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return affected > 0, nil
}

// ClearAll wipes attempt history and reward claims for both languages.
func (r *TrackingRepository) ClearAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vocab_attempts"); err != nil {
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM player_vocab_rewards"); err != nil {
		return fmt.Errorf("failed to clear rewards: %w", err)
	}

	return tx.Commit()
}

// CountAttempts returns the total number of attempt rows.
func (r *TrackingRepository) CountAttempts() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM vocab_attempts").Scan(&count)
	return count, err
}

// CountRewards returns the total number of reward claims.
func (r *TrackingRepository) CountRewards() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM player_vocab_rewards").Scan(&count)
	return count, err
}

// ListAttempts returns all attempts in insertion order.
func (r *TrackingRepository) ListAttempts() ([]models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		"SELECT username, vocab_table, de_word, correct, attempted_at FROM vocab_attempts ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var attempt models.Attempt
		var tableKey string
		if err := rows.Scan(&attempt.Username, &tableKey, &attempt.SourceWord, &attempt.Correct, &attempt.AttemptedAt); err != nil {
			return nil, err
		}
		lang, err := models.LanguageFromKey(tableKey)
		if err != nil {
			return nil, err
		}
		attempt.Language = lang
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// ListRewards returns all reward claims ordered by username and word.
func (r *TrackingRepository) ListRewards() ([]models.RewardClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		"SELECT username, vocab_table, de_word, rewarded_at FROM player_vocab_rewards ORDER BY username, vocab_table, de_word")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.RewardClaim
	for rows.Next() {
		var claim models.RewardClaim
		var tableKey string
		if err := rows.Scan(&claim.Username, &tableKey, &claim.SourceWord, &claim.RewardedAt); err != nil {
			return nil, err
		}
		lang, err := models.LanguageFromKey(tableKey)
		if err != nil {
			return nil, err
		}
		claim.Language = lang
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// candidateQuery walks both vocabulary tables in stored order and annotates
// every entry with its total attempt count.
const candidateQuery = `SELECT vocab_table, de, answer, attempts FROM (
	SELECT 'de_en' AS vocab_table, v.id AS id, v.de AS de, v.en AS answer,
		(SELECT COUNT(*) FROM vocab_attempts a
			WHERE a.vocab_table = 'de_en' AND a.de_word = v.de) AS attempts
	FROM vocab_de_en v
	UNION ALL
	SELECT 'de_fr' AS vocab_table, v.id AS id, v.de AS de, v.fr AS answer,
		(SELECT COUNT(*) FROM vocab_attempts a
			WHERE a.vocab_table = 'de_fr' AND a.de_word = v.de) AS attempts
	FROM vocab_de_fr v
) c ORDER BY vocab_table ASC, id ASC`

// ListCandidates returns every vocabulary entry with its attempt count and
// the number of online players still eligible for its reward. With no online
// players it returns nil; entries with zero eligible players are included so
// callers can decide how to filter.
func (r *TrackingRepository) ListCandidates(onlinePlayers []string) ([]models.QuestCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(onlinePlayers) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(candidateQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var candidates []models.QuestCandidate
	for rows.Next() {
		var candidate models.QuestCandidate
		var tableKey string
		if err := rows.Scan(&tableKey, &candidate.SourceWord, &candidate.Answer, &candidate.Attempts); err != nil {
			rows.Close()
			return nil, err
		}
		lang, err := models.LanguageFromKey(tableKey)
		if err != nil {
			rows.Close()
			return nil, err
		}
		candidate.Language = lang
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	claimed, err := r.claimsForPlayers(onlinePlayers)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		key := candidates[i].Language.Key() + "\x00" + strings.ToLower(candidates[i].SourceWord)
		candidates[i].EligiblePlayers = len(onlinePlayers) - claimed[key]
	}
	return candidates, nil
}

// claimsForPlayers counts, per (table, source word), how many of the given
// players have already claimed the reward. Caller holds the mutex.
func (r *TrackingRepository) claimsForPlayers(players []string) (map[string]int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(players)), ", ")
	query := "SELECT vocab_table, de_word FROM player_vocab_rewards WHERE username IN (" + placeholders + ")"

	args := make([]interface{}, len(players))
	for i, player := range players {
		args[i] = player
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward claims: %w", err)
	}
	defer rows.Close()

	claimed := make(map[string]int)
	for rows.Next() {
		var tableKey, word string
		if err := rows.Scan(&tableKey, &word); err != nil {
			return nil, err
		}
		claimed[tableKey+"\x00"+strings.ToLower(word)]++
	}
	return claimed, rows.Err()
}
