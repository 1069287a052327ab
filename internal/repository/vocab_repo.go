package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// VocabularyRepository handles vocabulary table operations. All repositories
// share one mutex so that store mutations are serialized: reward-claim
// exclusivity and atomic replace/merge must never interleave.
type VocabularyRepository struct {
	db *database.DB
	mu *sync.Mutex
}

// NewVocabularyRepository creates a new vocabulary repository
func NewVocabularyRepository(db *database.DB, mu *sync.Mutex) *VocabularyRepository {
	return &VocabularyRepository{db: db, mu: mu}
}

// ReplaceAll atomically replaces every row of the language's table with the
// given entries. On any error the prior contents are left intact.
func (r *VocabularyRepository) ReplaceAll(lang models.Language, entries []models.VocabPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Table and column names come from the closed Language enumeration,
	// never from user input.
	if _, err := tx.Exec("DELETE FROM " + lang.Table()); err != nil {
		return fmt.Errorf("failed to clear %s: %w", lang.Table(), err)
	}

	insertQuery := r.db.Dialect.RewriteQuery(
		fmt.Sprintf("INSERT INTO %s (de, %s) VALUES (?, ?)", lang.Table(), lang.Column()))
	stmt, err := tx.Prepare(insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(entry.SourceWord, entry.Translation); err != nil {
			return fmt.Errorf("failed to insert vocabulary pair: %w", err)
		}
	}

	return tx.Commit()
}

// InsertEntry inserts a single vocabulary pair.
func (r *VocabularyRepository) InsertEntry(lang models.Language, source, translation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := fmt.Sprintf("INSERT INTO %s (de, %s) VALUES (?, ?)", lang.Table(), lang.Column())
	if _, err := r.db.Exec(query, source, translation); err != nil {
		return fmt.Errorf("failed to insert vocabulary pair: %w", err)
	}
	return nil
}

// InsertMissingEntries inserts only entries whose source word (compared
// case-insensitively) is not yet present in the language's table. Existing
// rows, attempts and rewards are never modified. Returns the inserted count.
func (r *VocabularyRepository) InsertMissingEntries(lang models.Language, entries []models.VocabPair) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT lower(de) FROM " + lang.Table())
	if err != nil {
		return 0, fmt.Errorf("failed to read existing source words: %w", err)
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			rows.Close()
			return 0, err
		}
		existing[word] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	insertQuery := r.db.Dialect.RewriteQuery(
		fmt.Sprintf("INSERT INTO %s (de, %s) VALUES (?, ?)", lang.Table(), lang.Column()))
	stmt, err := tx.Prepare(insertQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, entry := range entries {
		key := strings.ToLower(entry.SourceWord)
		if existing[key] {
			continue
		}
		if _, err := stmt.Exec(entry.SourceWord, entry.Translation); err != nil {
			return 0, fmt.Errorf("failed to insert vocabulary pair: %w", err)
		}
		existing[key] = true
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// TotalEntries counts vocabulary rows across both language tables.
func (r *VocabularyRepository) TotalEntries() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, lang := range models.Languages() {
		var count int
		err := r.db.QueryRow("SELECT COUNT(*) FROM " + lang.Table()).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", lang.Table(), err)
		}
		total += count
	}
	return total, nil
}

// CountByLanguage counts vocabulary rows for one language.
func (r *VocabularyRepository) CountByLanguage(lang models.Language) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + lang.Table()).Scan(&count)
	return count, err
}

// ListByLanguage returns the language's entries in stored order.
func (r *VocabularyRepository) ListByLanguage(lang models.Language) ([]models.VocabPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := fmt.Sprintf("SELECT de, %s FROM %s ORDER BY id ASC", lang.Column(), lang.Table())
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.VocabPair
	for rows.Next() {
		var entry models.VocabPair
		if err := rows.Scan(&entry.SourceWord, &entry.Translation); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearLanguageAndTracking deletes all rows of the language's table plus the
// attempt and reward rows referencing it, in one transaction. Tracking for
// the other language is untouched. Returns the number of vocabulary rows
// removed.
func (r *VocabularyRepository) ClearLanguageAndTracking(lang models.Language) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var removed int
	if err := tx.QueryRow("SELECT COUNT(*) FROM " + lang.Table()).Scan(&removed); err != nil {
		return 0, err
	}

	if _, err := tx.Exec("DELETE FROM " + lang.Table()); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", lang.Table(), err)
	}

	deleteAttempts := r.db.Dialect.RewriteQuery("DELETE FROM vocab_attempts WHERE vocab_table = ?")
	if _, err := tx.Exec(deleteAttempts, lang.Key()); err != nil {
		return 0, fmt.Errorf("failed to clear attempts for %s: %w", lang.Key(), err)
	}

	deleteRewards := r.db.Dialect.RewriteQuery("DELETE FROM player_vocab_rewards WHERE vocab_table = ?")
	if _, err := tx.Exec(deleteRewards, lang.Key()); err != nil {
		return 0, fmt.Errorf("failed to clear rewards for %s: %w", lang.Key(), err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}
