package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Users      []UserBackup     `json:"users"`
	English    []VocabBackup    `json:"vocab_de_en"`
	French     []VocabBackup    `json:"vocab_de_fr"`
	Attempts   []AttemptBackup  `json:"attempts"`
	Rewards    []RewardBackup   `json:"rewards"`
	Playtime   []PlaytimeBackup `json:"playtime"`
	Settings   []SettingBackup  `json:"settings"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	Username  string    `json:"username"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// VocabBackup represents a vocabulary pair for backup
type VocabBackup struct {
	SourceWord  string `json:"de"`
	Translation string `json:"translation"`
}

// AttemptBackup represents an attempt record for backup
type AttemptBackup struct {
	Username    string    `json:"username"`
	VocabTable  string    `json:"vocab_table"`
	SourceWord  string    `json:"de_word"`
	Correct     bool      `json:"correct"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// RewardBackup represents a reward claim for backup
type RewardBackup struct {
	Username   string    `json:"username"`
	VocabTable string    `json:"vocab_table"`
	SourceWord string    `json:"de_word"`
	RewardedAt time.Time `json:"rewarded_at"`
}

// PlaytimeBackup represents a playtime quota row for backup
type PlaytimeBackup struct {
	Username             string `json:"username"`
	DailyUsedMinutes     int    `json:"daily_used_minutes"`
	LimitOverrideMinutes *int   `json:"limit_override_minutes"`
	LastResetDate        string `json:"last_reset_date"`
}

// SettingBackup represents a settings row for backup
type SettingBackup struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BackupService handles database backup and restore operations. It is meant
// for the offline backup binary and talks to the database directly.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportVocabulary(backup); err != nil {
		return fmt.Errorf("failed to export vocabulary: %w", err)
	}
	if err := s.exportAttempts(backup); err != nil {
		return fmt.Errorf("failed to export attempts: %w", err)
	}
	if err := s.exportRewards(backup); err != nil {
		return fmt.Errorf("failed to export rewards: %w", err)
	}
	if err := s.exportPlaytime(backup); err != nil {
		return fmt.Errorf("failed to export playtime: %w", err)
	}
	if err := s.exportSettings(backup); err != nil {
		return fmt.Errorf("failed to export settings: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	log.Printf("Exported %d users, %d+%d vocabulary entries, %d attempts, %d rewards",
		len(backup.Users), len(backup.English), len(backup.French), len(backup.Attempts), len(backup.Rewards))
	return nil
}

// Import restores a backup file into the database. Rows are inserted with
// conflict-tolerant statements, so importing over existing data merges.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	var backup BackupData
	if err := json.NewDecoder(file).Decode(&backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	log.Printf("Importing backup from %s (exported %s)", inputPath, backup.ExportedAt.Format(time.RFC3339))

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.importUsers(tx, backup.Users); err != nil {
		return err
	}
	if err := s.importVocabulary(tx, models.LanguageEnglish, backup.English); err != nil {
		return err
	}
	if err := s.importVocabulary(tx, models.LanguageFrench, backup.French); err != nil {
		return err
	}
	if err := s.importAttempts(tx, backup.Attempts); err != nil {
		return err
	}
	if err := s.importRewards(tx, backup.Rewards); err != nil {
		return err
	}
	if err := s.importPlaytime(tx, backup.Playtime); err != nil {
		return err
	}
	if err := s.importSettings(tx, backup.Settings); err != nil {
		return err
	}

	return tx.Commit()
}

// DumpToLog writes every stored row to the log and returns the row counts.
// Debugging aid; the output format is not stable.
func (s *BackupService) DumpToLog() (*models.DumpSummary, error) {
	backup := &BackupData{}
	if err := s.exportUsers(backup); err != nil {
		return nil, err
	}
	if err := s.exportVocabulary(backup); err != nil {
		return nil, err
	}
	if err := s.exportAttempts(backup); err != nil {
		return nil, err
	}
	if err := s.exportRewards(backup); err != nil {
		return nil, err
	}
	if err := s.exportPlaytime(backup); err != nil {
		return nil, err
	}

	for _, user := range backup.Users {
		log.Printf("user %s first_seen=%s last_seen=%s", user.Username,
			user.FirstSeen.Format(time.RFC3339), user.LastSeen.Format(time.RFC3339))
	}
	for _, entry := range backup.English {
		log.Printf("vocab de_en %q -> %q", entry.SourceWord, entry.Translation)
	}
	for _, entry := range backup.French {
		log.Printf("vocab de_fr %q -> %q", entry.SourceWord, entry.Translation)
	}
	for _, attempt := range backup.Attempts {
		log.Printf("attempt %s %s %q correct=%t at=%s", attempt.Username, attempt.VocabTable,
			attempt.SourceWord, attempt.Correct, attempt.AttemptedAt.Format(time.RFC3339))
	}
	for _, reward := range backup.Rewards {
		log.Printf("reward %s %s %q at=%s", reward.Username, reward.VocabTable,
			reward.SourceWord, reward.RewardedAt.Format(time.RFC3339))
	}
	for _, entry := range backup.Playtime {
		log.Printf("playtime %s used=%d override=%v date=%s", entry.Username,
			entry.DailyUsedMinutes, entry.LimitOverrideMinutes, entry.LastResetDate)
	}

	return &models.DumpSummary{
		Users:     len(backup.Users),
		EnEntries: len(backup.English),
		FrEntries: len(backup.French),
		Rewards:   len(backup.Rewards),
		Attempts:  len(backup.Attempts),
	}, nil
}

// ClearAll deletes every row from every table. Used by the backup binary's
// destructive import mode.
func (s *BackupService) ClearAll() error {
	tables := []string{
		"player_vocab_rewards",
		"vocab_attempts",
		"vocab_de_en",
		"vocab_de_fr",
		"player_playtime",
		"settings",
		"users",
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Printf("Cleared table: %s", table)
	}
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query("SELECT username, first_seen, last_seen FROM users ORDER BY username")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var user UserBackup
		if err := rows.Scan(&user.Username, &user.FirstSeen, &user.LastSeen); err != nil {
			return err
		}
		backup.Users = append(backup.Users, user)
	}
	return rows.Err()
}

func (s *BackupService) exportVocabulary(backup *BackupData) error {
	for _, lang := range models.Languages() {
		query := fmt.Sprintf("SELECT de, %s FROM %s ORDER BY id", lang.Column(), lang.Table())
		rows, err := s.db.Query(query)
		if err != nil {
			return err
		}

		var entries []VocabBackup
		for rows.Next() {
			var entry VocabBackup
			if err := rows.Scan(&entry.SourceWord, &entry.Translation); err != nil {
				rows.Close()
				return err
			}
			entries = append(entries, entry)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if lang == models.LanguageFrench {
			backup.French = entries
		} else {
			backup.English = entries
		}
	}
	return nil
}

func (s *BackupService) exportAttempts(backup *BackupData) error {
	rows, err := s.db.Query(
		"SELECT username, vocab_table, de_word, correct, attempted_at FROM vocab_attempts ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var attempt AttemptBackup
		if err := rows.Scan(&attempt.Username, &attempt.VocabTable, &attempt.SourceWord, &attempt.Correct, &attempt.AttemptedAt); err != nil {
			return err
		}
		backup.Attempts = append(backup.Attempts, attempt)
	}
	return rows.Err()
}

func (s *BackupService) exportRewards(backup *BackupData) error {
	rows, err := s.db.Query(
		"SELECT username, vocab_table, de_word, rewarded_at FROM player_vocab_rewards ORDER BY username, vocab_table, de_word")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var reward RewardBackup
		if err := rows.Scan(&reward.Username, &reward.VocabTable, &reward.SourceWord, &reward.RewardedAt); err != nil {
			return err
		}
		backup.Rewards = append(backup.Rewards, reward)
	}
	return rows.Err()
}

func (s *BackupService) exportPlaytime(backup *BackupData) error {
	rows, err := s.db.Query(
		"SELECT username, daily_used_minutes, limit_override_minutes, last_reset_date FROM player_playtime ORDER BY username")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entry PlaytimeBackup
		var override sql.NullInt64
		if err := rows.Scan(&entry.Username, &entry.DailyUsedMinutes, &override, &entry.LastResetDate); err != nil {
			return err
		}
		if override.Valid {
			value := int(override.Int64)
			entry.LimitOverrideMinutes = &value
		}
		backup.Playtime = append(backup.Playtime, entry)
	}
	return rows.Err()
}

func (s *BackupService) exportSettings(backup *BackupData) error {
	query := s.db.Dialect.RewriteQuery(selectAllSettingsQuery(s.db))
	rows, err := s.db.DB.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var setting SettingBackup
		if err := rows.Scan(&setting.Key, &setting.Value); err != nil {
			return err
		}
		backup.Settings = append(backup.Settings, setting)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(tx *sql.Tx, users []UserBackup) error {
	query := s.db.Dialect.RewriteQuery(s.db.Dialect.UpsertUserQuery())
	for _, user := range users {
		if _, err := tx.Exec(query, user.Username, user.FirstSeen, user.LastSeen); err != nil {
			return fmt.Errorf("failed to import user %s: %w", user.Username, err)
		}
	}
	return nil
}

func (s *BackupService) importVocabulary(tx *sql.Tx, lang models.Language, entries []VocabBackup) error {
	query := s.db.Dialect.RewriteQuery(
		fmt.Sprintf("INSERT INTO %s (de, %s) VALUES (?, ?)", lang.Table(), lang.Column()))
	for _, entry := range entries {
		if _, err := tx.Exec(query, entry.SourceWord, entry.Translation); err != nil {
			return fmt.Errorf("failed to import vocabulary entry %q: %w", entry.SourceWord, err)
		}
	}
	return nil
}

func (s *BackupService) importAttempts(tx *sql.Tx, attempts []AttemptBackup) error {
	query := s.db.Dialect.RewriteQuery(
		"INSERT INTO vocab_attempts (username, vocab_table, de_word, correct, attempted_at) VALUES (?, ?, ?, ?, ?)")
	for _, attempt := range attempts {
		if _, err := tx.Exec(query, attempt.Username, attempt.VocabTable, attempt.SourceWord, attempt.Correct, attempt.AttemptedAt); err != nil {
			return fmt.Errorf("failed to import attempt: %w", err)
		}
	}
	return nil
}

func (s *BackupService) importRewards(tx *sql.Tx, rewards []RewardBackup) error {
	query := s.db.Dialect.RewriteQuery(s.db.Dialect.ClaimRewardQuery())
	for _, reward := range rewards {
		if _, err := tx.Exec(query, reward.Username, reward.VocabTable, reward.SourceWord, reward.RewardedAt); err != nil {
			return fmt.Errorf("failed to import reward: %w", err)
		}
	}
	return nil
}

func (s *BackupService) importPlaytime(tx *sql.Tx, entries []PlaytimeBackup) error {
	deleteQuery := s.db.Dialect.RewriteQuery("DELETE FROM player_playtime WHERE username = ?")
	insertQuery := s.db.Dialect.RewriteQuery(
		"INSERT INTO player_playtime (username, daily_used_minutes, limit_override_minutes, last_reset_date) VALUES (?, ?, ?, ?)")
	for _, entry := range entries {
		if _, err := tx.Exec(deleteQuery, entry.Username); err != nil {
			return fmt.Errorf("failed to import playtime for %s: %w", entry.Username, err)
		}
		var override interface{}
		if entry.LimitOverrideMinutes != nil {
			override = *entry.LimitOverrideMinutes
		}
		if _, err := tx.Exec(insertQuery, entry.Username, entry.DailyUsedMinutes, override, entry.LastResetDate); err != nil {
			return fmt.Errorf("failed to import playtime for %s: %w", entry.Username, err)
		}
	}
	return nil
}

func (s *BackupService) importSettings(tx *sql.Tx, settings []SettingBackup) error {
	query := s.db.Dialect.RewriteQuery(s.db.Dialect.UpsertSettingQuery())
	for _, setting := range settings {
		if _, err := tx.Exec(query, setting.Key, setting.Value); err != nil {
			return fmt.Errorf("failed to import setting %s: %w", setting.Key, err)
		}
	}
	return nil
}

func selectAllSettingsQuery(db *database.DB) string {
	if db.Dialect.DriverName() == "mysql" {
		return "SELECT `key`, `value` FROM settings ORDER BY `key`"
	}
	return "SELECT key, value FROM settings ORDER BY key"
}
