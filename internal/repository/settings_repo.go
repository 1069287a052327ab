package repository

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
)

// Setting keys used by the application.
const (
	SettingImportURLEnglish = "import_url_en"
	SettingImportURLFrench  = "import_url_fr"
)

// SettingsRepository handles persisted key/value settings.
type SettingsRepository struct {
	db *database.DB
	mu *sync.Mutex
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB, mu *sync.Mutex) *SettingsRepository {
	return &SettingsRepository{db: db, mu: mu}
}

// Get returns the value for key, or "" if the key is not set.
func (r *SettingsRepository) Get(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.Dialect.RewriteQuery(r.db.Dialect.SelectSettingQuery())

	var value string
	err := r.db.DB.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := r.db.Dialect.RewriteQuery(r.db.Dialect.UpsertSettingQuery())
	if _, err := r.db.DB.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}
