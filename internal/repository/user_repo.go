package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// UserRepository handles user persistence.
type UserRepository struct {
	db *database.DB
	mu *sync.Mutex
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, mu *sync.Mutex) *UserRepository {
	return &UserRepository{db: db, mu: mu}
}

// Upsert records that the player was seen. A new player gets first_seen set;
// a returning player only has last_seen refreshed.
func (r *UserRepository) Upsert(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	query := r.db.Dialect.RewriteQuery(r.db.Dialect.UpsertUserQuery())
	if _, err := r.db.DB.Exec(query, username, now, now); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", username, err)
	}
	return nil
}

// Count returns the number of known users.
func (r *UserRepository) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// List returns all known users ordered by username.
func (r *UserRepository) List() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query("SELECT username, first_seen, last_seen FROM users ORDER BY username ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Username, &user.FirstSeen, &user.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
