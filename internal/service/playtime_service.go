package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/config"
	"github.com/StuttgartNerd/vocabularyquest/internal/host"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
)

// PlaytimeService enforces the daily playtime quota. A periodic tick charges
// every online player one minute; players at or over their limit are kicked.
// Admin operations work even when enforcement is disabled.
type PlaytimeService struct {
	cfg      *config.Config
	world    host.Host
	playtime *repository.PlaytimeRepository
	users    *repository.UserRepository

	// now is replaceable in tests to exercise day rollover.
	now func() time.Time
}

// NewPlaytimeService creates a new playtime service
func NewPlaytimeService(cfg *config.Config, world host.Host, playtime *repository.PlaytimeRepository, users *repository.UserRepository) *PlaytimeService {
	return &PlaytimeService{
		cfg:      cfg,
		world:    world,
		playtime: playtime,
		users:    users,
		now:      time.Now,
	}
}

func (s *PlaytimeService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// RegisterPresence records that the player joined. The user row is always
// refreshed; when enforcement is on, a player who is already out of quota is
// kicked immediately.
func (s *PlaytimeService) RegisterPresence(username string) {
	if err := s.users.Upsert(username); err != nil {
		log.Printf("failed to upsert user %s: %v", username, err)
	}

	if !s.cfg.PlaytimeEnabled {
		return
	}

	state, err := s.playtime.GetOrCreateToday(username, s.today(), s.cfg.DefaultDailyLimitMin)
	if err != nil {
		log.Printf("failed to load playtime for %s: %v", username, err)
		return
	}
	s.enforce(state)
}

// Tick charges every online player one minute of playtime. Wire it to a
// one-minute periodic task.
func (s *PlaytimeService) Tick() {
	if !s.cfg.PlaytimeEnabled {
		return
	}

	date := s.today()
	for _, username := range s.world.OnlinePlayers() {
		state, err := s.playtime.AddUsedMinutes(username, 1, date, s.cfg.DefaultDailyLimitMin)
		if err != nil {
			log.Printf("failed to charge playtime for %s: %v", username, err)
			continue
		}
		s.enforce(state)
	}
}

// Status returns the player's quota state for today.
func (s *PlaytimeService) Status(username string) (*models.PlayerPlaytime, error) {
	return s.playtime.GetOrCreateToday(username, s.today(), s.cfg.DefaultDailyLimitMin)
}

// SetUsed overwrites the player's used minutes. An online player pushed over
// the limit is kicked on the spot.
func (s *PlaytimeService) SetUsed(username string, minutes int) (*models.PlayerPlaytime, error) {
	if minutes < 0 {
		return nil, fmt.Errorf("minutes must not be negative")
	}
	state, err := s.playtime.SetUsedMinutes(username, minutes, s.today(), s.cfg.DefaultDailyLimitMin)
	if err != nil {
		return nil, err
	}
	s.enforce(state)
	return state, nil
}

// SetLimit sets the player's personal daily limit; nil restores the default.
func (s *PlaytimeService) SetLimit(username string, limitMinutes *int) (*models.PlayerPlaytime, error) {
	if limitMinutes != nil && *limitMinutes <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	state, err := s.playtime.SetLimitOverride(username, limitMinutes, s.today(), s.cfg.DefaultDailyLimitMin)
	if err != nil {
		return nil, err
	}
	s.enforce(state)
	return state, nil
}

// Reset zeroes the player's used minutes for today.
func (s *PlaytimeService) Reset(username string) (*models.PlayerPlaytime, error) {
	return s.playtime.ResetUsed(username, s.today(), s.cfg.DefaultDailyLimitMin)
}

// ResetAll zeroes every player's used minutes for today. Returns the number
// of players affected.
func (s *PlaytimeService) ResetAll() (int, error) {
	return s.playtime.ResetAllToday(s.today())
}

// ListAll returns every player's quota row with effective limits applied.
func (s *PlaytimeService) ListAll() ([]models.PlayerPlaytime, error) {
	return s.playtime.ListAll(s.cfg.DefaultDailyLimitMin)
}

// enforce kicks an online player who exhausted the quota and warns one who
// is close to it.
func (s *PlaytimeService) enforce(state *models.PlayerPlaytime) {
	if !s.world.IsOnline(state.Username) {
		return
	}

	remaining := state.EffectiveLimitMinutes - state.DailyUsedMinutes
	if remaining <= 0 {
		s.world.KickPlayer(state.Username, s.kickMessage(state))
		return
	}
	if remaining <= s.cfg.PlaytimeWarningWindow {
		s.world.MessagePlayer(state.Username,
			fmt.Sprintf("Only %d minutes of playtime left today.", remaining))
	}
}

func (s *PlaytimeService) kickMessage(state *models.PlayerPlaytime) string {
	message := strings.ReplaceAll(s.cfg.PlaytimeKickMessage, "{used}", strconv.Itoa(state.DailyUsedMinutes))
	return strings.ReplaceAll(message, "{limit}", strconv.Itoa(state.EffectiveLimitMinutes))
}
