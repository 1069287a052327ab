package service

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/StuttgartNerd/vocabularyquest/internal/config"
	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
	"github.com/StuttgartNerd/vocabularyquest/internal/scheduler"
)

// fakeHost records everything the services do to the game world.
type fakeHost struct {
	mu         sync.Mutex
	online     []string
	broadcasts []string
	messages   map[string][]string
	kicks      map[string]string
	rewards    []string
}

func newFakeHost(players ...string) *fakeHost {
	return &fakeHost{
		online:   players,
		messages: make(map[string][]string),
		kicks:    make(map[string]string),
	}
}

func (h *fakeHost) Broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, message)
}

func (h *fakeHost) MessagePlayer(username, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[username] = append(h.messages[username], message)
}

func (h *fakeHost) KickPlayer(username, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kicks[username] = reason
	for i, player := range h.online {
		if player == username {
			h.online = append(h.online[:i], h.online[i+1:]...)
			break
		}
	}
}

func (h *fakeHost) GrantReward(username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rewards = append(h.rewards, username)
}

func (h *fakeHost) OnlinePlayers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.online...)
}

func (h *fakeHost) IsOnline(username string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, player := range h.online {
		if player == username {
			return true
		}
	}
	return false
}

func (h *fakeHost) lastBroadcast() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.broadcasts) == 0 {
		return ""
	}
	return h.broadcasts[len(h.broadcasts)-1]
}

func (h *fakeHost) lastMessage(username string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.messages[username]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// manualScheduler collects scheduled work so tests fire timers explicitly.
type manualScheduler struct {
	calls []*manualCall
}

type manualCall struct {
	task     *manualTask
	delay    time.Duration
	fn       func()
	periodic bool
}

type manualTask struct {
	id        uuid.UUID
	cancelled bool
}

func (t *manualTask) ID() uuid.UUID { return t.id }
func (t *manualTask) Cancel()       { t.cancelled = true }

func (s *manualScheduler) ScheduleOnce(delay time.Duration, fn func()) scheduler.Task {
	call := &manualCall{task: &manualTask{id: uuid.New()}, delay: delay, fn: fn}
	s.calls = append(s.calls, call)
	return call.task
}

func (s *manualScheduler) SchedulePeriodic(interval time.Duration, fn func()) scheduler.Task {
	call := &manualCall{task: &manualTask{id: uuid.New()}, delay: interval, fn: fn, periodic: true}
	s.calls = append(s.calls, call)
	return call.task
}

// fireLast runs the most recently scheduled call unless it was cancelled.
func (s *manualScheduler) fireLast() {
	if len(s.calls) == 0 {
		return
	}
	call := s.calls[len(s.calls)-1]
	if !call.task.cancelled {
		call.fn()
	}
}

func questTestConfig() *config.Config {
	return &config.Config{
		QuestTimeout:          2 * time.Minute,
		QuestDelayMin:         3 * time.Minute,
		QuestDelayMax:         10 * time.Minute,
		MinVocabularyEntries:  10,
		PlaytimeEnabled:       true,
		DefaultDailyLimitMin:  120,
		PlaytimeWarningWindow: 5,
		PlaytimeKickMessage:   config.DefaultKickMessage,
	}
}

func newQuestEnv(t *testing.T, players ...string) (*QuestService, *fakeHost, *manualScheduler, *repository.VocabularyRepository, *repository.TrackingRepository) {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	var mu sync.Mutex
	vocab := repository.NewVocabularyRepository(db, &mu)
	tracking := repository.NewTrackingRepository(db, &mu)

	world := newFakeHost(players...)
	sched := &manualScheduler{}
	svc := NewQuestService(questTestConfig(), world, vocab, tracking, sched, rand.New(rand.NewSource(42)))
	return svc, world, sched, vocab, tracking
}

func seedEntry(t *testing.T, vocab *repository.VocabularyRepository, lang models.Language, source, translation string) {
	t.Helper()
	if err := vocab.InsertEntry(lang, source, translation); err != nil {
		t.Fatalf("Failed to seed vocabulary: %v", err)
	}
}

func TestStartQuestThreshold(t *testing.T) {
	svc, world, _, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	// One entry is below the minimum for automatic quests
	if svc.StartQuest(false) {
		t.Error("Expected automatic start below threshold to be rejected")
	}
	if len(world.broadcasts) != 0 {
		t.Errorf("Expected no broadcast, got %v", world.broadcasts)
	}

	// An explicit start ignores the threshold
	if !svc.StartQuest(true) {
		t.Fatal("Expected forced start to succeed")
	}
	if !strings.Contains(world.lastBroadcast(), "Haus") {
		t.Errorf("Expected quest prompt naming the word, got %q", world.lastBroadcast())
	}
	if !strings.Contains(world.lastBroadcast(), "English") {
		t.Errorf("Expected quest prompt naming the language, got %q", world.lastBroadcast())
	}
}

func TestStartQuestWhileActiveRejected(t *testing.T) {
	svc, _, _, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if !svc.StartQuest(true) {
		t.Fatal("Expected first start to succeed")
	}
	if svc.StartQuest(true) {
		t.Error("Expected start while a quest is active to be rejected")
	}
}

func TestCorrectAnswerRewardsOnce(t *testing.T) {
	svc, world, _, vocab, tracking := newQuestEnv(t, "alice", "bob")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if !svc.StartQuest(true) {
		t.Fatal("Expected start to succeed")
	}
	svc.HandleAnswer("alice", "house")

	if len(world.rewards) != 1 || world.rewards[0] != "alice" {
		t.Errorf("Expected one reward for alice, got %v", world.rewards)
	}
	if !strings.Contains(world.lastBroadcast(), "earned a reward") {
		t.Errorf("Expected reward broadcast, got %q", world.lastBroadcast())
	}
	if svc.Active() != nil {
		t.Error("Expected quest to close after a rewarded answer")
	}

	// Next quest picks the same word because bob can still earn it. Alice
	// answering again gets no second reward and the quest stays open for bob.
	if !svc.StartQuest(true) {
		t.Fatal("Expected restart to succeed")
	}
	svc.HandleAnswer("alice", "house")

	if len(world.rewards) != 1 {
		t.Errorf("Expected still one reward, got %v", world.rewards)
	}
	if !strings.Contains(world.lastMessage("alice"), "already earned") {
		t.Errorf("Expected already-earned notice, got %q", world.lastMessage("alice"))
	}
	if svc.Active() == nil {
		t.Fatal("Expected quest to stay open after an already-rewarded answer")
	}

	svc.HandleAnswer("bob", "house")
	if len(world.rewards) != 2 || world.rewards[1] != "bob" {
		t.Errorf("Expected bob to earn the open reward, got %v", world.rewards)
	}
	if svc.Active() != nil {
		t.Error("Expected quest to close after bob's rewarded answer")
	}

	attempts, err := tracking.CountAttempts()
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 recorded attempts, got %d", attempts)
	}
}

func TestWrongAnswerKeepsQuestOpen(t *testing.T) {
	svc, world, _, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if !svc.StartQuest(true) {
		t.Fatal("Expected start to succeed")
	}
	svc.HandleAnswer("alice", "mouse")

	if svc.Active() == nil {
		t.Error("Expected quest to stay open after a wrong answer")
	}
	if len(world.rewards) != 0 {
		t.Errorf("Expected no reward, got %v", world.rewards)
	}
	if !strings.Contains(world.lastBroadcast(), "still open") {
		t.Errorf("Expected public wrong-answer notice, got %q", world.lastBroadcast())
	}
}

func TestAnswerComparisonNormalized(t *testing.T) {
	svc, world, _, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "House")

	if !svc.StartQuest(true) {
		t.Fatal("Expected start to succeed")
	}
	svc.HandleAnswer("alice", "  HOUSE ")

	if len(world.rewards) != 1 {
		t.Errorf("Expected padded uppercase answer to match, rewards: %v", world.rewards)
	}
}

func TestTimeoutRevealsAnswer(t *testing.T) {
	svc, world, sched, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if !svc.StartQuest(true) {
		t.Fatal("Expected start to succeed")
	}

	sched.fireLast()

	if !strings.Contains(world.lastBroadcast(), "Time is up") || !strings.Contains(world.lastBroadcast(), "house") {
		t.Errorf("Expected timeout reveal, got %q", world.lastBroadcast())
	}
	if svc.Active() != nil {
		t.Error("Expected quest to close on timeout")
	}

	// A follow-up quest was scheduled with a delay inside the bounds
	next := sched.calls[len(sched.calls)-1]
	if next.delay < 3*time.Minute || next.delay > 10*time.Minute {
		t.Errorf("Expected next quest delay within bounds, got %v", next.delay)
	}
}

func TestStaleTimeoutIsNoOp(t *testing.T) {
	svc, world, sched, vocab, _ := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if !svc.StartQuest(true) {
		t.Fatal("Expected start to succeed")
	}
	staleTimeout := sched.calls[len(sched.calls)-1].fn

	svc.HandleAnswer("alice", "house")
	broadcastsBefore := len(world.broadcasts)

	// Simulate the old timer firing after the quest already resolved
	staleTimeout()

	if len(world.broadcasts) != broadcastsBefore {
		t.Errorf("Expected stale timeout to be ignored, got new broadcast %q", world.lastBroadcast())
	}
}

func TestAnswerWithoutActiveQuest(t *testing.T) {
	svc, world, _, _, _ := newQuestEnv(t, "alice")

	svc.HandleAnswer("alice", "house")

	if !strings.Contains(world.lastMessage("alice"), "no active quest") {
		t.Errorf("Expected no-active-quest notice, got %q", world.lastMessage("alice"))
	}
}

func TestStartQuestNobodyEligible(t *testing.T) {
	svc, world, _, vocab, tracking := newQuestEnv(t, "alice")
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if _, err := tracking.ClaimReward("alice", models.LanguageEnglish, "Haus"); err != nil {
		t.Fatalf("ClaimReward failed: %v", err)
	}

	if svc.StartQuest(true) {
		t.Error("Expected start to fail when everyone already claimed everything")
	}
	if !strings.Contains(world.lastBroadcast(), "No rewardable vocabulary") {
		t.Errorf("Expected no-rewardable-vocabulary notice, got %q", world.lastBroadcast())
	}
}

func TestStartQuestNoPlayersOnline(t *testing.T) {
	svc, world, _, vocab, _ := newQuestEnv(t)
	seedEntry(t, vocab, models.LanguageEnglish, "Haus", "house")

	if svc.StartQuest(true) {
		t.Error("Expected start to fail with nobody online")
	}
	if len(world.broadcasts) != 0 {
		t.Errorf("Expected no broadcast to an empty server, got %v", world.broadcasts)
	}
}

func TestBelowThresholdTimerReschedules(t *testing.T) {
	svc, world, sched, vocab, _ := newQuestEnv(t, "alice")
	for i := 0; i < 10; i++ {
		seedEntry(t, vocab, models.LanguageEnglish, fmt.Sprintf("Wort%d", i), fmt.Sprintf("word%d", i))
	}

	svc.EnableScheduling()
	if len(sched.calls) != 1 {
		t.Fatalf("Expected one armed delay timer, got %d", len(sched.calls))
	}

	// Shrink the store below the minimum while the delay timer is pending
	if _, err := vocab.ClearLanguageAndTracking(models.LanguageEnglish); err != nil {
		t.Fatalf("ClearLanguageAndTracking failed: %v", err)
	}

	sched.fireLast()

	if svc.Active() != nil {
		t.Error("Expected no quest to open below threshold")
	}
	if len(world.broadcasts) != 0 {
		t.Errorf("Expected a silent skip below threshold, got %v", world.broadcasts)
	}
	if len(sched.calls) != 2 {
		t.Fatalf("Expected the delay timer to re-arm below threshold, got %d calls", len(sched.calls))
	}
	next := sched.calls[len(sched.calls)-1]
	if next.delay < 3*time.Minute || next.delay > 10*time.Minute {
		t.Errorf("Expected re-armed delay within bounds, got %v", next.delay)
	}
}
