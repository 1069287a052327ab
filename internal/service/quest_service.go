package service

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/config"
	"github.com/StuttgartNerd/vocabularyquest/internal/host"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
	"github.com/StuttgartNerd/vocabularyquest/internal/scheduler"
	"github.com/StuttgartNerd/vocabularyquest/internal/utils"
)

// QuestService drives the translation quest lifecycle: idle, delay timer,
// open question, timeout. At most one quest is open at a time.
type QuestService struct {
	cfg      *config.Config
	world    host.Host
	vocab    *repository.VocabularyRepository
	tracking *repository.TrackingRepository
	sched    scheduler.Scheduler
	rng      *rand.Rand

	mu          sync.Mutex
	active      *models.ActiveQuest
	timeoutTask scheduler.Task
	delayTask   scheduler.Task
	stopped     bool
}

// NewQuestService creates a new quest service. A nil rng gets a time-seeded
// source; tests pass a fixed seed.
func NewQuestService(cfg *config.Config, world host.Host, vocab *repository.VocabularyRepository, tracking *repository.TrackingRepository, sched scheduler.Scheduler, rng *rand.Rand) *QuestService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuestService{
		cfg:      cfg,
		world:    world,
		vocab:    vocab,
		tracking: tracking,
		sched:    sched,
		rng:      rng,
	}
}

// EnableScheduling arms the delay timer if the vocabulary is large enough.
// Called at startup and after imports grow the store past the threshold.
func (s *QuestService) EnableScheduling() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.active != nil || s.delayTask != nil {
		return
	}
	if !s.thresholdMet() {
		return
	}
	s.scheduleNextLocked()
}

// StartQuest tries to open a quest immediately. force bypasses the minimum
// vocabulary threshold; an explicit admin start should work even on a tiny
// store. Returns true if a quest was opened.
func (s *QuestService) StartQuest(force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delayTask != nil {
		s.delayTask.Cancel()
		s.delayTask = nil
	}
	return s.startLocked(force)
}

// HandleAnswer processes one player's answer attempt. A wrong answer leaves
// the quest open; a correct answer closes it and claims the reward if the
// player has not earned it for this word before.
func (s *QuestService) HandleAnswer(username, raw string) {
	answer := utils.SanitizeInput(raw)
	if err := utils.ValidateTerm("answer", answer); err != nil {
		s.world.MessagePlayer(username, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		s.world.MessagePlayer(username, "There is no active quest right now.")
		return
	}
	quest := *s.active

	correct := utils.NormalizeAnswer(answer) == utils.NormalizeAnswer(quest.Answer)
	if err := s.tracking.RecordAttempt(username, quest.Language, quest.SourceWord, correct); err != nil {
		log.Printf("failed to record attempt for %s: %v", username, err)
	}

	if !correct {
		s.world.Broadcast(fmt.Sprintf("%s answered '%s' wrong. The quest is still open!", username, quest.SourceWord))
		return
	}

	claimed, err := s.tracking.ClaimReward(username, quest.Language, quest.SourceWord)
	if err != nil {
		log.Printf("failed to claim reward for %s: %v", username, err)
	}
	if !claimed {
		// Re-answer after an earlier win: the question stays open for the
		// other players.
		s.world.MessagePlayer(username, fmt.Sprintf("Correct, but you already earned the reward for '%s'.", quest.SourceWord))
		return
	}

	s.world.GrantReward(username)
	s.world.Broadcast(fmt.Sprintf("%s translated '%s' correctly as '%s' and earned a reward!", username, quest.SourceWord, quest.Answer))

	s.finishLocked()
	s.scheduleNextLocked()
}

// Active returns a copy of the open quest, or nil when idle.
func (s *QuestService) Active() *models.ActiveQuest {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	quest := *s.active
	return &quest
}

// Stop cancels all timers and closes any open quest without resolution.
func (s *QuestService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.finishLocked()
	if s.delayTask != nil {
		s.delayTask.Cancel()
		s.delayTask = nil
	}
}

// startLocked opens a quest if one can be selected. Caller holds s.mu.
func (s *QuestService) startLocked(force bool) bool {
	if s.stopped || s.active != nil {
		return false
	}
	if !force && !s.thresholdMet() {
		// The store may grow back past the minimum; keep the timer armed.
		s.scheduleNextLocked()
		return false
	}

	players := s.world.OnlinePlayers()
	candidates, err := s.tracking.ListCandidates(players)
	if err != nil {
		log.Printf("failed to list quest candidates: %v", err)
		s.scheduleNextLocked()
		return false
	}

	pick := SelectQuest(candidates, s.rng)
	if pick == nil {
		if len(players) == 0 {
			log.Printf("skipping quest: no players online")
		} else {
			s.world.Broadcast("No rewardable vocabulary for the online players right now.")
		}
		s.scheduleNextLocked()
		return false
	}

	quest := &models.ActiveQuest{
		Language:   pick.Language,
		SourceWord: pick.SourceWord,
		Answer:     pick.Answer,
	}
	s.active = quest
	s.world.Broadcast(fmt.Sprintf("Translation quest! Translate the German word '%s' into %s. You have %d seconds.",
		quest.SourceWord, quest.Language.DisplayName(), int(s.cfg.QuestTimeout.Seconds())))

	// The callback captures the quest pointer so a stale timer firing after
	// this quest already closed is a no-op.
	s.timeoutTask = s.sched.ScheduleOnce(s.cfg.QuestTimeout, func() {
		s.onTimeout(quest)
	})
	return true
}

// onTimeout reveals the answer and closes the quest, unless the quest it was
// armed for is no longer the open one.
func (s *QuestService) onTimeout(quest *models.ActiveQuest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != quest {
		return
	}

	s.world.Broadcast(fmt.Sprintf("Time is up! The correct answer to '%s' was '%s'.", quest.SourceWord, quest.Answer))
	s.finishLocked()
	s.scheduleNextLocked()
}

// finishLocked closes the open quest and disarms its timeout. Caller holds
// s.mu.
func (s *QuestService) finishLocked() {
	if s.timeoutTask != nil {
		s.timeoutTask.Cancel()
		s.timeoutTask = nil
	}
	s.active = nil
}

// scheduleNextLocked arms the delay timer for the next automatic quest with
// a uniform delay between the configured bounds. Caller holds s.mu.
func (s *QuestService) scheduleNextLocked() {
	if s.stopped {
		return
	}
	if s.delayTask != nil {
		s.delayTask.Cancel()
	}

	delay := s.cfg.QuestDelayMin
	if spread := s.cfg.QuestDelayMax - s.cfg.QuestDelayMin; spread > 0 {
		delay += time.Duration(s.rng.Int63n(int64(spread) + 1))
	}
	s.delayTask = s.sched.ScheduleOnce(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.delayTask = nil
		s.startLocked(false)
	})
}

// thresholdMet reports whether the store holds enough entries for automatic
// quests. Caller holds s.mu.
func (s *QuestService) thresholdMet() bool {
	total, err := s.vocab.TotalEntries()
	if err != nil {
		log.Printf("failed to count vocabulary entries: %v", err)
		return false
	}
	return total >= s.cfg.MinVocabularyEntries
}
