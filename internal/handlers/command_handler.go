package handlers

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/StuttgartNerd/vocabularyquest/internal/models"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
	"github.com/StuttgartNerd/vocabularyquest/internal/service"
	"github.com/StuttgartNerd/vocabularyquest/internal/utils"
)

// Responder receives command output destined for the sender.
type Responder func(message string)

// CommandHandler dispatches player and admin commands to the services.
type CommandHandler struct {
	quests   *service.QuestService
	playtime *service.PlaytimeService
	importer *service.ImportService
	vocab    *repository.VocabularyRepository
	users    *repository.UserRepository
	tracking *repository.TrackingRepository
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(quests *service.QuestService, playtime *service.PlaytimeService, importer *service.ImportService, vocab *repository.VocabularyRepository, users *repository.UserRepository, tracking *repository.TrackingRepository) *CommandHandler {
	return &CommandHandler{
		quests:   quests,
		playtime: playtime,
		importer: importer,
		vocab:    vocab,
		users:    users,
		tracking: tracking,
	}
}

// Handle executes one command for sender. privileged gates the admin
// commands. Returns false when the command name is unknown.
func (h *CommandHandler) Handle(sender, name string, args []string, privileged bool, respond Responder) bool {
	switch strings.ToLower(name) {
	case "answer":
		h.handleAnswer(sender, args, respond)
		return true
	case "dump-state":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleDumpState(respond)
		return true
	case "clear-tracking":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleClearTracking(respond)
		return true
	case "clear-language":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleClearLanguage(args, respond)
		return true
	case "add-entry":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleAddEntry(args, respond)
		return true
	case "set-import-url":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleSetImportURL(args, respond)
		return true
	case "import-now":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleImportNow(args, respond)
		return true
	case "quest-now":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handleQuestNow(respond)
		return true
	case "playtime":
		if !h.requireAdmin(privileged, respond) {
			return true
		}
		h.handlePlaytime(args, respond)
		return true
	default:
		return false
	}
}

func (h *CommandHandler) requireAdmin(privileged bool, respond Responder) bool {
	if !privileged {
		respond("You do not have permission to use this command.")
	}
	return privileged
}

func (h *CommandHandler) handleAnswer(sender string, args []string, respond Responder) {
	if len(args) == 0 {
		respond("Usage: answer <translation>")
		return
	}
	h.quests.HandleAnswer(sender, strings.Join(args, " "))
}

func (h *CommandHandler) handleDumpState(respond Responder) {
	summary, err := h.collectSummary()
	if err != nil {
		respond(fmt.Sprintf("Failed to read store state: %v", err))
		return
	}
	h.dumpRows()
	respond(fmt.Sprintf("Users: %d, English entries: %d, French entries: %d, rewards: %d, attempts: %d",
		summary.Users, summary.EnEntries, summary.FrEntries, summary.Rewards, summary.Attempts))

	if quest := h.quests.Active(); quest != nil {
		respond(fmt.Sprintf("Active quest: '%s' (%s)", quest.SourceWord, quest.Language.DisplayName()))
	} else {
		respond("No active quest.")
	}
}

// dumpRows writes every stored row to the log. Failures are logged per table;
// the summary response is produced separately.
func (h *CommandHandler) dumpRows() {
	if users, err := h.users.List(); err != nil {
		log.Printf("failed to dump users: %v", err)
	} else {
		for _, user := range users {
			log.Printf("user %s first_seen=%s last_seen=%s",
				user.Username, user.FirstSeen.Format(time.RFC3339), user.LastSeen.Format(time.RFC3339))
		}
	}

	for _, lang := range models.Languages() {
		entries, err := h.vocab.ListByLanguage(lang)
		if err != nil {
			log.Printf("failed to dump %s vocabulary: %v", lang.Key(), err)
			continue
		}
		for _, entry := range entries {
			log.Printf("vocab %s %q -> %q", lang.Key(), entry.SourceWord, entry.Translation)
		}
	}

	if attempts, err := h.tracking.ListAttempts(); err != nil {
		log.Printf("failed to dump attempts: %v", err)
	} else {
		for _, attempt := range attempts {
			log.Printf("attempt %s %s %q correct=%t at=%s", attempt.Username, attempt.Language.Key(),
				attempt.SourceWord, attempt.Correct, attempt.AttemptedAt.Format(time.RFC3339))
		}
	}

	if rewards, err := h.tracking.ListRewards(); err != nil {
		log.Printf("failed to dump rewards: %v", err)
	} else {
		for _, reward := range rewards {
			log.Printf("reward %s %s %q at=%s", reward.Username, reward.Language.Key(),
				reward.SourceWord, reward.RewardedAt.Format(time.RFC3339))
		}
	}

	if entries, err := h.playtime.ListAll(); err != nil {
		log.Printf("failed to dump playtime: %v", err)
	} else {
		for _, entry := range entries {
			log.Printf("playtime %s used=%d limit=%d date=%s",
				entry.Username, entry.DailyUsedMinutes, entry.EffectiveLimitMinutes, entry.LastResetDate)
		}
	}
}

func (h *CommandHandler) collectSummary() (*models.DumpSummary, error) {
	summary := &models.DumpSummary{}

	var err error
	if summary.Users, err = h.users.Count(); err != nil {
		return nil, err
	}
	if summary.EnEntries, err = h.vocab.CountByLanguage(models.LanguageEnglish); err != nil {
		return nil, err
	}
	if summary.FrEntries, err = h.vocab.CountByLanguage(models.LanguageFrench); err != nil {
		return nil, err
	}
	if summary.Rewards, err = h.tracking.CountRewards(); err != nil {
		return nil, err
	}
	if summary.Attempts, err = h.tracking.CountAttempts(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (h *CommandHandler) handleClearTracking(respond Responder) {
	if err := h.tracking.ClearAll(); err != nil {
		respond(fmt.Sprintf("Failed to clear tracking: %v", err))
		return
	}
	respond("Cleared all attempts and reward claims.")
}

func (h *CommandHandler) handleClearLanguage(args []string, respond Responder) {
	if len(args) != 1 {
		respond("Usage: clear-language <en|fr>")
		return
	}
	lang, err := models.ParseLanguage(args[0])
	if err != nil {
		respond(err.Error())
		return
	}

	removed, err := h.vocab.ClearLanguageAndTracking(lang)
	if err != nil {
		respond(fmt.Sprintf("Failed to clear %s vocabulary: %v", lang.DisplayName(), err))
		return
	}
	respond(fmt.Sprintf("Removed %d %s entries and their tracking.", removed, lang.DisplayName()))
}

func (h *CommandHandler) handleAddEntry(args []string, respond Responder) {
	if len(args) < 3 {
		respond("Usage: add-entry <en|fr> <german-word> <translation>")
		return
	}
	lang, err := models.ParseLanguage(args[0])
	if err != nil {
		respond(err.Error())
		return
	}

	source := utils.SanitizeInput(args[1])
	translation := utils.SanitizeInput(strings.Join(args[2:], " "))
	if err := utils.ValidateTerm("german word", source); err != nil {
		respond(err.Error())
		return
	}
	if err := utils.ValidateTerm("translation", translation); err != nil {
		respond(err.Error())
		return
	}

	if err := h.vocab.InsertEntry(lang, source, translation); err != nil {
		respond(fmt.Sprintf("Failed to add entry: %v", err))
		return
	}
	respond(fmt.Sprintf("Added '%s' -> '%s' (%s).", source, translation, lang.DisplayName()))
	h.quests.EnableScheduling()
}

func (h *CommandHandler) handleSetImportURL(args []string, respond Responder) {
	if len(args) != 2 {
		respond("Usage: set-import-url <en|fr> <url>")
		return
	}
	lang, err := models.ParseLanguage(args[0])
	if err != nil {
		respond(err.Error())
		return
	}

	if err := h.importer.SetImportURL(lang, args[1]); err != nil {
		respond(err.Error())
		return
	}
	respond(fmt.Sprintf("Import URL for %s updated.", lang.DisplayName()))
}

func (h *CommandHandler) handleImportNow(args []string, respond Responder) {
	languages := models.Languages()
	if len(args) == 1 {
		lang, err := models.ParseLanguage(args[0])
		if err != nil {
			respond(err.Error())
			return
		}
		languages = []models.Language{lang}
	} else if len(args) > 1 {
		respond("Usage: import-now [en|fr]")
		return
	}

	for _, lang := range languages {
		url, err := h.importer.ImportURL(lang)
		if err != nil {
			respond(fmt.Sprintf("Failed to read import URL for %s: %v", lang.DisplayName(), err))
			continue
		}
		if url == "" {
			respond(fmt.Sprintf("No import URL configured for %s.", lang.DisplayName()))
			continue
		}
		summary, err := h.importer.ImportFromURL(lang, url)
		if err != nil {
			respond(fmt.Sprintf("Import for %s failed: %v", lang.DisplayName(), err))
			continue
		}
		respond(fmt.Sprintf("Imported %s vocabulary: %d new, %d already present.",
			lang.DisplayName(), summary.Inserted, summary.SkippedExisting))
	}
	h.quests.EnableScheduling()
}

func (h *CommandHandler) handleQuestNow(respond Responder) {
	if h.quests.StartQuest(true) {
		respond("Quest started.")
		return
	}
	respond("Could not start a quest: one is already active or nobody is eligible.")
}

func (h *CommandHandler) handlePlaytime(args []string, respond Responder) {
	if len(args) == 0 {
		respond("Usage: playtime <status|setused|setlimit|reset|resetall> ...")
		return
	}

	switch strings.ToLower(args[0]) {
	case "status":
		if len(args) != 2 {
			respond("Usage: playtime status <player>")
			return
		}
		state, err := h.playtime.Status(args[1])
		if err != nil {
			respond(fmt.Sprintf("Failed to read playtime: %v", err))
			return
		}
		limit := "default"
		if state.LimitOverrideMinutes != nil {
			limit = strconv.Itoa(*state.LimitOverrideMinutes)
		}
		respond(fmt.Sprintf("%s: %d/%d minutes used today (limit: %s).",
			state.Username, state.DailyUsedMinutes, state.EffectiveLimitMinutes, limit))

	case "setused":
		if len(args) != 3 {
			respond("Usage: playtime setused <player> <minutes>")
			return
		}
		minutes, err := strconv.Atoi(args[2])
		if err != nil {
			respond("Minutes must be a number.")
			return
		}
		state, err := h.playtime.SetUsed(args[1], minutes)
		if err != nil {
			respond(fmt.Sprintf("Failed to set playtime: %v", err))
			return
		}
		respond(fmt.Sprintf("%s now has %d/%d minutes used.",
			state.Username, state.DailyUsedMinutes, state.EffectiveLimitMinutes))

	case "setlimit":
		if len(args) != 3 {
			respond("Usage: playtime setlimit <player> <minutes|default>")
			return
		}
		var limit *int
		if !strings.EqualFold(args[2], "default") {
			minutes, err := strconv.Atoi(args[2])
			if err != nil {
				respond("Limit must be a number or 'default'.")
				return
			}
			limit = &minutes
		}
		state, err := h.playtime.SetLimit(args[1], limit)
		if err != nil {
			respond(fmt.Sprintf("Failed to set limit: %v", err))
			return
		}
		respond(fmt.Sprintf("%s daily limit is now %d minutes.", state.Username, state.EffectiveLimitMinutes))

	case "reset":
		if len(args) != 2 {
			respond("Usage: playtime reset <player>")
			return
		}
		state, err := h.playtime.Reset(args[1])
		if err != nil {
			respond(fmt.Sprintf("Failed to reset playtime: %v", err))
			return
		}
		respond(fmt.Sprintf("%s playtime reset (0/%d minutes).", state.Username, state.EffectiveLimitMinutes))

	case "resetall":
		count, err := h.playtime.ResetAll()
		if err != nil {
			respond(fmt.Sprintf("Failed to reset playtime: %v", err))
			return
		}
		respond(fmt.Sprintf("Reset playtime for %d players.", count))

	default:
		respond("Usage: playtime <status|setused|setlimit|reset|resetall> ...")
	}
}
