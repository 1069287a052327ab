package repository

import (
	"testing"

	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

func TestClaimRewardExactlyOnce(t *testing.T) {
	db, mu := newTestStore(t)
	tracking := NewTrackingRepository(db, mu)

	claimed, err := tracking.ClaimReward("alice", models.LanguageEnglish, "Haus")
	if err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	if !claimed {
		t.Error("Expected first claim to succeed")
	}

	claimed, err = tracking.ClaimReward("alice", models.LanguageEnglish, "Haus")
	if err != nil {
		t.Fatalf("Second claim errored: %v", err)
	}
	if claimed {
		t.Error("Expected repeat claim to be rejected")
	}

	// A different player, the other language, or another word each claim
	// independently
	for _, claim := range []struct {
		username string
		lang     models.Language
		word     string
	}{
		{"bob", models.LanguageEnglish, "Haus"},
		{"alice", models.LanguageFrench, "Haus"},
		{"alice", models.LanguageEnglish, "Baum"},
	} {
		claimed, err := tracking.ClaimReward(claim.username, claim.lang, claim.word)
		if err != nil {
			t.Fatalf("Claim %+v failed: %v", claim, err)
		}
		if !claimed {
			t.Errorf("Expected claim %+v to succeed", claim)
		}
	}

	count, err := tracking.CountRewards()
	if err != nil {
		t.Fatalf("CountRewards failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 reward rows, got %d", count)
	}
}

func TestListCandidatesAttemptCounts(t *testing.T) {
	db, mu := newTestStore(t)
	vocab := NewVocabularyRepository(db, mu)
	tracking := NewTrackingRepository(db, mu)

	if err := vocab.ReplaceAll(models.LanguageEnglish, []models.VocabPair{
		{SourceWord: "Haus", Translation: "house"},
		{SourceWord: "Baum", Translation: "tree"},
	}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := tracking.RecordAttempt("alice", models.LanguageEnglish, "Haus", i == 2); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	candidates, err := tracking.ListCandidates([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	byWord := make(map[string]models.QuestCandidate)
	for _, candidate := range candidates {
		byWord[candidate.SourceWord] = candidate
	}

	if byWord["Haus"].Attempts != 3 {
		t.Errorf("Expected 3 attempts for Haus, got %d", byWord["Haus"].Attempts)
	}
	if byWord["Baum"].Attempts != 0 {
		t.Errorf("Expected 0 attempts for Baum, got %d", byWord["Baum"].Attempts)
	}
	if byWord["Haus"].EligiblePlayers != 2 {
		t.Errorf("Expected 2 eligible players for Haus, got %d", byWord["Haus"].EligiblePlayers)
	}
}

func TestListCandidatesEligibilityDropsClaimants(t *testing.T) {
	db, mu := newTestStore(t)
	vocab := NewVocabularyRepository(db, mu)
	tracking := NewTrackingRepository(db, mu)

	if err := vocab.ReplaceAll(models.LanguageEnglish, []models.VocabPair{
		{SourceWord: "Haus", Translation: "house"},
	}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	if _, err := tracking.ClaimReward("alice", models.LanguageEnglish, "Haus"); err != nil {
		t.Fatalf("ClaimReward failed: %v", err)
	}

	candidates, err := tracking.ListCandidates([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].EligiblePlayers != 1 {
		t.Errorf("Expected 1 eligible player, got %d", candidates[0].EligiblePlayers)
	}

	// Claims by offline players do not affect the eligible count
	candidates, err = tracking.ListCandidates([]string{"bob"})
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	if candidates[0].EligiblePlayers != 1 {
		t.Errorf("Expected offline claim to be ignored, got %d eligible", candidates[0].EligiblePlayers)
	}
}

func TestListCandidatesNobodyOnline(t *testing.T) {
	db, mu := newTestStore(t)
	vocab := NewVocabularyRepository(db, mu)
	tracking := NewTrackingRepository(db, mu)

	if err := vocab.InsertEntry(models.LanguageEnglish, "Haus", "house"); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	candidates, err := tracking.ListCandidates(nil)
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected nil candidates with nobody online, got %+v", candidates)
	}
}

func TestClearAll(t *testing.T) {
	db, mu := newTestStore(t)
	tracking := NewTrackingRepository(db, mu)

	if err := tracking.RecordAttempt("alice", models.LanguageEnglish, "Haus", true); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if _, err := tracking.ClaimReward("alice", models.LanguageEnglish, "Haus"); err != nil {
		t.Fatalf("ClaimReward failed: %v", err)
	}

	if err := tracking.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	attempts, err := tracking.CountAttempts()
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	rewards, err := tracking.CountRewards()
	if err != nil {
		t.Fatalf("CountRewards failed: %v", err)
	}
	if attempts != 0 || rewards != 0 {
		t.Errorf("Expected empty tracking after ClearAll, got %d attempts, %d rewards", attempts, rewards)
	}
}
