package service

import (
	"math/rand"

	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

// SelectQuest picks the next quest entry from the annotated candidates.
//
// Entries nobody online can still earn a reward for are dropped. Of the rest,
// only the entries reaching the maximum eligible-player count stay in the
// draw, so the quest always targets as many players as possible. Within that
// group each entry is weighted 1/(1+attempts), biasing toward words that have
// been asked less often. Returns nil when no entry qualifies.
func SelectQuest(candidates []models.QuestCandidate, rng *rand.Rand) *models.QuestCandidate {
	maxEligible := 0
	for _, candidate := range candidates {
		if candidate.EligiblePlayers > maxEligible {
			maxEligible = candidate.EligiblePlayers
		}
	}
	if maxEligible == 0 {
		return nil
	}

	var pool []models.QuestCandidate
	totalWeight := 0.0
	for _, candidate := range candidates {
		if candidate.EligiblePlayers != maxEligible {
			continue
		}
		pool = append(pool, candidate)
		totalWeight += 1.0 / float64(1+candidate.Attempts)
	}

	draw := rng.Float64() * totalWeight
	cumulative := 0.0
	for i := range pool {
		cumulative += 1.0 / float64(1+pool[i].Attempts)
		if draw < cumulative {
			return &pool[i]
		}
	}

	// Floating-point accumulation can leave the draw just past the total.
	return &pool[len(pool)-1]
}
