// Package coverage maintains per-concept mastery evidence for a learner.
// Updates are additive, clamped to [0,100], and copy-on-write throughout:
// no CoverageEvidence reachable from an input profile is ever mutated.
package coverage

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
)

// MasteryThreshold is the score at or above which a concept counts as
// covered in coverage stats.
const MasteryThreshold = 50

// Engine applies evidence updates and computes coverage stats.
type Engine struct {
	mapper     *Mapper
	weights    Weights
	thresholds ConfidenceThresholds
}

// NewEngine builds an Engine from a mapper and configured weights.
func NewEngine(mapper *Mapper, weights Weights, thresholds ConfidenceThresholds) *Engine {
	if mapper == nil {
		mapper = NewMapper(nil, nil)
	}
	return &Engine{mapper: mapper, weights: weights, thresholds: thresholds}
}

// Mapper exposes the concept mapper for callers that only need mapping.
func (e *Engine) Mapper() *Mapper { return e.mapper }

// Update folds one event into the profile's coverage evidence and returns
// a new profile. The input profile is left untouched.
func (e *Engine) Update(profile *entity.LearnerProfile, event *entity.InteractionEvent) *entity.LearnerProfile {
	concepts := e.mapper.MapToConcepts(event)
	next := profile.Clone()
	if len(concepts) == 0 {
		return next
	}

	for _, conceptID := range concepts {
		ev, ok := next.ConceptCoverageEvidence[conceptID]
		if !ok {
			ev = entity.CoverageEvidence{ConceptID: conceptID}
		} else {
			ev = ev.Clone()
		}
		next.ConceptCoverageEvidence[conceptID] = e.applyEvent(ev, event)
	}
	return next
}

func (e *Engine) applyEvent(ev entity.CoverageEvidence, event *entity.InteractionEvent) entity.CoverageEvidence {
	w := e.weights
	switch event.EventType {
	case entity.EventExecution:
		if event.Successful != nil && *event.Successful {
			ev.EvidenceCounts.SuccessfulExecution++
			ev.StreakCorrect++
			ev.StreakIncorrect = 0
			ev.Score += w.SuccessfulExecution
			ev.Score += e.streakBonus(ev.StreakCorrect)
		} else {
			ev.StreakIncorrect++
			ev.StreakCorrect = 0
		}
	case entity.EventError:
		ev.EvidenceCounts.ErrorEncountered++
		ev.StreakIncorrect++
		ev.StreakCorrect = 0
		ev.Score -= w.ErrorEncountered
		if ev.StreakIncorrect >= w.StreakPenaltyMinRun {
			ev.Score -= w.StreakPenaltyLong
		}
	case entity.EventHintView:
		ev.EvidenceCounts.HintViewed++
		ev.Score += w.HintViewed
	case entity.EventExplanationView:
		ev.EvidenceCounts.ExplanationViewed++
		ev.Score += w.ExplanationViewed
	case entity.EventTextbookAdd, entity.EventTextbookUpdate:
		ev.EvidenceCounts.NotesAdded++
		ev.Score += w.NotesAdded
	}

	ev.Score = clamp(ev.Score, 0, 100)
	ev.Confidence = e.confidence(ev.EvidenceCounts)
	ev.LastUpdated = event.Timestamp
	return ev
}

// streakBonus rewards runs of correct executions: a longer run earns the
// larger bonus, a run of exactly two the smaller one.
func (e *Engine) streakBonus(streak int) int {
	switch {
	case streak >= e.weights.StreakBonusMinRun:
		return e.weights.StreakBonusLong
	case streak == 2:
		return e.weights.StreakBonusShort
	default:
		return 0
	}
}

// confidence derives the tier from evidence volume and diversity only.
// Score never feeds into it.
func (e *Engine) confidence(counts entity.EvidenceCounts) entity.ConfidenceTier {
	volume := counts.Total()
	diversity := counts.Diversity()
	t := e.thresholds
	switch {
	case volume >= t.HighVolume && diversity >= t.HighDiversity:
		return entity.ConfidenceHigh
	case volume >= t.MediumVolume && diversity >= t.MediumDiversity:
		return entity.ConfidenceMedium
	default:
		return entity.ConfidenceLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
