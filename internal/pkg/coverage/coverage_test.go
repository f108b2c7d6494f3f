package coverage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sqltutor/sqltutor-be/internal/entity"
)

func newTestEngine() *Engine {
	return NewEngine(nil, DefaultWeights(), DefaultConfidenceThresholds())
}

func newTestProfile() *entity.LearnerProfile {
	return entity.NewLearnerProfile("learner-1", "adaptive-medium", time.Unix(0, 0))
}

func execution(successful bool, concepts ...string) *entity.InteractionEvent {
	return &entity.InteractionEvent{
		EventType:  entity.EventExecution,
		ConceptIDs: concepts,
		Successful: &successful,
		Timestamp:  1000,
	}
}

func errorEvent(subtypeID string) *entity.InteractionEvent {
	return &entity.InteractionEvent{
		EventType:      entity.EventError,
		ErrorSubtypeID: subtypeID,
		Timestamp:      1000,
	}
}

func TestScoreClampedToHundred(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	for i := 0; i < 50; i++ {
		profile = e.Update(profile, execution(true, ConceptJoins))
	}

	ev := profile.ConceptCoverageEvidence[ConceptJoins]
	require.Equal(t, 100, ev.Score)
	require.Equal(t, 50, ev.EvidenceCounts.SuccessfulExecution)
}

func TestScoreClampedToZero(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	for i := 0; i < 50; i++ {
		profile = e.Update(profile, errorEvent("missing-join-condition"))
	}

	ev := profile.ConceptCoverageEvidence[ConceptJoins]
	require.Equal(t, 0, ev.Score)
	require.Equal(t, 50, ev.EvidenceCounts.ErrorEncountered)
}

func TestStreakBonusOrdering(t *testing.T) {
	e := newTestEngine()
	w := DefaultWeights()

	profile := newTestProfile()
	profile = e.Update(profile, execution(true, ConceptFiltering))
	first := profile.ConceptCoverageEvidence[ConceptFiltering].Score
	require.Equal(t, w.SuccessfulExecution, first)

	profile = e.Update(profile, execution(true, ConceptFiltering))
	second := profile.ConceptCoverageEvidence[ConceptFiltering].Score
	shortBonus := second - first - w.SuccessfulExecution
	require.Equal(t, w.StreakBonusShort, shortBonus)

	profile = e.Update(profile, execution(true, ConceptFiltering))
	third := profile.ConceptCoverageEvidence[ConceptFiltering].Score
	longBonus := third - second - w.SuccessfulExecution
	require.Equal(t, w.StreakBonusLong, longBonus)
	require.Greater(t, longBonus, shortBonus)
}

func TestFailedExecutionBreaksStreakWithoutPenalty(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	profile = e.Update(profile, execution(true, ConceptOrdering))
	before := profile.ConceptCoverageEvidence[ConceptOrdering].Score

	profile = e.Update(profile, execution(false, ConceptOrdering))
	after := profile.ConceptCoverageEvidence[ConceptOrdering]

	require.Equal(t, before, after.Score)
	require.Equal(t, 0, after.StreakCorrect)
	require.Equal(t, 1, after.StreakIncorrect)
}

func TestStreakPenaltyAfterThreeIncorrect(t *testing.T) {
	e := newTestEngine()
	w := DefaultWeights()

	// seed some score first so the penalty is visible above the clamp
	profile := newTestProfile()
	for i := 0; i < 4; i++ {
		profile = e.Update(profile, execution(true, ConceptJoins))
	}

	profile = e.Update(profile, errorEvent("missing-join-condition"))
	profile = e.Update(profile, errorEvent("missing-join-condition"))
	beforeThird := profile.ConceptCoverageEvidence[ConceptJoins].Score

	profile = e.Update(profile, errorEvent("missing-join-condition"))
	afterThird := profile.ConceptCoverageEvidence[ConceptJoins].Score

	require.Equal(t, w.ErrorEncountered+w.StreakPenaltyLong, beforeThird-afterThird)
}

func TestUpdateIsCopyOnWrite(t *testing.T) {
	e := newTestEngine()
	original := newTestProfile()
	original.ConceptCoverageEvidence[ConceptJoins] = entity.CoverageEvidence{
		ConceptID: ConceptJoins, Score: 40,
	}

	updated := e.Update(original, execution(true, ConceptJoins))

	require.Equal(t, 40, original.ConceptCoverageEvidence[ConceptJoins].Score)
	require.NotEqual(t, 40, updated.ConceptCoverageEvidence[ConceptJoins].Score)
	require.NotSame(t, original, updated)
}

func TestConfidenceFromVolumeAndDiversityOnly(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	// one kind of evidence, low diversity: stays low even at volume
	for i := 0; i < 12; i++ {
		profile = e.Update(profile, execution(true, ConceptGrouping))
	}
	require.Equal(t, entity.ConfidenceLow, profile.ConceptCoverageEvidence[ConceptGrouping].Confidence)

	// mix in more kinds: medium, then high at volume+diversity
	profile = e.Update(profile, errorEvent("having-without-group-by"))
	require.Equal(t, entity.ConfidenceMedium, profile.ConceptCoverageEvidence[ConceptGrouping].Confidence)

	profile = e.Update(profile, &entity.InteractionEvent{
		EventType: entity.EventHintView, ConceptIDs: []string{ConceptGrouping}, Timestamp: 1000,
	})
	require.Equal(t, entity.ConfidenceHigh, profile.ConceptCoverageEvidence[ConceptGrouping].Confidence)
}

func TestStatsCoverFullCatalog(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	for i := 0; i < 5; i++ {
		profile = e.Update(profile, execution(true, ConceptJoins))
	}

	stats := e.Stats(profile)
	require.Equal(t, len(DefaultCatalog()), stats.TotalConcepts)
	require.Len(t, stats.Concepts, stats.TotalConcepts)
	require.Equal(t, 1, stats.CoveredCount)
	require.InDelta(t, 10.0, stats.CoveragePercentage, 0.01)

	zeroEvidence := 0
	for _, c := range stats.Concepts {
		if c.EvidenceCounts.Total() == 0 {
			zeroEvidence++
			require.Equal(t, 0, c.Score)
			require.Equal(t, entity.ConfidenceLow, c.Confidence)
			require.False(t, c.Covered)
		}
	}
	require.Equal(t, stats.TotalConcepts-1, zeroEvidence)
}

func TestWeakConceptsSortedAscendingWithEvidenceOnly(t *testing.T) {
	e := newTestEngine()
	profile := newTestProfile()

	profile = e.Update(profile, execution(true, ConceptJoins))
	profile = e.Update(profile, errorEvent("null-comparison"))
	profile = e.Update(profile, errorEvent("null-comparison"))

	weak := e.WeakConcepts(profile, 10)
	require.Len(t, weak, 2)
	require.Equal(t, ConceptNullHandling, weak[0].ConceptID)
	require.Equal(t, ConceptJoins, weak[1].ConceptID)
	require.LessOrEqual(t, weak[0].Score, weak[1].Score)
}

func TestMapperPrecedence(t *testing.T) {
	m := NewMapper(nil, nil)

	// explicit concept ids win
	got := m.MapToConcepts(&entity.InteractionEvent{
		EventType:      entity.EventError,
		ErrorSubtypeID: "missing-join-condition",
		ConceptIDs:     []string{ConceptSubqueries},
	})
	require.Equal(t, []string{ConceptSubqueries}, got)

	// subtype table next
	got = m.MapToConcepts(errorEvent("aggregate-without-group-by"))
	require.Equal(t, []string{ConceptAggregation, ConceptGrouping}, got)

	// pattern fallback for unmapped subtypes
	got = m.MapToConcepts(errorEvent("weird-union-problem"))
	require.Equal(t, []string{ConceptSetOps}, got)

	// nothing to go on
	require.Nil(t, m.MapToConcepts(&entity.InteractionEvent{EventType: entity.EventCodeChange}))
}
