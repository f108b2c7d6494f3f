package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/ladder"
)

// runPipeline feeds events through the same fold-then-decide order the live
// engine and the replayer use, appending the help emissions a decision
// produces so the ladder advances.
func runPipeline(events []entity.InteractionEvent, strategy Strategy) []Result {
	state := ladder.Derive(nil, "ses-1", "prob-1")
	errorCount := 0

	var results []Result
	for _, ev := range events {
		if ev.EventType == entity.EventError {
			errorCount++
		}
		state = state.Apply(ev)

		res := Decide(&ev, state, errorCount, strategy)
		results = append(results, res)

		if ev.EventType == entity.EventHintRequest &&
			(res.Decision == DecisionShowHint || res.Decision == DecisionShowExplanation) {
			em := state.RequestHelp()
			if !em.Deduped {
				state = state.Apply(entity.InteractionEvent{
					SessionID: ev.SessionID, ProblemID: ev.ProblemID,
					EventType: em.EventType, HintLevel: em.HintLevel,
					HelpRequestIndex: em.HelpRequestIndex,
				})
			}
		}
	}
	return results
}

func event(eventType entity.EventType) entity.InteractionEvent {
	ev := entity.InteractionEvent{
		SessionID: "ses-1", ProblemID: "prob-1", EventType: eventType,
	}
	if eventType == entity.EventError {
		ev.ErrorSubtypeID = "unknown-column"
	}
	return ev
}

func TestAutoEscalationOnFourthHelpRequest(t *testing.T) {
	events := []entity.InteractionEvent{
		event(entity.EventError),
		event(entity.EventHintRequest),
		event(entity.EventHintRequest),
		event(entity.EventHintRequest),
		event(entity.EventHintRequest),
	}

	results := runPipeline(events, ByName(StrategyAdaptiveMedium))

	require.Equal(t, DecisionShowHint, results[1].Decision)
	require.Equal(t, DecisionShowHint, results[2].Decision)
	require.Equal(t, DecisionShowHint, results[3].Decision)

	last := results[4]
	require.Equal(t, DecisionShowExplanation, last.Decision)
	require.Equal(t, RuleAutoEscalation, last.RuleFired)
}

func TestEscalationThresholdMetOnThirdError(t *testing.T) {
	events := []entity.InteractionEvent{
		event(entity.EventError),
		event(entity.EventError),
		event(entity.EventError),
	}

	results := runPipeline(events, ByName(StrategyAdaptiveMedium))

	require.Equal(t, DecisionShowHint, results[0].Decision)
	require.Equal(t, DecisionShowHint, results[1].Decision)

	third := results[2]
	require.Equal(t, DecisionShowExplanation, third.Decision)
	require.Equal(t, RuleEscalationThresholdMet, third.RuleFired)
}

func TestHintOnlyNeverShowsExplanation(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	kinds := []entity.EventType{
		entity.EventError, entity.EventHintRequest, entity.EventExecution,
		entity.EventCodeChange, entity.EventTextbookAdd,
	}

	for trial := 0; trial < 200; trial++ {
		n := 1 + rnd.Intn(30)
		events := make([]entity.InteractionEvent, 0, n)
		for i := 0; i < n; i++ {
			ev := event(kinds[rnd.Intn(len(kinds))])
			if ev.EventType == entity.EventExecution {
				ok := rnd.Intn(2) == 0
				ev.Successful = &ok
			}
			events = append(events, ev)
		}

		for _, res := range runPipeline(events, ByName(StrategyHintOnly)) {
			require.NotEqual(t, DecisionShowExplanation, res.Decision,
				"hint-only surfaced an explanation in trial %d", trial)
		}
	}
}

func TestNonTriggerEventsContinue(t *testing.T) {
	for _, kind := range []entity.EventType{
		entity.EventCodeChange, entity.EventExecution,
		entity.EventTextbookAdd, entity.EventTextbookUpdate,
	} {
		ev := event(kind)
		res := Decide(&ev, ladder.Derive(nil, "ses-1", "prob-1"), 0, ByName(StrategyAdaptiveMedium))
		require.Equal(t, DecisionContinue, res.Decision)
		require.Equal(t, RuleContinue, res.RuleFired)
	}
}

func TestStrategyThresholds(t *testing.T) {
	require.Equal(t, Never, ByName(StrategyHintOnly).EscalateAfterErrors)
	require.Equal(t, 5, ByName(StrategyAdaptiveLow).EscalateAfterErrors)
	require.Equal(t, 3, ByName(StrategyAdaptiveMedium).EscalateAfterErrors)
	require.Equal(t, 2, ByName(StrategyAdaptiveHigh).EscalateAfterErrors)

	require.False(t, ByName(StrategyHintOnly).AllowsExplanation())
	require.True(t, ByName(StrategyAdaptiveLow).AllowsExplanation())
}

func TestUnknownStrategyFallsBackToHintOnly(t *testing.T) {
	s := ByName("does-not-exist")
	require.Equal(t, StrategyHintOnly, s.Name)
	require.False(t, ValidName("does-not-exist"))
	require.True(t, ValidName(StrategyAdaptiveHigh))
}
