package usecase

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/entity"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/repository"
	internalEntity "github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
	"github.com/sqltutor/sqltutor-be/internal/pkg/clock"
	"github.com/sqltutor/sqltutor-be/internal/pkg/kvstore"
	"github.com/sqltutor/sqltutor-be/internal/pkg/policy"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
	"gorm.io/gorm"
)

// memoryEventRepository keeps the append-only log in a slice, ordered by
// (timestamp, insertion), standing in for the gorm repository.
type memoryEventRepository struct {
	events []internalEntity.InteractionEvent
}

func (r *memoryEventRepository) Append(_ *gorm.DB, event *internalEntity.InteractionEvent) error {
	ev := *event
	ev.Seq = uint(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func (r *memoryEventRepository) filter(keep func(internalEntity.InteractionEvent) bool) []internalEntity.InteractionEvent {
	var out []internalEntity.InteractionEvent
	for _, ev := range r.events {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func (r *memoryEventRepository) FindBySessionID(_ *gorm.DB, sessionID string) ([]internalEntity.InteractionEvent, error) {
	return r.filter(func(ev internalEntity.InteractionEvent) bool { return ev.SessionID == sessionID }), nil
}

func (r *memoryEventRepository) FindByLearnerID(_ *gorm.DB, learnerID string) ([]internalEntity.InteractionEvent, error) {
	return r.filter(func(ev internalEntity.InteractionEvent) bool { return ev.LearnerID == learnerID }), nil
}

func (r *memoryEventRepository) FindBySessionAndProblem(_ *gorm.DB, sessionID, problemID string) ([]internalEntity.InteractionEvent, error) {
	return r.filter(func(ev internalEntity.InteractionEvent) bool {
		return ev.SessionID == sessionID && ev.ProblemID == problemID
	}), nil
}

func (r *memoryEventRepository) CountErrors(_ *gorm.DB, sessionID, problemID string) (int64, error) {
	var count int64
	for _, ev := range r.events {
		if ev.SessionID == sessionID && ev.ProblemID == problemID && ev.EventType == internalEntity.EventError {
			count++
		}
	}
	return count, nil
}

type testEngine struct {
	usecase TutorEngineUsecase
	events  *memoryEventRepository
	store   *kvstore.Memory
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	events := &memoryEventRepository{}
	store := kvstore.NewMemory()

	u := NewTutorEngineUsecase(TutorEngineConfig{
		Events:    events,
		Profiles:  repository.NewProfileRepository(store),
		Clock:     clock.NewFixed(1_700_000_000_000, 1000),
		IDs:       clock.NewSequence("t-"),
		Validator: validate.NewValidator(),
	})
	return &testEngine{usecase: u, events: events, store: store}
}

func appendReq(learnerID, problemID string, eventType internalEntity.EventType) *entity.AppendEventRequest {
	req := &entity.AppendEventRequest{
		LearnerID: learnerID,
		ProblemID: problemID,
		EventType: string(eventType),
	}
	if eventType == internalEntity.EventError {
		req.ErrorSubtypeID = "unknown-column"
	}
	if eventType == internalEntity.EventExecution {
		ok := true
		req.Successful = &ok
	}
	return req
}

func TestAppendEventRejectsInvalidInputWithoutPersisting(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.usecase.AppendEvent(context.Background(), &entity.AppendEventRequest{
		EventType: "execution", ProblemID: "prob-1", // learnerId missing
	})
	require.Error(t, err)
	require.Empty(t, te.events.events)

	_, err = te.usecase.AppendEvent(context.Background(), &entity.AppendEventRequest{
		LearnerID: "learner-1", ProblemID: "prob-1", EventType: "teleport",
	})
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "eventType")
	// the message names the accepted kinds
	require.Contains(t, vErr.Fields["eventType"], "code_change")
	require.Contains(t, vErr.Fields["eventType"], "explanation_view")
	require.Empty(t, te.events.events)
}

func TestAppendEventAssignsIDTimestampAndSession(t *testing.T) {
	te := newTestEngine(t)

	res, err := te.usecase.AppendEvent(context.Background(), appendReq("learner-1", "prob-1", internalEntity.EventCodeChange))
	require.NoError(t, err)
	require.NotEmpty(t, res.Event.ID)
	require.NotZero(t, res.Event.Timestamp)
	require.NotEmpty(t, res.Event.SessionID)
	require.Equal(t, policy.DecisionContinue, res.Decision.Decision)
	require.False(t, res.DegradedPersistence)

	// the session pointer was created lazily and is now the active one
	session, err := te.usecase.GetActiveSession(context.Background(), "learner-1")
	require.NoError(t, err)
	require.Equal(t, res.Event.SessionID, session.SessionID)
}

func TestHintLadderFlowThroughAppend(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventError))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		res, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventHintRequest))
		require.NoError(t, err)
		require.Equal(t, policy.DecisionShowHint, res.Decision.Decision)
		require.NotNil(t, res.Emitted)
		require.Equal(t, internalEntity.EventHintView, res.Emitted.EventType)
		require.Equal(t, i, res.Emitted.HintLevel)
		require.Equal(t, i, res.Emitted.HelpRequestIndex)
		require.NotNil(t, res.Guidance)
		require.NotEmpty(t, res.Guidance.Content)
	}

	// 4th request escalates past the exhausted ladder
	res, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventHintRequest))
	require.NoError(t, err)
	require.Equal(t, policy.DecisionShowExplanation, res.Decision.Decision)
	require.Equal(t, policy.RuleAutoEscalation, res.Decision.RuleFired)
	require.NotNil(t, res.Emitted)
	require.Equal(t, internalEntity.EventExplanationView, res.Emitted.EventType)
	require.GreaterOrEqual(t, res.Emitted.HelpRequestIndex, 4)

	// the ladder endpoint reflects the derived escalated state
	ladderState, err := te.usecase.GetLadderState(ctx, res.Event.SessionID, "prob-1")
	require.NoError(t, err)
	require.True(t, ladderState.Escalated)

	// the report counts every surfaced hint and explanation
	report, err := te.usecase.LearnerReport(ctx, "learner-1")
	require.NoError(t, err)
	require.Equal(t, 4, report.HelpViews)
}

func TestHintOnlyStrategyNeverEmitsExplanation(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.usecase.UpdateStrategy(ctx, "learner-1", &entity.UpdateStrategyRequest{Strategy: policy.StrategyHintOnly})
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventError))
		require.NoError(t, err)
	}

	var last *entity.AppendEventResponse
	for i := 0; i < 5; i++ {
		last, err = te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventHintRequest))
		require.NoError(t, err)
		require.NotEqual(t, policy.DecisionShowExplanation, last.Decision.Decision)
	}
	require.Equal(t, policy.DecisionNoIntervention, last.Decision.Decision)
	require.Nil(t, last.Emitted)

	for _, ev := range te.events.events {
		require.NotEqual(t, internalEntity.EventExplanationView, ev.EventType)
	}
}

func TestStaleSessionAssertionRejected(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	first, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventCodeChange))
	require.NoError(t, err)

	// another client moves the learner to a new session
	moved := appendReq("learner-1", "prob-1", internalEntity.EventCodeChange)
	moved.SessionID = "ses-next"
	_, err = te.usecase.AppendEvent(ctx, moved)
	require.NoError(t, err)

	// the first client still asserts the old session id
	stale := appendReq("learner-1", "prob-1", internalEntity.EventCodeChange)
	stale.IfActiveSession = first.Event.SessionID
	_, err = te.usecase.AppendEvent(ctx, stale)

	var staleErr *apperrors.StaleSessionError
	require.ErrorAs(t, err, &staleErr)
	require.Equal(t, "ses-next", staleErr.ActiveID)
}

func TestCoverageAndProfileTrackAppendedEvents(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		req := appendReq("learner-1", "prob-1", internalEntity.EventExecution)
		req.ConceptIDs = []string{"sql.joins"}
		_, err := te.usecase.AppendEvent(ctx, req)
		require.NoError(t, err)
	}

	stats, err := te.usecase.GetCoverageStats(ctx, "learner-1")
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalConcepts)
	require.Equal(t, 1, stats.CoveredCount)

	report, err := te.usecase.LearnerReport(ctx, "learner-1")
	require.NoError(t, err)
	require.Equal(t, 4, report.InteractionCount)
	require.Equal(t, policy.StrategyAdaptiveMedium, report.Strategy)
	require.Nil(t, report.Narrative)
}

func TestCoverageStatsForUnknownLearnerStillSpanCatalog(t *testing.T) {
	te := newTestEngine(t)

	stats, err := te.usecase.GetCoverageStats(context.Background(), "never-seen")
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalConcepts)
	require.Equal(t, 0, stats.CoveredCount)
	require.Len(t, stats.Concepts, 10)
}

func TestUpdateStrategyBumpsVersionAndValidates(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	res, err := te.usecase.UpdateStrategy(ctx, "learner-1", &entity.UpdateStrategyRequest{Strategy: policy.StrategyAdaptiveHigh})
	require.NoError(t, err)
	require.Equal(t, policy.StrategyAdaptiveHigh, res.Strategy)

	again, err := te.usecase.UpdateStrategy(ctx, "learner-1", &entity.UpdateStrategyRequest{Strategy: policy.StrategyHintOnly})
	require.NoError(t, err)
	require.Equal(t, res.Version+1, again.Version)

	_, err = te.usecase.UpdateStrategy(ctx, "learner-1", &entity.UpdateStrategyRequest{Strategy: "bogus"})
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestReplayIsSideEffectFree(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventError))
	require.NoError(t, err)
	_, err = te.usecase.AppendEvent(ctx, appendReq("learner-1", "prob-1", internalEntity.EventHintRequest))
	require.NoError(t, err)

	logged := len(te.events.events)

	res, err := te.usecase.Replay(ctx, &entity.ReplayRequest{
		LearnerID:  "learner-1",
		Strategies: []string{policy.StrategyHintOnly, policy.StrategyAdaptiveHigh},
	})
	require.NoError(t, err)
	require.Equal(t, logged, res.EventCount)
	require.Len(t, res.Traces, 2)
	require.Len(t, res.Traces[policy.StrategyHintOnly], logged)

	// replay appended nothing and changed no profile state
	require.Len(t, te.events.events, logged)
}
