package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/entity"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/repository"
	internalEntity "github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
	"github.com/sqltutor/sqltutor-be/internal/pkg/clock"
	"github.com/sqltutor/sqltutor-be/internal/pkg/coverage"
	"github.com/sqltutor/sqltutor-be/internal/pkg/ladder"
	"github.com/sqltutor/sqltutor-be/internal/pkg/llm"
	"github.com/sqltutor/sqltutor-be/internal/pkg/mapper"
	"github.com/sqltutor/sqltutor-be/internal/pkg/policy"
	"github.com/sqltutor/sqltutor-be/internal/pkg/replay"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
	"gorm.io/gorm"
)

type TutorEngineUsecase interface {
	AppendEvent(ctx context.Context, req *entity.AppendEventRequest) (*entity.AppendEventResponse, error)
	GetSessionEvents(ctx context.Context, sessionID string) ([]internalEntity.InteractionEvent, error)
	GetActiveSession(ctx context.Context, learnerID string) (*entity.ActiveSessionResponse, error)
	GetLadderState(ctx context.Context, sessionID, problemID string) (*entity.LadderStateResponse, error)
	GetCoverageStats(ctx context.Context, learnerID string) (*coverage.Stats, error)
	UpdateStrategy(ctx context.Context, learnerID string, req *entity.UpdateStrategyRequest) (*entity.UpdateStrategyResponse, error)
	Replay(ctx context.Context, req *entity.ReplayRequest) (*entity.ReplayResponse, error)
	LearnerReport(ctx context.Context, learnerID string) (*entity.LearnerReport, error)
}

type TutorEngineConfig struct {
	DB        *gorm.DB
	Events    repository.EventRepository
	Profiles  repository.ProfileRepository
	Coverage  *coverage.Engine
	Content   llm.ContentProvider
	Clock     clock.Clock
	IDs       clock.IDGenerator
	Validator *validate.Validator
	Log       *logrus.Logger
	Config    *viper.Viper
}

type tutorEngineUsecase struct {
	cfg TutorEngineConfig
}

func NewTutorEngineUsecase(cfg TutorEngineConfig) TutorEngineUsecase {
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	if cfg.IDs == nil {
		cfg.IDs = clock.UUID()
	}
	if cfg.Coverage == nil {
		cfg.Coverage = coverage.NewEngine(nil, coverage.WeightsFromConfig(cfg.Config), coverage.ThresholdsFromConfig(cfg.Config))
	}
	return &tutorEngineUsecase{cfg: cfg}
}

// defaultStrategy is the strategy assigned to a profile created lazily on a
// learner's first event.
func (u *tutorEngineUsecase) defaultStrategy() string {
	if u.cfg.Config != nil {
		if name := u.cfg.Config.GetString("tutor.default_strategy"); policy.ValidName(name) {
			return name
		}
	}
	return policy.StrategyAdaptiveMedium
}

// strategyFor resolves the named strategy, layering config threshold
// overrides and then the learner's own preference on top of the built-in
// parameter table. hint-only keeps its disabled thresholds either way.
func (u *tutorEngineUsecase) strategyFor(name string, prefs internalEntity.LearnerPreferences) policy.Strategy {
	s := policy.ByName(name)
	if !s.AllowsExplanation() {
		return s
	}
	if u.cfg.Config != nil {
		key := "policy.strategies." + s.Name + "."
		if u.cfg.Config.IsSet(key + "escalate_after_errors") {
			s.EscalateAfterErrors = u.cfg.Config.GetInt(key + "escalate_after_errors")
		}
		if u.cfg.Config.IsSet(key + "aggregate_after_errors") {
			s.AggregateAfterErrors = u.cfg.Config.GetInt(key + "aggregate_after_errors")
		}
	}
	if prefs.EscalationThreshold > 0 {
		s.EscalateAfterErrors = prefs.EscalationThreshold
	}
	return s
}

func (u *tutorEngineUsecase) AppendEvent(ctx context.Context, req *entity.AppendEventRequest) (*entity.AppendEventResponse, error) {
	if err := u.validateEvent(req); err != nil {
		return nil, err
	}

	event := mapper.ConvertToInteractionEvent(req)
	if event.ID == "" {
		event.ID = u.cfg.IDs.NewEventID()
	}
	if event.Timestamp == 0 {
		event.Timestamp = u.cfg.Clock.NowMillis()
	}
	if event.PolicyVersion == "" {
		event.PolicyVersion = policy.Version
	}

	sessionID, err := u.resolveSession(event, req.IfActiveSession)
	if err != nil {
		return nil, err
	}
	event.SessionID = sessionID

	if err := u.cfg.Events.Append(u.cfg.DB, event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	// Ladder state is always rebuilt from the log, never cached, so a
	// session or problem change is observed immediately.
	pairEvents, err := u.cfg.Events.FindBySessionAndProblem(u.cfg.DB, event.SessionID, event.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ladder events: %w", err)
	}
	state := ladder.Derive(pairEvents, event.SessionID, event.ProblemID)

	errorCount, err := u.cfg.Events.CountErrors(u.cfg.DB, event.SessionID, event.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}

	now := u.cfg.Clock.Now()
	profile, err := u.cfg.Profiles.GetOrCreate(event.LearnerID, u.defaultStrategy(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load learner profile: %w", err)
	}
	strategy := u.strategyFor(profile.CurrentStrategy, profile.Preferences)

	decision := policy.Decide(event, state, int(errorCount), strategy)

	emitted, appended, err := u.emitHelp(event, state, decision)
	if err != nil {
		return nil, err
	}

	if _, err := u.cfg.Profiles.Commit(event.LearnerID, u.defaultStrategy(), profile, now, func(p *internalEntity.LearnerProfile) {
		p.InteractionCount++
		folded := u.cfg.Coverage.Update(p, event)
		if appended {
			// A deduped emission already fed the evidence engine the first
			// time around; only fresh emissions count again.
			folded = u.cfg.Coverage.Update(folded, emitted)
		}
		p.ConceptCoverageEvidence = folded.ConceptCoverageEvidence
	}); err != nil {
		return nil, fmt.Errorf("failed to update learner profile: %w", err)
	}

	return &entity.AppendEventResponse{
		Event:               event,
		Emitted:             emitted,
		Decision:            decision,
		Guidance:            u.guidance(ctx, event, state, decision),
		DegradedPersistence: u.cfg.Profiles.Degraded(),
	}, nil
}

// validateEvent checks event shape before anything is persisted.
func (u *tutorEngineUsecase) validateEvent(req *entity.AppendEventRequest) error {
	if u.cfg.Validator != nil {
		if err := u.cfg.Validator.Struct(req); err != nil {
			if fe, ok := err.(*validate.FieldsError); ok {
				return apperrors.NewValidationError(fe.Fields)
			}
			return err
		}
	}

	fields := make(map[string]string)
	eventType := internalEntity.EventType(req.EventType)
	if !eventType.Valid() {
		kinds := internalEntity.EventTypes()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		fields["eventType"] = fmt.Sprintf("%q is not one of %s", req.EventType, strings.Join(names, ", "))
	}
	switch eventType {
	case internalEntity.EventError:
		if req.ErrorSubtypeID == "" {
			fields["errorSubtypeId"] = "errorSubtypeId is required for error events"
		}
	case internalEntity.EventExecution:
		if req.Successful == nil {
			fields["successful"] = "successful is required for execution events"
		}
	case internalEntity.EventHintView:
		if req.HintLevel < 1 || req.HintLevel > ladder.MaxLevel {
			fields["hintLevel"] = "hintLevel must be between 1 and 3 for hint_view events"
		}
	}
	if eventType != internalEntity.EventCodeChange && req.ProblemID == "" {
		fields["problemId"] = "problemId is required"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

// resolveSession fills in the active session for the event's learner,
// creating one lazily when the learner has none. The pointer is re-read on
// every event; nothing holds it across calls.
func (u *tutorEngineUsecase) resolveSession(event *internalEntity.InteractionEvent, assertedID string) (string, error) {
	activeID, found, err := u.cfg.Profiles.ActiveSession(event.LearnerID)
	if err != nil {
		return "", fmt.Errorf("failed to read active session: %w", err)
	}

	if assertedID != "" && found && assertedID != activeID {
		return "", &apperrors.StaleSessionError{
			LearnerID: event.LearnerID,
			HeldID:    assertedID,
			ActiveID:  activeID,
		}
	}

	sessionID := event.SessionID
	if sessionID == "" {
		sessionID = activeID
	}
	if sessionID == "" {
		sessionID = u.cfg.IDs.NewSessionID()
	}
	if sessionID != activeID {
		if err := u.cfg.Profiles.SetActiveSession(event.LearnerID, sessionID); err != nil {
			return "", fmt.Errorf("failed to set active session: %w", err)
		}
	}
	return sessionID, nil
}

// emitHelp appends the hint_view or explanation_view a surfaced decision
// produces for a help request. Duplicate requests on an already-shown level
// return the prior emission without appending anything.
func (u *tutorEngineUsecase) emitHelp(event *internalEntity.InteractionEvent, state ladder.State, decision policy.Result) (*internalEntity.InteractionEvent, bool, error) {
	if event.EventType != internalEntity.EventHintRequest {
		return nil, false, nil
	}
	if decision.Decision != policy.DecisionShowHint && decision.Decision != policy.DecisionShowExplanation {
		return nil, false, nil
	}

	em := state.RequestHelp()
	if em.Deduped {
		existing := em.Existing
		return &existing, false, nil
	}

	out := &internalEntity.InteractionEvent{
		ID:               u.cfg.IDs.NewEventID(),
		SessionID:        event.SessionID,
		LearnerID:        event.LearnerID,
		Timestamp:        u.cfg.Clock.NowMillis(),
		EventType:        em.EventType,
		ProblemID:        event.ProblemID,
		ErrorSubtypeID:   state.LastErrorSubtypeID,
		HintLevel:        em.HintLevel,
		HelpRequestIndex: em.HelpRequestIndex,
		PolicyVersion:    policy.Version,
	}
	if err := u.cfg.Events.Append(u.cfg.DB, out); err != nil {
		return nil, false, fmt.Errorf("failed to append %s: %w", out.EventType, err)
	}
	return out, true, nil
}

// guidance produces the text behind a surfaced decision. Generation failures
// and a missing provider both degrade to static content; guidance is never
// the reason an append fails.
func (u *tutorEngineUsecase) guidance(ctx context.Context, event *internalEntity.InteractionEvent, state ladder.State, decision policy.Result) *llm.Content {
	switch decision.Decision {
	case policy.DecisionShowHint:
		// show_hint only fires below the cap, so the next level is 1-3.
		level := state.CurrentLevel + 1
		if level > ladder.MaxLevel {
			level = ladder.MaxLevel
		}
		if u.cfg.Content != nil {
			content, err := u.cfg.Content.GenerateHint(ctx, event.ProblemID, state.LastErrorSubtypeID, level)
			if err == nil {
				return &content
			}
			u.logWarn("hint generation failed, using static fallback: %v", err)
		}
		content := llm.StaticFallbackHint(level, state.LastErrorSubtypeID)
		return &content
	case policy.DecisionShowExplanation:
		if u.cfg.Content != nil {
			content, err := u.cfg.Content.GenerateExplanation(ctx, event.ProblemID, state.LastErrorSubtypeID)
			if err == nil {
				return &content
			}
			u.logWarn("explanation generation failed, using static fallback: %v", err)
		}
		content := llm.StaticFallbackExplanation(state.LastErrorSubtypeID)
		return &content
	default:
		return nil
	}
}

func (u *tutorEngineUsecase) logWarn(format string, args ...any) {
	if u.cfg.Log != nil {
		u.cfg.Log.Warnf(format, args...)
	}
}

func (u *tutorEngineUsecase) GetSessionEvents(_ context.Context, sessionID string) ([]internalEntity.InteractionEvent, error) {
	events, err := u.cfg.Events.FindBySessionID(u.cfg.DB, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session events: %w", err)
	}
	return events, nil
}

func (u *tutorEngineUsecase) GetActiveSession(_ context.Context, learnerID string) (*entity.ActiveSessionResponse, error) {
	sessionID, found, err := u.cfg.Profiles.ActiveSession(learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	if !found {
		sessionID = u.cfg.IDs.NewSessionID()
		if err := u.cfg.Profiles.SetActiveSession(learnerID, sessionID); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}
	return &entity.ActiveSessionResponse{LearnerID: learnerID, SessionID: sessionID}, nil
}

func (u *tutorEngineUsecase) GetLadderState(_ context.Context, sessionID, problemID string) (*entity.LadderStateResponse, error) {
	events, err := u.cfg.Events.FindBySessionAndProblem(u.cfg.DB, sessionID, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ladder events: %w", err)
	}
	state := ladder.Derive(events, sessionID, problemID)
	return &entity.LadderStateResponse{State: state, Escalated: state.Escalated()}, nil
}

func (u *tutorEngineUsecase) GetCoverageStats(_ context.Context, learnerID string) (*coverage.Stats, error) {
	profile, err := u.cfg.Profiles.Get(learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learner profile: %w", err)
	}
	if profile == nil {
		// No interactions yet: the stats still cover the full catalog.
		profile = internalEntity.NewLearnerProfile(learnerID, u.defaultStrategy(), u.cfg.Clock.Now())
	}
	stats := u.cfg.Coverage.Stats(profile)
	return &stats, nil
}

func (u *tutorEngineUsecase) UpdateStrategy(_ context.Context, learnerID string, req *entity.UpdateStrategyRequest) (*entity.UpdateStrategyResponse, error) {
	if !policy.ValidName(req.Strategy) {
		return nil, apperrors.NewValidationError(map[string]string{
			"strategy": fmt.Sprintf("%q is not one of %s", req.Strategy, strings.Join(policy.Names(), ", ")),
		})
	}

	profile, err := u.cfg.Profiles.Apply(learnerID, u.defaultStrategy(), u.cfg.Clock.Now(), func(p *internalEntity.LearnerProfile) {
		p.CurrentStrategy = req.Strategy
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update strategy: %w", err)
	}

	return &entity.UpdateStrategyResponse{
		LearnerID: learnerID,
		Strategy:  profile.CurrentStrategy,
		Version:   profile.Version,
	}, nil
}

func (u *tutorEngineUsecase) Replay(_ context.Context, req *entity.ReplayRequest) (*entity.ReplayResponse, error) {
	if req.SessionID == "" && req.LearnerID == "" {
		return nil, apperrors.NewValidationError(map[string]string{
			"session_id": "either session_id or learner_id is required",
		})
	}

	var (
		events []internalEntity.InteractionEvent
		err    error
	)
	if req.SessionID != "" {
		events, err = u.cfg.Events.FindBySessionID(u.cfg.DB, req.SessionID)
	} else {
		events, err = u.cfg.Events.FindByLearnerID(u.cfg.DB, req.LearnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load events for replay: %w", err)
	}

	names := req.Strategies
	if len(names) == 0 && req.Strategy != "" {
		names = []string{req.Strategy}
	}
	if len(names) == 0 {
		names = policy.Names()
	}

	strategies := make([]policy.Strategy, 0, len(names))
	for _, name := range names {
		if !policy.ValidName(name) {
			return nil, apperrors.NewValidationError(map[string]string{
				"strategy": fmt.Sprintf("%q is not one of %s", name, strings.Join(policy.Names(), ", ")),
			})
		}
		strategies = append(strategies, u.strategyFor(name, internalEntity.LearnerPreferences{}))
	}

	return &entity.ReplayResponse{
		EventCount: len(events),
		Traces:     replay.Compare(events, strategies),
	}, nil
}

func (u *tutorEngineUsecase) LearnerReport(ctx context.Context, learnerID string) (*entity.LearnerReport, error) {
	profile, err := u.cfg.Profiles.Get(learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learner profile: %w", err)
	}
	if profile == nil {
		profile = internalEntity.NewLearnerProfile(learnerID, u.defaultStrategy(), u.cfg.Clock.Now())
	}

	events, err := u.cfg.Events.FindByLearnerID(u.cfg.DB, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learner events: %w", err)
	}
	helpViews := 0
	for i := range events {
		if events[i].IsHelpEmission() {
			helpViews++
		}
	}

	stats := u.cfg.Coverage.Stats(profile)
	weak := u.cfg.Coverage.WeakConcepts(profile, 5)

	report := &entity.LearnerReport{
		LearnerID:        learnerID,
		Strategy:         profile.CurrentStrategy,
		InteractionCount: profile.InteractionCount,
		HelpViews:        helpViews,
		Stats:            stats,
		WeakConcepts:     weak,
	}

	if u.cfg.Content != nil {
		narrative, err := u.cfg.Content.GenerateReportNarrative(ctx, buildReportPrompt(learnerID, stats, weak))
		if err != nil {
			u.logWarn("report narrative generation failed: %v", err)
		} else {
			report.Narrative = &narrative
		}
	}
	return report, nil
}

func buildReportPrompt(learnerID string, stats coverage.Stats, weak []coverage.ConceptStat) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Write a short progress narrative for a SQL learner's instructor.

Learner: %s
Concepts covered: %d of %d (%.0f%%)
Average mastery score: %.1f

Weakest concepts:
`, learnerID, stats.CoveredCount, stats.TotalConcepts, stats.CoveragePercentage, stats.AverageScore)
	if len(weak) == 0 {
		b.WriteString("- none with evidence below the mastery threshold\n")
	}
	for _, c := range weak {
		fmt.Fprintf(&b, "- %s: score %d, confidence %s, %d evidence points\n",
			c.ConceptID, c.Score, c.Confidence, c.EvidenceCounts.Total())
	}
	b.WriteString(`
Keep it under 120 words, concrete, and suitable for an instructor dashboard. Plain text only.`)
	return b.String()
}
