package entity

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/coverage"
	"github.com/sqltutor/sqltutor-be/internal/pkg/ladder"
	"github.com/sqltutor/sqltutor-be/internal/pkg/llm"
	"github.com/sqltutor/sqltutor-be/internal/pkg/policy"
	"github.com/sqltutor/sqltutor-be/internal/pkg/replay"
)

// Request untuk append event
type AppendEventRequest struct {
	ID               string   `json:"id"`
	SessionID        string   `json:"sessionId"`
	LearnerID        string   `json:"learnerId" validate:"required"`
	Timestamp        int64    `json:"timestamp"`
	EventType        string   `json:"eventType" validate:"required"`
	ProblemID        string   `json:"problemId"`
	ErrorSubtypeID   string   `json:"errorSubtypeId"`
	HintLevel        int      `json:"hintLevel" validate:"omitempty,min=1,max=3"`
	HelpRequestIndex int      `json:"helpRequestIndex" validate:"omitempty,min=1"`
	ConceptIDs       []string `json:"conceptIds"`
	Successful       *bool    `json:"successful"`
	PolicyVersion    string   `json:"policyVersion"`

	// IfActiveSession asserts the caller's view of the active session.
	// When set and it no longer matches, the append is rejected as stale.
	IfActiveSession string `json:"ifActiveSession,omitempty"`
}

// Response untuk append event
type AppendEventResponse struct {
	Event               *entity.InteractionEvent `json:"event"`
	Emitted             *entity.InteractionEvent `json:"emitted,omitempty"`
	Decision            policy.Result            `json:"decision"`
	Guidance            *llm.Content             `json:"guidance,omitempty"`
	DegradedPersistence bool                     `json:"degraded_persistence,omitempty"`
}

type ActiveSessionResponse struct {
	LearnerID string `json:"learner_id"`
	SessionID string `json:"session_id"`
}

type LadderStateResponse struct {
	State     ladder.State `json:"state"`
	Escalated bool         `json:"escalated"`
}

// Request untuk ganti strategy
type UpdateStrategyRequest struct {
	Strategy string `json:"strategy" validate:"required,oneof=hint-only adaptive-low adaptive-medium adaptive-high"`
}

type UpdateStrategyResponse struct {
	LearnerID string `json:"learner_id"`
	Strategy  string `json:"strategy"`
	Version   int64  `json:"version"`
}

// Request untuk replay decision trace
type ReplayRequest struct {
	LearnerID  string   `json:"learner_id"`
	SessionID  string   `json:"session_id"`
	Strategy   string   `json:"strategy"`
	Strategies []string `json:"strategies"`
}

type ReplayResponse struct {
	EventCount int                            `json:"event_count"`
	Traces     map[string][]replay.TraceEntry `json:"traces"`
}

// Learner report untuk instruktur
type LearnerReport struct {
	LearnerID        string                 `json:"learner_id"`
	Strategy         string                 `json:"strategy"`
	InteractionCount int                    `json:"interaction_count"`
	HelpViews        int                    `json:"help_views"`
	Stats            coverage.Stats         `json:"stats"`
	WeakConcepts     []coverage.ConceptStat `json:"weak_concepts"`
	Narrative        *llm.Content           `json:"narrative,omitempty"`
}
