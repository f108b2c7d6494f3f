package entity

import (
	"time"
)

// EventType enumerates the fixed set of learner interaction event kinds.
type EventType string

const (
	EventCodeChange      EventType = "code_change"
	EventExecution       EventType = "execution"
	EventError           EventType = "error"
	EventHintRequest     EventType = "hint_request"
	EventHintView        EventType = "hint_view"
	EventExplanationView EventType = "explanation_view"
	EventTextbookAdd     EventType = "textbook_add"
	EventTextbookUpdate  EventType = "textbook_update"
)

// Valid reports whether t is one of the declared event types.
func (t EventType) Valid() bool {
	switch t {
	case EventCodeChange, EventExecution, EventError, EventHintRequest,
		EventHintView, EventExplanationView, EventTextbookAdd, EventTextbookUpdate:
		return true
	}
	return false
}

// EventTypes lists every valid event type, in declaration order.
func EventTypes() []EventType {
	return []EventType{
		EventCodeChange, EventExecution, EventError, EventHintRequest,
		EventHintView, EventExplanationView, EventTextbookAdd, EventTextbookUpdate,
	}
}

// InteractionEvent - satu kejadian interaksi learner, append-only.
// Rows are never updated or deleted; ordering key is (timestamp, seq).
type InteractionEvent struct {
	Seq              uint      `gorm:"primarykey" json:"-"`
	ID               string    `gorm:"uniqueIndex;size:100;not null" json:"id"`
	SessionID        string    `gorm:"size:100;not null;index" json:"sessionId"`
	LearnerID        string    `gorm:"size:100;not null;index" json:"learnerId"`
	Timestamp        int64     `gorm:"not null;index" json:"timestamp"` // unix millis
	EventType        EventType `gorm:"size:30;not null;index" json:"eventType"`
	ProblemID        string    `gorm:"size:100;index" json:"problemId"`
	ErrorSubtypeID   string    `gorm:"size:100" json:"errorSubtypeId,omitempty"`
	HintLevel        int       `json:"hintLevel,omitempty"`        // 1-3, hint_view only
	HelpRequestIndex int       `json:"helpRequestIndex,omitempty"` // >=1, hint_view / explanation_view
	ConceptIDs       []string  `gorm:"serializer:json;type:text" json:"conceptIds,omitempty"`
	Successful       *bool     `json:"successful,omitempty"` // execution only
	PolicyVersion    string    `gorm:"size:30" json:"policyVersion,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (InteractionEvent) TableName() string {
	return "interaction_events"
}

// IsHelpEmission reports whether the event records surfaced help
// (a hint or an explanation shown to the learner).
func (e *InteractionEvent) IsHelpEmission() bool {
	return e.EventType == EventHintView || e.EventType == EventExplanationView
}
