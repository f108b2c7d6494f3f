package entity

import "time"

// ConfidenceTier - tingkat kepercayaan evidence per konsep.
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// EvidenceCounts tracks how much of each evidence kind a concept has seen.
type EvidenceCounts struct {
	SuccessfulExecution int `json:"successfulExecution"`
	HintViewed          int `json:"hintViewed"`
	ExplanationViewed   int `json:"explanationViewed"`
	ErrorEncountered    int `json:"errorEncountered"`
	NotesAdded          int `json:"notesAdded"`
}

// Total returns the accumulated evidence volume across all kinds.
func (c EvidenceCounts) Total() int {
	return c.SuccessfulExecution + c.HintViewed + c.ExplanationViewed +
		c.ErrorEncountered + c.NotesAdded
}

// Diversity returns how many distinct evidence kinds are non-zero.
func (c EvidenceCounts) Diversity() int {
	n := 0
	for _, v := range []int{
		c.SuccessfulExecution, c.HintViewed, c.ExplanationViewed,
		c.ErrorEncountered, c.NotesAdded,
	} {
		if v > 0 {
			n++
		}
	}
	return n
}

// CoverageEvidence - skor mastery satu konsep untuk satu learner.
// Values are copy-on-write: updates always produce a new CoverageEvidence,
// never mutate one reachable through a shared reference.
type CoverageEvidence struct {
	ConceptID       string         `json:"conceptId"`
	Score           int            `json:"score"` // clamped [0,100]
	Confidence      ConfidenceTier `json:"confidence"`
	EvidenceCounts  EvidenceCounts `json:"evidenceCounts"`
	StreakCorrect   int            `json:"streakCorrect"`
	StreakIncorrect int            `json:"streakIncorrect"`
	LastUpdated     int64          `json:"lastUpdated"` // unix millis
}

// Clone returns an independent copy.
func (e CoverageEvidence) Clone() CoverageEvidence {
	return e // all fields are values; assignment is a deep copy
}

// LearnerPreferences holds per-learner tuning knobs.
type LearnerPreferences struct {
	EscalationThreshold int `json:"escalationThreshold,omitempty"`
	AggregationDelay    int `json:"aggregationDelay,omitempty"`
}

// LearnerProfile - profil satu learner, disimpan sebagai JSON di KV store.
// Version is an optimistic-concurrency counter: it increments exactly once
// per applied mutation.
type LearnerProfile struct {
	ID                      string                      `json:"id"`
	CurrentStrategy         string                      `json:"currentStrategy"`
	ConceptCoverageEvidence map[string]CoverageEvidence `json:"conceptCoverageEvidence"`
	InteractionCount        int                         `json:"interactionCount"`
	Version                 int64                       `json:"version"`
	Preferences             LearnerPreferences          `json:"preferences"`
	CreatedAt               time.Time                   `json:"created_at"`
	UpdatedAt               time.Time                   `json:"updated_at"`
}

// NewLearnerProfile returns a freshly initialized profile for a learner.
// Profiles are created lazily on the first event for a learner.
func NewLearnerProfile(learnerID, strategy string, now time.Time) *LearnerProfile {
	return &LearnerProfile{
		ID:                      learnerID,
		CurrentStrategy:         strategy,
		ConceptCoverageEvidence: make(map[string]CoverageEvidence),
		Version:                 0,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// Clone returns a deep copy of the profile so callers can mutate freely.
func (p *LearnerProfile) Clone() *LearnerProfile {
	cp := *p
	cp.ConceptCoverageEvidence = make(map[string]CoverageEvidence, len(p.ConceptCoverageEvidence))
	for k, v := range p.ConceptCoverageEvidence {
		cp.ConceptCoverageEvidence[k] = v.Clone()
	}
	return &cp
}
