// Package ladder implements the 3-level hint ladder state machine, keyed
// per (session, problem). State is ephemeral: it is derived from the
// append-only event log on demand, never trusted from a long-lived cache,
// so a session change is always observed on the next read.
package ladder

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
)

// MaxLevel is the deepest hint level before a further request escalates.
const MaxLevel = 3

// State is the derived ladder position for one (session, problem) pair.
// Level 0 is idle; levels 1-3 mean that hint level was already shown.
type State struct {
	SessionID            string `json:"sessionId"`
	ProblemID            string `json:"problemId"`
	CurrentLevel         int    `json:"currentLevel"` // 0-3
	NextHelpRequestIndex int    `json:"nextHelpRequestIndex"`
	LastErrorSubtypeID   string `json:"lastErrorSubtypeId,omitempty"`

	// shownLevels dedupes rapid duplicate requests on the
	// (session, problem, level) idempotency key.
	shownLevels map[int]entity.InteractionEvent
}

// Emission is what a help request produces: either a hint_view at the next
// level, or an explanation_view once the ladder is exhausted.
type Emission struct {
	EventType        entity.EventType
	HintLevel        int // set for hint_view only
	HelpRequestIndex int
	// Deduped marks a duplicate request; Existing holds the event that
	// already covered it and nothing new must be appended.
	Deduped  bool
	Existing entity.InteractionEvent
}

// Derive rebuilds ladder state for (sessionID, problemID) from the ordered
// event log. Events outside the pair are ignored, so repeated errors on the
// same problem never reset the ladder, while a problem change or a new
// session naturally yields a fresh Idle state.
func Derive(events []entity.InteractionEvent, sessionID, problemID string) State {
	st := State{
		SessionID:            sessionID,
		ProblemID:            problemID,
		NextHelpRequestIndex: 1,
		shownLevels:          make(map[int]entity.InteractionEvent),
	}
	for _, ev := range events {
		if ev.SessionID != sessionID || ev.ProblemID != problemID {
			continue
		}
		switch ev.EventType {
		case entity.EventError:
			st.LastErrorSubtypeID = ev.ErrorSubtypeID
		case entity.EventHintView:
			if ev.HintLevel > st.CurrentLevel {
				st.CurrentLevel = ev.HintLevel
			}
			st.shownLevels[ev.HintLevel] = ev
			if ev.HelpRequestIndex >= st.NextHelpRequestIndex {
				st.NextHelpRequestIndex = ev.HelpRequestIndex + 1
			}
		case entity.EventExplanationView:
			st.CurrentLevel = MaxLevel
			if ev.HelpRequestIndex >= st.NextHelpRequestIndex {
				st.NextHelpRequestIndex = ev.HelpRequestIndex + 1
			}
		}
	}
	return st
}

// HasErrorContext reports whether an error was seen on this pair.
func (s State) HasErrorContext() bool {
	return s.LastErrorSubtypeID != ""
}

// Escalated reports whether the ladder has been exhausted: every hint level
// shown and at least one further request arrived.
func (s State) Escalated() bool {
	return s.CurrentLevel >= MaxLevel && s.NextHelpRequestIndex > MaxLevel+1
}

// RequestHelp advances the ladder for one help request and returns the
// event to emit. It never emits two events with the same helpRequestIndex:
// a request that targets an already-shown level is answered with the prior
// emission instead.
func (s State) RequestHelp() Emission {
	if s.CurrentLevel < MaxLevel {
		target := s.CurrentLevel + 1
		if prior, ok := s.shownLevels[target]; ok {
			return Emission{
				EventType:        entity.EventHintView,
				HintLevel:        target,
				HelpRequestIndex: prior.HelpRequestIndex,
				Deduped:          true,
				Existing:         prior,
			}
		}
		return Emission{
			EventType:        entity.EventHintView,
			HintLevel:        target,
			HelpRequestIndex: s.NextHelpRequestIndex,
		}
	}

	// Ladder exhausted: the 4th and later requests escalate. Three hints
	// consumed indices 1-3, so the index here is always >= 4.
	return Emission{
		EventType:        entity.EventExplanationView,
		HelpRequestIndex: s.NextHelpRequestIndex,
	}
}

// Apply folds a freshly emitted event into the state, returning the next
// state. The receiver is unchanged.
func (s State) Apply(ev entity.InteractionEvent) State {
	next := s
	next.shownLevels = make(map[int]entity.InteractionEvent, len(s.shownLevels)+1)
	for k, v := range s.shownLevels {
		next.shownLevels[k] = v
	}
	switch ev.EventType {
	case entity.EventError:
		next.LastErrorSubtypeID = ev.ErrorSubtypeID
	case entity.EventHintView:
		if ev.HintLevel > next.CurrentLevel {
			next.CurrentLevel = ev.HintLevel
		}
		next.shownLevels[ev.HintLevel] = ev
		if ev.HelpRequestIndex >= next.NextHelpRequestIndex {
			next.NextHelpRequestIndex = ev.HelpRequestIndex + 1
		}
	case entity.EventExplanationView:
		next.CurrentLevel = MaxLevel
		if ev.HelpRequestIndex >= next.NextHelpRequestIndex {
			next.NextHelpRequestIndex = ev.HelpRequestIndex + 1
		}
	}
	return next
}
