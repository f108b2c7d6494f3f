// Package replay re-simulates the escalation policy over a recorded event
// log. It answers "what would strategy X have decided at each step" for
// side-effect-free comparison across strategies; it makes no claim about
// what any strategy would have caused the learner to do or learn.
package replay

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/ladder"
	"github.com/sqltutor/sqltutor-be/internal/pkg/policy"
)

// TraceEntry records the policy outcome for one event in a replay.
type TraceEntry struct {
	Index                  int             `json:"index"`
	EventID                string          `json:"eventId"`
	Decision               policy.Decision `json:"decision"`
	RuleFired              string          `json:"ruleFired"`
	Strategy               string          `json:"strategy"`
	Reasoning              string          `json:"reasoning"`
	PolicyVersion          string          `json:"policyVersion"`
	PolicySemanticsVersion string          `json:"policySemanticsVersion"`
}

type pairKey struct {
	sessionID string
	problemID string
}

// Trace replays the policy over events, in the order given, under the named
// strategy. It is a pure function: it reads no clock, keeps no state between
// calls, and never touches the live profile or event log. Identical inputs
// always produce an identical trace.
func Trace(events []entity.InteractionEvent, strategy policy.Strategy) []TraceEntry {
	states := make(map[pairKey]ladder.State)
	errorCounts := make(map[pairKey]int)

	entries := make([]TraceEntry, 0, len(events))
	for i := range events {
		ev := events[i]
		key := pairKey{sessionID: ev.SessionID, problemID: ev.ProblemID}

		state, ok := states[key]
		if !ok {
			state = ladder.Derive(nil, ev.SessionID, ev.ProblemID)
		}

		// Fold the event in first so the decision sees the same state the
		// live pipeline sees: error counts include the triggering error.
		if ev.EventType == entity.EventError {
			errorCounts[key]++
		}
		state = state.Apply(ev)
		states[key] = state

		result := policy.Decide(&ev, state, errorCounts[key], strategy)
		entries = append(entries, TraceEntry{
			Index:                  i,
			EventID:                ev.ID,
			Decision:               result.Decision,
			RuleFired:              result.RuleFired,
			Strategy:               strategy.Name,
			Reasoning:              result.Reasoning,
			PolicyVersion:          policy.Version,
			PolicySemanticsVersion: policy.SemanticsVersion,
		})
	}
	return entries
}

// Compare replays the same log under several strategies, keyed by name.
func Compare(events []entity.InteractionEvent, strategies []policy.Strategy) map[string][]TraceEntry {
	out := make(map[string][]TraceEntry, len(strategies))
	for _, s := range strategies {
		out[s.Name] = Trace(events, s)
	}
	return out
}
