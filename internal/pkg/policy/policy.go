// Package policy decides what guidance, if any, to surface for an
// interaction event: a ladder hint, a full explanation, or nothing.
package policy

import (
	"fmt"

	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/ladder"
)

// Version identifies the parameter table; SemanticsVersion identifies the
// rule ordering itself. Both are recorded on decision traces so stored
// traces stay comparable after a policy change.
const (
	Version          = "policy-v2"
	SemanticsVersion = "2"
)

// Decision is the guidance outcome for one event.
type Decision string

const (
	DecisionShowHint        Decision = "show_hint"
	DecisionShowExplanation Decision = "show_explanation"
	DecisionContinue        Decision = "continue"
	DecisionNoIntervention  Decision = "no_intervention"
)

// Rule identifiers recorded on every decision.
const (
	RuleEscalationThresholdMet = "escalation-threshold-met"
	RuleAutoEscalation         = "auto-escalation-after-hints"
	RuleHintLadderAvailable    = "hint-ladder-available"
	RuleLadderCapped           = "hint-ladder-capped"
	RuleContinue               = "continue"
)

// Result carries the decision plus its provenance.
type Result struct {
	Decision  Decision `json:"decision"`
	RuleFired string   `json:"ruleFired"`
	Reasoning string   `json:"reasoning"`
}

// Decide applies the escalation rules, in order, to a single event.
//
// errorCount is the number of error events recorded for the event's
// (session, problem) pair, including the event itself when it is an error.
// The function is pure: same inputs, same result.
func Decide(event *entity.InteractionEvent, state ladder.State, errorCount int, strategy Strategy) Result {
	switch event.EventType {
	case entity.EventError:
		return decideOnError(state, errorCount, strategy)
	case entity.EventHintRequest:
		return decideOnHelpRequest(state, strategy)
	default:
		return Result{
			Decision:  DecisionContinue,
			RuleFired: RuleContinue,
			Reasoning: fmt.Sprintf("%s event carries no intervention trigger", event.EventType),
		}
	}
}

func decideOnError(state ladder.State, errorCount int, strategy Strategy) Result {
	// Rule 1: strategy error threshold. Disabled thresholds (hint-only)
	// can never fire.
	if strategy.AllowsExplanation() && strategy.EscalateAfterErrors != Never && errorCount >= strategy.EscalateAfterErrors {
		return Result{
			Decision:  DecisionShowExplanation,
			RuleFired: RuleEscalationThresholdMet,
			Reasoning: fmt.Sprintf("%d errors on this problem meets the %s threshold of %d", errorCount, strategy.Name, strategy.EscalateAfterErrors),
		}
	}

	// Rule 3: an error just occurred and the ladder still has hints left.
	if state.CurrentLevel < ladder.MaxLevel {
		return Result{
			Decision:  DecisionShowHint,
			RuleFired: RuleHintLadderAvailable,
			Reasoning: fmt.Sprintf("error with ladder at level %d of %d", state.CurrentLevel, ladder.MaxLevel),
		}
	}

	return Result{
		Decision:  DecisionNoIntervention,
		RuleFired: RuleLadderCapped,
		Reasoning: "ladder exhausted and no explanation rule applies",
	}
}

func decideOnHelpRequest(state ladder.State, strategy Strategy) Result {
	// Rule 2: ladder exhaustion. The 4th request escalates, unless the
	// strategy never explains.
	if state.CurrentLevel >= ladder.MaxLevel {
		if strategy.AllowsExplanation() {
			return Result{
				Decision:  DecisionShowExplanation,
				RuleFired: RuleAutoEscalation,
				Reasoning: "help requested after all 3 hint levels were shown",
			}
		}
		return Result{
			Decision:  DecisionNoIntervention,
			RuleFired: RuleLadderCapped,
			Reasoning: "ladder exhausted; hint-only never escalates to explanations",
		}
	}

	return Result{
		Decision:  DecisionShowHint,
		RuleFired: RuleHintLadderAvailable,
		Reasoning: fmt.Sprintf("help requested with ladder at level %d of %d", state.CurrentLevel, ladder.MaxLevel),
	}
}
