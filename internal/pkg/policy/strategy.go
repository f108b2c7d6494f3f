package policy

import "math"

// Never disables a threshold: the rule that reads it can never fire.
const Never = math.MaxInt

// Strategy names, fixed set.
const (
	StrategyHintOnly       = "hint-only"
	StrategyAdaptiveLow    = "adaptive-low"
	StrategyAdaptiveMedium = "adaptive-medium"
	StrategyAdaptiveHigh   = "adaptive-high"
)

// Strategy parameterizes the escalation policy with two thresholds.
type Strategy struct {
	Name                 string `json:"name"`
	EscalateAfterErrors  int    `json:"escalateAfterErrors"`
	AggregateAfterErrors int    `json:"aggregateAfterErrors"`
}

// AllowsExplanation reports whether this strategy may ever surface a full
// explanation. hint-only must never do so, through any rule.
func (s Strategy) AllowsExplanation() bool {
	return s.Name != StrategyHintOnly
}

var strategies = map[string]Strategy{
	StrategyHintOnly:       {Name: StrategyHintOnly, EscalateAfterErrors: Never, AggregateAfterErrors: Never},
	StrategyAdaptiveLow:    {Name: StrategyAdaptiveLow, EscalateAfterErrors: 5, AggregateAfterErrors: 10},
	StrategyAdaptiveMedium: {Name: StrategyAdaptiveMedium, EscalateAfterErrors: 3, AggregateAfterErrors: 6},
	StrategyAdaptiveHigh:   {Name: StrategyAdaptiveHigh, EscalateAfterErrors: 2, AggregateAfterErrors: 4},
}

// ByName resolves a strategy by its name. Unknown names fall back to
// hint-only, the least intrusive strategy.
func ByName(name string) Strategy {
	if s, ok := strategies[name]; ok {
		return s
	}
	return strategies[StrategyHintOnly]
}

// ValidName reports whether name is a declared strategy.
func ValidName(name string) bool {
	_, ok := strategies[name]
	return ok
}

// Names lists the declared strategy names.
func Names() []string {
	return []string{StrategyHintOnly, StrategyAdaptiveLow, StrategyAdaptiveMedium, StrategyAdaptiveHigh}
}
