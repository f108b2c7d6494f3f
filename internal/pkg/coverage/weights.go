package coverage

import "github.com/spf13/viper"

// Weights are the per-signal score deltas and streak adjustments.
// The exact magnitudes are configuration; only the sign of each factor,
// the [0,100] clamp and the streak-bonus ordering are load-bearing.
type Weights struct {
	SuccessfulExecution int `json:"successfulExecution"` // strong positive
	HintViewed          int `json:"hintViewed"`          // weak positive
	ExplanationViewed   int `json:"explanationViewed"`   // weak positive
	NotesAdded          int `json:"notesAdded"`          // weak positive
	ErrorEncountered    int `json:"errorEncountered"`    // penalty, applied negative

	StreakBonusLong     int `json:"streakBonusLong"`  // >=3 consecutive correct
	StreakBonusShort    int `json:"streakBonusShort"` // exactly 2 consecutive correct
	StreakPenaltyLong   int `json:"streakPenaltyLong"` // >=3 consecutive incorrect
	StreakBonusMinRun   int `json:"streakBonusMinRun"`
	StreakPenaltyMinRun int `json:"streakPenaltyMinRun"`
}

// ConfidenceThresholds derive the low/medium/high tier from evidence
// volume and diversity, independent of score.
type ConfidenceThresholds struct {
	MediumVolume    int `json:"mediumVolume"`
	MediumDiversity int `json:"mediumDiversity"`
	HighVolume      int `json:"highVolume"`
	HighDiversity   int `json:"highDiversity"`
}

// DefaultWeights returns the compiled-in signal weights.
func DefaultWeights() Weights {
	return Weights{
		SuccessfulExecution: 15,
		HintViewed:          3,
		ExplanationViewed:   5,
		NotesAdded:          2,
		ErrorEncountered:    5,
		StreakBonusLong:     5,
		StreakBonusShort:    2,
		StreakPenaltyLong:   5,
		StreakBonusMinRun:   3,
		StreakPenaltyMinRun: 3,
	}
}

// DefaultConfidenceThresholds returns the compiled-in tier thresholds.
func DefaultConfidenceThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{
		MediumVolume:    4,
		MediumDiversity: 2,
		HighVolume:      10,
		HighDiversity:   3,
	}
}

// WeightsFromConfig reads weights from viper, falling back to defaults for
// any key that is absent.
func WeightsFromConfig(config *viper.Viper) Weights {
	w := DefaultWeights()
	if config == nil {
		return w
	}
	read := func(key string, dst *int) {
		if config.IsSet(key) {
			*dst = config.GetInt(key)
		}
	}
	read("coverage.weights.successful_execution", &w.SuccessfulExecution)
	read("coverage.weights.hint_viewed", &w.HintViewed)
	read("coverage.weights.explanation_viewed", &w.ExplanationViewed)
	read("coverage.weights.notes_added", &w.NotesAdded)
	read("coverage.weights.error_encountered", &w.ErrorEncountered)
	read("coverage.weights.streak_bonus_long", &w.StreakBonusLong)
	read("coverage.weights.streak_bonus_short", &w.StreakBonusShort)
	read("coverage.weights.streak_penalty_long", &w.StreakPenaltyLong)
	return w
}

// ThresholdsFromConfig reads confidence thresholds from viper with defaults.
func ThresholdsFromConfig(config *viper.Viper) ConfidenceThresholds {
	t := DefaultConfidenceThresholds()
	if config == nil {
		return t
	}
	read := func(key string, dst *int) {
		if config.IsSet(key) {
			*dst = config.GetInt(key)
		}
	}
	read("coverage.confidence.medium_volume", &t.MediumVolume)
	read("coverage.confidence.medium_diversity", &t.MediumDiversity)
	read("coverage.confidence.high_volume", &t.HighVolume)
	read("coverage.confidence.high_diversity", &t.HighDiversity)
	return t
}
