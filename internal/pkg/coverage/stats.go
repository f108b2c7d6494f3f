package coverage

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
)

// ConceptStat is one concept's line in a coverage report.
type ConceptStat struct {
	ConceptID      string                `json:"conceptId"`
	Score          int                   `json:"score"`
	Confidence     entity.ConfidenceTier `json:"confidence"`
	Covered        bool                  `json:"covered"`
	EvidenceCounts entity.EvidenceCounts `json:"evidenceCounts"`
}

// Stats summarizes a learner's coverage over the full fixed concept set.
type Stats struct {
	TotalConcepts      int           `json:"totalConcepts"`
	CoveredCount       int           `json:"coveredCount"`
	CoveragePercentage float64       `json:"coveragePercentage"`
	AverageScore       float64       `json:"averageScore"`
	Concepts           []ConceptStat `json:"concepts"`
}

// Stats iterates the full catalog, not just concepts with evidence.
// Absent concepts count as score 0, low confidence.
func (e *Engine) Stats(profile *entity.LearnerProfile) Stats {
	catalog := e.mapper.Catalog()
	out := Stats{
		TotalConcepts: len(catalog),
		Concepts:      make([]ConceptStat, 0, len(catalog)),
	}

	scoreSum := 0
	for _, conceptID := range catalog {
		stat := ConceptStat{ConceptID: conceptID, Confidence: entity.ConfidenceLow}
		if ev, ok := profile.ConceptCoverageEvidence[conceptID]; ok {
			stat.Score = ev.Score
			stat.Confidence = ev.Confidence
			stat.EvidenceCounts = ev.EvidenceCounts
		}
		stat.Covered = stat.Score >= MasteryThreshold
		if stat.Covered {
			out.CoveredCount++
		}
		scoreSum += stat.Score
		out.Concepts = append(out.Concepts, stat)
	}

	if out.TotalConcepts > 0 {
		out.CoveragePercentage = float64(out.CoveredCount) / float64(out.TotalConcepts) * 100
		out.AverageScore = float64(scoreSum) / float64(out.TotalConcepts)
	}
	return out
}

// WeakConcepts returns the concepts below the mastery threshold that have
// at least some evidence, weakest first. Used by the instructor report.
func (e *Engine) WeakConcepts(profile *entity.LearnerProfile, limit int) []ConceptStat {
	stats := e.Stats(profile)
	weak := make([]ConceptStat, 0)
	for _, c := range stats.Concepts {
		if !c.Covered && c.EvidenceCounts.Total() > 0 {
			weak = append(weak, c)
		}
	}
	// insertion sort by score ascending; the catalog is small
	for i := 1; i < len(weak); i++ {
		for j := i; j > 0 && weak[j].Score < weak[j-1].Score; j-- {
			weak[j], weak[j-1] = weak[j-1], weak[j]
		}
	}
	if limit > 0 && len(weak) > limit {
		weak = weak[:limit]
	}
	return weak
}
