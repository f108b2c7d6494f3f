package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
	"github.com/sqltutor/sqltutor-be/internal/pkg/kvstore"
)

var testTime = time.Unix(1700000000, 0)

// faultyStore fails every Merge with a fixed error while reads keep
// working against the wrapped store.
type faultyStore struct {
	*kvstore.Memory
	mergeErr error
}

func (s *faultyStore) Merge(string, kvstore.Mutator) ([]byte, error) {
	return nil, s.mergeErr
}

func TestProfileCreatedLazilyWithVersionZero(t *testing.T) {
	repo := NewProfileRepository(kvstore.NewMemory())

	p, err := repo.Get("learner-1")
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = repo.GetOrCreate("learner-1", "adaptive-medium", testTime)
	require.NoError(t, err)
	require.Equal(t, "learner-1", p.ID)
	require.Equal(t, "adaptive-medium", p.CurrentStrategy)
	require.Equal(t, int64(0), p.Version)
	require.NotNil(t, p.ConceptCoverageEvidence)
}

func TestApplyIncrementsVersionOncePerCommit(t *testing.T) {
	repo := NewProfileRepository(kvstore.NewMemory())

	p, err := repo.Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 1
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), p.Version)

	p, err = repo.Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 2
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), p.Version)
	require.Equal(t, 2, p.InteractionCount)
}

func TestConcurrentCommitsConvergeOnMax(t *testing.T) {
	repo := NewProfileRepository(kvstore.NewMemory())

	base, err := repo.GetOrCreate("learner-1", "adaptive-medium", testTime)
	require.NoError(t, err)

	// update A commits first
	a, err := repo.Commit("learner-1", "adaptive-medium", base, testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 5
	})
	require.NoError(t, err)
	require.Equal(t, base.Version+1, a.Version)

	// update B was computed from the same base and loses the race
	b, err := repo.Commit("learner-1", "adaptive-medium", base, testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 3
	})
	require.NoError(t, err)

	require.Equal(t, 5, b.InteractionCount)
	require.Equal(t, base.Version+2, b.Version)
}

func TestConflictMergeKeepsNewestEvidencePerConcept(t *testing.T) {
	repo := NewProfileRepository(kvstore.NewMemory())

	base, err := repo.GetOrCreate("learner-1", "adaptive-medium", testTime)
	require.NoError(t, err)

	_, err = repo.Commit("learner-1", "adaptive-medium", base, testTime, func(p *entity.LearnerProfile) {
		p.ConceptCoverageEvidence["sql.joins"] = entity.CoverageEvidence{
			ConceptID: "sql.joins", Score: 40, LastUpdated: 2000,
		}
		p.ConceptCoverageEvidence["sql.filtering"] = entity.CoverageEvidence{
			ConceptID: "sql.filtering", Score: 10, LastUpdated: 2000,
		}
	})
	require.NoError(t, err)

	merged, err := repo.Commit("learner-1", "adaptive-medium", base, testTime, func(p *entity.LearnerProfile) {
		p.ConceptCoverageEvidence["sql.joins"] = entity.CoverageEvidence{
			ConceptID: "sql.joins", Score: 25, LastUpdated: 1000, // older: loses
		}
		p.ConceptCoverageEvidence["sql.ordering"] = entity.CoverageEvidence{
			ConceptID: "sql.ordering", Score: 30, LastUpdated: 3000,
		}
	})
	require.NoError(t, err)

	require.Equal(t, 40, merged.ConceptCoverageEvidence["sql.joins"].Score)
	require.Equal(t, 10, merged.ConceptCoverageEvidence["sql.filtering"].Score)
	require.Equal(t, 30, merged.ConceptCoverageEvidence["sql.ordering"].Score)
}

func TestCorruptedStoredProfileDecodesAsAbsent(t *testing.T) {
	store := kvstore.NewMemory()
	_, err := store.Set("profile:learner-1", []byte("{not json"))
	require.NoError(t, err)

	repo := NewProfileRepository(store)

	p, err := repo.Get("learner-1")
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = repo.GetOrCreate("learner-1", "hint-only", testTime)
	require.NoError(t, err)
	require.Equal(t, "hint-only", p.CurrentStrategy)
	require.Equal(t, int64(0), p.Version)
}

func TestTransientMergeErrorLeavesStoredProfileIntact(t *testing.T) {
	mem := kvstore.NewMemory()

	// seed a committed profile through a healthy repository
	seeded, err := NewProfileRepository(mem).Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 42
	})
	require.NoError(t, err)

	transient := errors.New("kv merge \"profile:learner-1\": disk I/O error")
	repo := NewProfileRepository(&faultyStore{Memory: mem, mergeErr: transient})

	_, err = repo.Commit("learner-1", "adaptive-medium", nil, testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 1
	})
	require.ErrorIs(t, err, transient)
	require.False(t, repo.Degraded())

	// the committed value survived the failed write untouched
	got, err := NewProfileRepository(mem).Get("learner-1")
	require.NoError(t, err)
	require.Equal(t, 42, got.InteractionCount)
	require.Equal(t, seeded.Version, got.Version)
}

func TestMergeConflictSurfacesWithoutDegrading(t *testing.T) {
	mem := kvstore.NewMemory()
	repo := NewProfileRepository(&faultyStore{
		Memory:   mem,
		mergeErr: &apperrors.ConflictError{Key: "profile:learner-1", Attempts: 5},
	})

	_, err := repo.Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 1
	})

	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.False(t, repo.Degraded())

	// nothing was written anywhere for the failed commit
	_, found, err := mem.Get("profile:learner-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestQuotaExhaustionDegradesToMemoryFallback(t *testing.T) {
	store := kvstore.NewMemory()
	store.MaxBytes = 8 // far too small for any profile JSON

	repo := NewProfileRepository(store)
	require.False(t, repo.Degraded())

	p, err := repo.Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 1
	})
	require.NoError(t, err)
	require.Equal(t, 1, p.InteractionCount)
	require.True(t, repo.Degraded())

	// reads and writes keep working against the fallback
	p, err = repo.Apply("learner-1", "adaptive-medium", testTime, func(p *entity.LearnerProfile) {
		p.InteractionCount = 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, p.InteractionCount)

	got, err := repo.Get("learner-1")
	require.NoError(t, err)
	require.Equal(t, 2, got.InteractionCount)
}

func TestActiveSessionPointerRoundTrip(t *testing.T) {
	repo := NewProfileRepository(kvstore.NewMemory())

	_, found, err := repo.ActiveSession("learner-1")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.SetActiveSession("learner-1", "ses-1"))

	id, found, err := repo.ActiveSession("learner-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ses-1", id)

	// pointer replacement is observed by the next read
	require.NoError(t, repo.SetActiveSession("learner-1", "ses-2"))
	id, _, err = repo.ActiveSession("learner-1")
	require.NoError(t, err)
	require.Equal(t, "ses-2", id)
}
