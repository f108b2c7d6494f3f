package repository

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
	"github.com/sqltutor/sqltutor-be/internal/pkg/kvstore"
)

type (
	// ProfileRepository persists learner profiles and the per-learner
	// active-session pointer through the KV storage collaborator.
	ProfileRepository interface {
		Get(learnerID string) (*entity.LearnerProfile, error)
		GetOrCreate(learnerID, defaultStrategy string, now time.Time) (*entity.LearnerProfile, error)
		// Apply reads the current profile and commits mutate's result with
		// optimistic concurrency. Version increments exactly once per
		// successful commit.
		Apply(learnerID, defaultStrategy string, now time.Time, mutate func(p *entity.LearnerProfile)) (*entity.LearnerProfile, error)
		// Commit is Apply against a caller-held snapshot. If the stored
		// version moved past the snapshot's, the local result is reapplied
		// onto the winner with field-level merge rules instead of
		// overwriting it.
		Commit(learnerID, defaultStrategy string, base *entity.LearnerProfile, now time.Time, mutate func(p *entity.LearnerProfile)) (*entity.LearnerProfile, error)

		ActiveSession(learnerID string) (string, bool, error)
		SetActiveSession(learnerID, sessionID string) error

		// Degraded reports whether writes have fallen back to memory after
		// the persistent store signalled quota exhaustion.
		Degraded() bool
	}

	profileRepository struct {
		store    kvstore.Store
		fallback *kvstore.Memory
		degraded atomic.Bool
	}
)

func NewProfileRepository(store kvstore.Store) ProfileRepository {
	return &profileRepository{
		store:    store,
		fallback: kvstore.NewMemory(),
	}
}

func profileKey(learnerID string) string { return "profile:" + learnerID }
func sessionKey(learnerID string) string { return "session:" + learnerID }

// decodeProfile treats unreadable stored state as absent: a corrupted value
// is replaced by a fresh default instead of surfacing a parse error.
func decodeProfile(raw []byte) *entity.LearnerProfile {
	if len(raw) == 0 {
		return nil
	}
	var p entity.LearnerProfile
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" {
		return nil
	}
	if p.ConceptCoverageEvidence == nil {
		p.ConceptCoverageEvidence = make(map[string]entity.CoverageEvidence)
	}
	return &p
}

func (r *profileRepository) activeStore() kvstore.Store {
	if r.degraded.Load() {
		return r.fallback
	}
	return r.store
}

func (r *profileRepository) Get(learnerID string) (*entity.LearnerProfile, error) {
	raw, found, err := r.activeStore().Get(profileKey(learnerID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return decodeProfile(raw), nil
}

func (r *profileRepository) GetOrCreate(learnerID, defaultStrategy string, now time.Time) (*entity.LearnerProfile, error) {
	p, err := r.Get(learnerID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return r.Apply(learnerID, defaultStrategy, now, func(*entity.LearnerProfile) {})
}

func (r *profileRepository) Apply(learnerID, defaultStrategy string, now time.Time, mutate func(p *entity.LearnerProfile)) (*entity.LearnerProfile, error) {
	base, err := r.Get(learnerID)
	if err != nil {
		return nil, err
	}
	return r.Commit(learnerID, defaultStrategy, base, now, mutate)
}

func (r *profileRepository) Commit(learnerID, defaultStrategy string, base *entity.LearnerProfile, now time.Time, mutate func(p *entity.LearnerProfile)) (*entity.LearnerProfile, error) {
	local := entity.NewLearnerProfile(learnerID, defaultStrategy, now)
	baseVersion := int64(-1)
	if base != nil {
		local = base.Clone()
		baseVersion = base.Version
	}
	mutate(local)
	local.UpdatedAt = now

	committed, err := r.merge(profileKey(learnerID), func(currentRaw []byte) ([]byte, error) {
		current := decodeProfile(currentRaw)

		var result *entity.LearnerProfile
		if current == nil || current.Version == baseVersion {
			// Unchanged since our read (or first write): commit as-is.
			result = local.Clone()
			result.Version = baseVersion + 1
		} else {
			// A concurrent writer won; reapply with field-level merge.
			result = mergeProfiles(local, current)
			result.Version = current.Version + 1
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}
	return decodeProfile(committed), nil
}

// merge routes through the active store and degrades to the in-memory
// fallback when the persistent store reports quota exhaustion, so the core
// keeps operating with degraded persistence instead of failing. Quota is
// the only failure that degrades; any other Merge error returns untouched
// and the stored value is never rewritten for it.
func (r *profileRepository) merge(key string, fn kvstore.Mutator) ([]byte, error) {
	out, err := r.activeStore().Merge(key, fn)
	if err == nil {
		return out, nil
	}
	var quotaErr *apperrors.QuotaExceededError
	if !r.degraded.Load() && errors.As(err, &quotaErr) {
		r.degraded.Store(true)
		return r.fallback.Merge(key, fn)
	}
	return nil, err
}

// mergeProfiles reapplies a locally computed profile onto the current
// remote winner. Monotonic counters take the max; per-concept evidence
// takes the most recently updated side; strategy and preferences follow
// the local intent since those edits are explicit user actions.
func mergeProfiles(local, remote *entity.LearnerProfile) *entity.LearnerProfile {
	out := remote.Clone()

	if local.InteractionCount > out.InteractionCount {
		out.InteractionCount = local.InteractionCount
	}
	out.CurrentStrategy = local.CurrentStrategy
	out.Preferences = local.Preferences
	if local.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = local.UpdatedAt
	}

	for conceptID, lev := range local.ConceptCoverageEvidence {
		rev, ok := out.ConceptCoverageEvidence[conceptID]
		if !ok || lev.LastUpdated >= rev.LastUpdated {
			out.ConceptCoverageEvidence[conceptID] = lev.Clone()
		}
	}
	return out
}

func (r *profileRepository) ActiveSession(learnerID string) (string, bool, error) {
	raw, found, err := r.activeStore().Get(sessionKey(learnerID))
	if err != nil || !found {
		return "", false, err
	}
	return string(raw), true, nil
}

func (r *profileRepository) SetActiveSession(learnerID, sessionID string) error {
	res, err := r.activeStore().Set(sessionKey(learnerID), []byte(sessionID))
	if err != nil {
		return err
	}
	if res.QuotaExceeded {
		r.degraded.Store(true)
		_, err = r.fallback.Set(sessionKey(learnerID), []byte(sessionID))
	}
	return err
}

func (r *profileRepository) Degraded() bool {
	return r.degraded.Load()
}
