package review

import (
	"sync"
	"time"

	"github.com/davidahmann/agegate/pkg/types"
)

// ClaimRecord tracks the resolution of one review artifact.
type ClaimRecord struct {
	ArtifactID  string
	RequesterID string
	Status      ClaimStatus
	Decision    types.Decision
	ModeratorID string
	UpdatedAt   time.Time
}

// DefaultClaimRetention is how long a resolved record is kept. Held claims
// are never evicted.
const DefaultClaimRetention = 24 * time.Hour

// ClaimStore is the resolution guard shared by the approve and reject paths.
// Claim is a compare-and-set: exactly one caller moves an artifact from
// pending to claimed.
//
// Resolved records are swept once they are older than the retention. By
// then the artifact has lost its controls, which keeps it resolved.
type ClaimStore struct {
	mu        sync.Mutex
	items     map[string]ClaimRecord
	now       func() time.Time
	retention time.Duration
	lastSweep time.Time
}

func NewClaimStore() *ClaimStore {
	return NewClaimStoreWithRetention(DefaultClaimRetention)
}

// NewClaimStoreWithRetention keeps resolved records for retention. A
// non-positive value uses DefaultClaimRetention.
func NewClaimStoreWithRetention(retention time.Duration) *ClaimStore {
	if retention <= 0 {
		retention = DefaultClaimRetention
	}
	return &ClaimStore{items: make(map[string]ClaimRecord), now: time.Now, retention: retention}
}

// Len reports the number of records currently held.
func (s *ClaimStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *ClaimStore) Get(artifactID string) (ClaimRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[artifactID]
	return rec, ok
}

// Claim reserves artifactID for the caller. When it returns false the
// returned record describes the current holder or outcome.
func (s *ClaimStore) Claim(artifactID, requesterID string, decision types.Decision, moderatorID string, controlsRemoved bool) (ClaimRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	rec, ok := s.items[artifactID]
	status := ClaimPending
	if ok {
		status = rec.Status
	}
	if DetermineNextAction(status, controlsRemoved) != ActionResolve {
		if !ok {
			rec = ClaimRecord{ArtifactID: artifactID, RequesterID: requesterID, Status: ClaimPending}
		}
		return rec, false
	}

	rec = ClaimRecord{
		ArtifactID:  artifactID,
		RequesterID: requesterID,
		Status:      ClaimHeld,
		Decision:    decision,
		ModeratorID: moderatorID,
		UpdatedAt:   s.now().UTC(),
	}
	s.items[artifactID] = rec
	return rec, true
}

// Release returns a held claim to pending so the artifact can be acted on
// again. Resolved claims are left alone.
func (s *ClaimStore) Release(artifactID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.items[artifactID]; ok && rec.Status == ClaimHeld {
		delete(s.items, artifactID)
	}
}

// Complete records the outcome of a held claim.
func (s *ClaimStore) Complete(artifactID string) (ClaimRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[artifactID]
	if !ok || rec.Status != ClaimHeld {
		return rec, false
	}
	rec.Status = statusFor(rec.Decision == types.DecisionApprove)
	rec.UpdatedAt = s.now().UTC()
	s.items[artifactID] = rec
	return rec, true
}

// sweep drops resolved records past the retention, at most once per tenth
// of the retention. Callers hold mu.
func (s *ClaimStore) sweep() {
	now := s.now()
	if now.Sub(s.lastSweep) < s.retention/10 {
		return
	}
	s.lastSweep = now

	cutoff := now.Add(-s.retention)
	for id, rec := range s.items {
		if rec.Status != ClaimHeld && rec.UpdatedAt.Before(cutoff) {
			delete(s.items, id)
		}
	}
}
