package reservation

import (
	"sync"
	"time"

	"bodima/models"
)

// draftStore keeps the in-flight drafts, one per session. Drafts live only
// in process memory: the backend owns the reservation once created, and an
// abandoned draft is simply swept by its expiry task.
//
// The store owns the canonical record. Callers only ever see copies and all
// mutation happens under the lock, so concurrent requests for the same
// session (the UI validating while the user edits dates) cannot race on the
// record's fields.
type draftStore struct {
	mu     sync.RWMutex
	drafts map[string]*models.PendingReservation
}

func newDraftStore() draftStore {
	return draftStore{drafts: make(map[string]*models.PendingReservation)}
}

// put replaces any existing draft for the session. The store takes ownership
// of the record; callers must not retain the pointer.
func (s *draftStore) put(sessionID string, draft *models.PendingReservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[sessionID] = draft
}

// snapshot returns a copy of the session's draft.
func (s *draftStore) snapshot(sessionID string) (*models.PendingReservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[sessionID]
	if !ok {
		return nil, false
	}
	return cloneDraft(draft), true
}

// update applies mutate to the session's draft under the lock and returns a
// copy of the result.
func (s *draftStore) update(sessionID string, mutate func(*models.PendingReservation)) (*models.PendingReservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[sessionID]
	if !ok {
		return nil, false
	}
	mutate(draft)
	return cloneDraft(draft), true
}

// remove deletes the session's draft and reports whether one existed.
func (s *draftStore) remove(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[sessionID]; !ok {
		return false
	}
	delete(s.drafts, sessionID)
	return true
}

// removeIfStartedAt clears the draft only when it belongs to the booking
// attempt created at startedAt.
func (s *draftStore) removeIfStartedAt(sessionID string, startedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[sessionID]
	if !ok || !draft.CreatedAt.Equal(startedAt) {
		return false
	}
	delete(s.drafts, sessionID)
	return true
}

func cloneDraft(draft *models.PendingReservation) *models.PendingReservation {
	clone := *draft
	if draft.PaymentMethod != nil {
		method := *draft.PaymentMethod
		clone.PaymentMethod = &method
	}
	if draft.Features.Amenities != nil {
		clone.Features.Amenities = append([]string(nil), draft.Features.Amenities...)
	}
	return &clone
}
