package models

import "time"

// DraftExpiryPayload identifies the draft a scheduled expiry sweep targets.
// StartedAt ties the task to one booking attempt: a later Start replaces the
// draft and the stale task must not clear the new one.
type DraftExpiryPayload struct {
	SessionID string    `json:"sessionId"`
	StartedAt time.Time `json:"startedAt"`
}
