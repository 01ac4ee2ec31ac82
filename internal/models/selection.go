package models

import (
	"time"
)

// PendingSelection is a short-lived, single-use record awaiting the owner's
// choice among ranked candidates. It is immutable once created; the candidate
// list and command are snapshots decoupled from the live catalog.
type PendingSelection struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"owner_id"`
	Candidates []RankedCandidate `json:"candidates"`
	Command    ParsedCommand     `json:"command"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// Expired reports whether the selection is past its deadline at now
func (p *PendingSelection) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
