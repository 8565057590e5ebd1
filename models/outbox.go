package models

import "time"

// FinalizedMatchEvent is the outbox row bridging the decision processor and
// the rating sink. It is inserted in the same transaction that flips a
// request to ACCEPTED, delivered after commit, and retried by the sweep
// until DeliveredAt is set. The unique MatchRequestID guarantees at most one
// row per request even under concurrent finalization attempts.
type FinalizedMatchEvent struct {
	ID             string     `gorm:"primaryKey" json:"id"` // uuid
	MatchRequestID uint       `gorm:"uniqueIndex;not null" json:"matchRequestId"`
	Attempts       int        `gorm:"not null;default:0" json:"attempts"`
	LastError      string     `json:"lastError,omitempty"`
	DeliveredAt    *time.Time `gorm:"index" json:"deliveredAt,omitempty"`

	Timestamps
}
