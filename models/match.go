package models

import "time"

// Match is the immutable history record created exactly once per ACCEPTED
// match request. MatchRequestID carries a unique index and doubles as the
// dedup key for the rating sink, so replayed finalization events are no-ops.
type Match struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	MatchRequestID uint    `gorm:"uniqueIndex;not null" json:"matchRequestId"`
	MatchName      string  `gorm:"not null" json:"matchName"`
	MatchSlug      string  `gorm:"index" json:"matchSlug"`
	MatchFormat    string  `gorm:"type:varchar(16);not null" json:"matchFormat"`
	WinnerSide     string  `gorm:"type:varchar(16);not null" json:"winnerSide"`
	Points         *string `json:"points"`
	PlayedAt       time.Time `json:"playedAt"` // creation time of the underlying request

	Players []MatchPlayer `gorm:"foreignKey:MatchID" json:"players"`

	Timestamps
}

// MatchPlayer is one player's slot in a finalized match.
type MatchPlayer struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	MatchID  uint   `gorm:"index;not null" json:"matchId"`
	UserID   uint   `gorm:"index;not null" json:"userId"`
	Username string `gorm:"not null" json:"username"`
	TeamSide string `gorm:"type:varchar(16);not null" json:"teamSide"`
	Won      bool   `json:"won"`
}
