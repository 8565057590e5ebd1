package models

import "time"

// PlayerRating is the rating-sink-owned state per player (denormalized
// counters for dashboard and leaderboard reads).
type PlayerRating struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	UserID        uint `gorm:"uniqueIndex;not null" json:"userId"`
	Rating        int  `gorm:"not null;default:1200" json:"rating"`
	MatchesPlayed int  `gorm:"not null;default:0" json:"matchesPlayed"`
	MatchesWon    int  `gorm:"not null;default:0" json:"matchesWon"`
	MatchesLost   int  `gorm:"not null;default:0" json:"matchesLost"`

	Timestamps
}

// RatingHistory records one rating delta per player per finalized match.
type RatingHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	MatchID      uint      `gorm:"index;not null" json:"matchId"`
	RatingBefore int       `gorm:"not null" json:"ratingBefore"`
	RatingAfter  int       `gorm:"not null" json:"ratingAfter"`
	RatingChange int       `gorm:"not null" json:"ratingChange"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
