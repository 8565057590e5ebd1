package models

// Match formats, sides and states are stored as text columns.
const (
	FormatSingles = "SINGLES"
	FormatDoubles = "DOUBLES"

	// Sides are relative to the reporting player's team and carry no
	// meaning outside a single match request.
	SideTeam     = "TEAM"
	SideOpponent = "OPPONENT"

	ResponsePending  = "PENDING"
	ResponseAccepted = "ACCEPTED"
	ResponseRejected = "REJECTED"

	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"

	DecisionAccept = "ACCEPT"
	DecisionReject = "REJECT"
)

// PlayersPerSide returns the per-side roster size for a match format.
func PlayersPerSide(format string) int {
	if format == FormatDoubles {
		return 2
	}
	return 1
}

// ValidFormat reports whether format is a known match format.
func ValidFormat(format string) bool {
	return format == FormatSingles || format == FormatDoubles
}

// ValidSide reports whether side is a known team side.
func ValidSide(side string) bool {
	return side == SideTeam || side == SideOpponent
}

// OtherSide returns the side opposite to the given one.
func OtherSide(side string) string {
	if side == SideTeam {
		return SideOpponent
	}
	return SideTeam
}

// MatchRequest is a proposed match outcome awaiting confirmation from the
// losing side. Status is never written independently: every write happens
// inside the same transaction that mutates a participant response and is
// always the consensus evaluator's output for the rows at that moment.
type MatchRequest struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	MatchName       string  `gorm:"not null" json:"matchName"`
	MatchFormat     string  `gorm:"type:varchar(16);not null" json:"matchFormat"`
	WinnerSide      string  `gorm:"type:varchar(16);not null" json:"winnerSide"`
	Points          *string `json:"points"` // "21-18"; nil = unscored
	CreatedByUserID uint    `gorm:"index;not null" json:"createdByUserId"`
	Status          string  `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	Participants []MatchParticipant `gorm:"foreignKey:MatchRequestID" json:"participants"`

	Timestamps
}

// MatchParticipant ties one player to one side of a match request.
// ResponseState moves one way only: PENDING -> ACCEPTED | REJECTED.
// Username is a denormalized copy taken at creation time.
type MatchParticipant struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	MatchRequestID uint   `gorm:"uniqueIndex:idx_request_user;not null" json:"matchRequestId"`
	UserID         uint   `gorm:"uniqueIndex:idx_request_user;not null" json:"userId"`
	Username       string `gorm:"not null" json:"username"`
	TeamSide       string `gorm:"type:varchar(16);not null" json:"teamSide"`
	ResponseState  string `gorm:"type:varchar(16);not null;default:'PENDING'" json:"responseState"`

	Timestamps
}

// SideUserIDs returns the participant user ids on the given side, in row order.
func (m *MatchRequest) SideUserIDs(side string) []uint {
	var ids []uint
	for _, p := range m.Participants {
		if p.TeamSide == side {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// ParticipantFor returns the participant row for userID, or nil.
func (m *MatchRequest) ParticipantFor(userID uint) *MatchParticipant {
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			return &m.Participants[i]
		}
	}
	return nil
}
