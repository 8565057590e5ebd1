package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Score parsing for the "team-opponent" points pair on match requests.
// A score is optional, but when present both halves are required.

var (
	ErrIncompleteScore = errors.New("score requires both team and opponent points")
	ErrInvalidScore    = errors.New("points must be non-negative integers")
)

// ParseScorePair validates a pair of raw point strings. It returns the
// canonical "A-B" representation, or nil when both halves are empty.
func ParseScorePair(teamRaw, opponentRaw string) (*string, error) {
	teamRaw = strings.TrimSpace(teamRaw)
	opponentRaw = strings.TrimSpace(opponentRaw)

	if teamRaw == "" && opponentRaw == "" {
		return nil, nil
	}
	if teamRaw == "" || opponentRaw == "" {
		return nil, ErrIncompleteScore
	}

	team, err := strconv.Atoi(teamRaw)
	if err != nil || team < 0 {
		return nil, ErrInvalidScore
	}
	opponent, err := strconv.Atoi(opponentRaw)
	if err != nil || opponent < 0 {
		return nil, ErrInvalidScore
	}

	s := fmt.Sprintf("%d-%d", team, opponent)
	return &s, nil
}

// SplitScore breaks a canonical "A-B" score into its raw halves. The empty
// string halves round-trip through ParseScorePair as "no score".
func SplitScore(points *string) (teamRaw, opponentRaw string) {
	if points == nil {
		return "", ""
	}
	parts := strings.SplitN(*points, "-", 2)
	teamRaw = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		opponentRaw = strings.TrimSpace(parts[1])
	}
	return teamRaw, opponentRaw
}
