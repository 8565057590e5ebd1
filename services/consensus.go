package services

import "badminton-ranking-system/models"

// ConsensusResult is the derived state of a match request: its overall
// status and, per participant, whether that participant may respond now.
type ConsensusResult struct {
	Status     string
	LosingSide string
	CanRespond map[uint]bool
}

// EvaluateConsensus derives the overall status of a match request from its
// participant responses. Pure function, no I/O.
//
// Only the losing side votes: any single REJECTED response vetoes the
// request outright, and unanimous losing-side acceptance finalizes it.
// Winning-side responses never count and winning-side participants can
// never respond, so a reporter cannot approve their own claim.
func EvaluateConsensus(req *models.MatchRequest) ConsensusResult {
	losingSide := models.OtherSide(req.WinnerSide)

	status := models.StatusAccepted
	vetoed := false
	for _, p := range req.Participants {
		if p.ResponseState == models.ResponseRejected {
			vetoed = true
		}
		if p.TeamSide == losingSide && p.ResponseState != models.ResponseAccepted {
			status = models.StatusPending
		}
	}
	if vetoed {
		status = models.StatusRejected
	}

	can := make(map[uint]bool, len(req.Participants))
	for _, p := range req.Participants {
		can[p.UserID] = status == models.StatusPending &&
			p.TeamSide == losingSide &&
			p.ResponseState == models.ResponsePending
	}

	return ConsensusResult{Status: status, LosingSide: losingSide, CanRespond: can}
}
