package services

import (
	"testing"

	"badminton-ranking-system/models"
)

func singlesRequest(winnerSide string) *models.MatchRequest {
	return &models.MatchRequest{
		MatchFormat: models.FormatSingles,
		WinnerSide:  winnerSide,
		Status:      models.StatusPending,
		Participants: []models.MatchParticipant{
			{UserID: 1, TeamSide: models.SideTeam, ResponseState: models.ResponsePending},
			{UserID: 2, TeamSide: models.SideOpponent, ResponseState: models.ResponsePending},
		},
	}
}

func doublesRequest(winnerSide string) *models.MatchRequest {
	return &models.MatchRequest{
		MatchFormat: models.FormatDoubles,
		WinnerSide:  winnerSide,
		Status:      models.StatusPending,
		Participants: []models.MatchParticipant{
			{UserID: 1, TeamSide: models.SideTeam, ResponseState: models.ResponsePending},
			{UserID: 2, TeamSide: models.SideTeam, ResponseState: models.ResponsePending},
			{UserID: 3, TeamSide: models.SideOpponent, ResponseState: models.ResponsePending},
			{UserID: 4, TeamSide: models.SideOpponent, ResponseState: models.ResponsePending},
		},
	}
}

func TestEvaluateConsensusSinglesFlow(t *testing.T) {
	req := singlesRequest(models.SideTeam)

	res := EvaluateConsensus(req)
	if res.Status != models.StatusPending {
		t.Fatalf("fresh request status = %s, want PENDING", res.Status)
	}
	if res.LosingSide != models.SideOpponent {
		t.Fatalf("losing side = %s, want OPPONENT", res.LosingSide)
	}
	if res.CanRespond[1] {
		t.Fatal("winner must never be allowed to respond")
	}
	if !res.CanRespond[2] {
		t.Fatal("pending loser must be allowed to respond")
	}

	req.Participants[1].ResponseState = models.ResponseAccepted
	res = EvaluateConsensus(req)
	if res.Status != models.StatusAccepted {
		t.Fatalf("status after loser accept = %s, want ACCEPTED", res.Status)
	}
	if res.CanRespond[1] || res.CanRespond[2] {
		t.Fatal("nobody may respond on a finalized request")
	}
}

func TestEvaluateConsensusRejectVetoes(t *testing.T) {
	req := singlesRequest(models.SideTeam)
	req.Participants[1].ResponseState = models.ResponseRejected

	res := EvaluateConsensus(req)
	if res.Status != models.StatusRejected {
		t.Fatalf("status after loser reject = %s, want REJECTED", res.Status)
	}
	if res.CanRespond[1] || res.CanRespond[2] {
		t.Fatal("nobody may respond on a rejected request")
	}
}

func TestEvaluateConsensusDoublesNeedsBothLosers(t *testing.T) {
	req := doublesRequest(models.SideTeam)

	req.Participants[2].ResponseState = models.ResponseAccepted
	res := EvaluateConsensus(req)
	if res.Status != models.StatusPending {
		t.Fatalf("status after one of two losers accepted = %s, want PENDING", res.Status)
	}
	if res.CanRespond[3] {
		t.Fatal("a loser who already accepted may not respond again")
	}
	if !res.CanRespond[4] {
		t.Fatal("remaining pending loser must still be able to respond")
	}

	req.Participants[3].ResponseState = models.ResponseAccepted
	res = EvaluateConsensus(req)
	if res.Status != models.StatusAccepted {
		t.Fatalf("status after both losers accepted = %s, want ACCEPTED", res.Status)
	}
}

func TestEvaluateConsensusVetoBeatsAccepts(t *testing.T) {
	req := doublesRequest(models.SideTeam)
	req.Participants[2].ResponseState = models.ResponseAccepted
	req.Participants[3].ResponseState = models.ResponseRejected

	res := EvaluateConsensus(req)
	if res.Status != models.StatusRejected {
		t.Fatalf("status with one accept and one reject = %s, want REJECTED", res.Status)
	}
}

func TestEvaluateConsensusWinnerResponsesNeverCount(t *testing.T) {
	// Winner-side responses should never exist, but if a stray one appears
	// it must not finalize anything.
	req := doublesRequest(models.SideOpponent)
	req.Participants[2].ResponseState = models.ResponseAccepted
	req.Participants[3].ResponseState = models.ResponseAccepted

	res := EvaluateConsensus(req)
	if res.Status != models.StatusPending {
		t.Fatalf("status with only winner-side accepts = %s, want PENDING", res.Status)
	}
	if res.LosingSide != models.SideTeam {
		t.Fatalf("losing side = %s, want TEAM", res.LosingSide)
	}
}
