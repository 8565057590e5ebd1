package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"badminton-ranking-system/middleware"
	"badminton-ranking-system/models"
	"badminton-ranking-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchLogService owns the match-result confirmation workflow: creating
// peer-confirmed match requests, serving the per-user inbox and history,
// and applying participant decisions.
type MatchLogService struct {
	DB      *gorm.DB
	Players *PlayerService
	Ratings *RatingService
}

func NewMatchLogService(db *gorm.DB, players *PlayerService, ratings *RatingService) *MatchLogService {
	return &MatchLogService{DB: db, Players: players, Ratings: ratings}
}

// lockForUpdate takes a row lock on engines that support it. SQLite (tests)
// has no row locks; its single-writer transactions already serialize the
// guarded section.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// CreateMatchLogInput is the resolver's input: the creator's claim plus the
// two side rosters.
type CreateMatchLogInput struct {
	MatchName       string
	MatchFormat     string
	WinnerSide      string
	TeamPoints      string
	OpponentPoints  string
	TeamUserIDs     []uint
	OpponentUserIDs []uint
}

// BuildMatchRequest validates and canonicalizes a proposed match into a
// MatchRequest ready for storage, with every participant PENDING. It fails
// with a *ValidationError carrying one of the Reason* sub-reasons; no state
// is touched on any failure path.
func (s *MatchLogService) BuildMatchRequest(creatorID uint, in CreateMatchLogInput) (*models.MatchRequest, error) {
	name := strings.TrimSpace(in.MatchName)
	if name == "" {
		return nil, validationErr(ReasonEmptyMatchName, "Match name is required")
	}

	perSide := models.PlayersPerSide(in.MatchFormat)
	if len(in.TeamUserIDs) != perSide || len(in.OpponentUserIDs) != perSide {
		return nil, validationErr(ReasonWrongPlayerCount,
			fmt.Sprintf("%s needs exactly %d player(s) per side", in.MatchFormat, perSide))
	}

	all := make([]uint, 0, perSide*2)
	all = append(all, in.TeamUserIDs...)
	all = append(all, in.OpponentUserIDs...)

	seen := make(map[uint]bool, len(all))
	for _, id := range all {
		if id == 0 {
			return nil, validationErr(ReasonMissingPlayer, "Every participant must be a valid player")
		}
		if seen[id] {
			return nil, validationErr(ReasonDuplicatePlayer, "Same player cannot be selected more than once")
		}
		seen[id] = true
	}

	creatorSlots := 0
	for _, id := range all {
		if id == creatorID {
			creatorSlots++
		}
	}
	if creatorSlots != 1 {
		return nil, validationErr(ReasonSelfConflict, "You must be on exactly one side of the match")
	}

	points, err := utils.ParseScorePair(in.TeamPoints, in.OpponentPoints)
	if err != nil {
		if errors.Is(err, utils.ErrIncompleteScore) {
			return nil, validationErr(ReasonIncompleteScore, "Enter both team and opponent points, or leave both empty")
		}
		return nil, validationErr(ReasonIncompleteScore, "Points must be non-negative integers")
	}

	players, err := s.Players.FindByIDs(all)
	if err != nil {
		return nil, err
	}
	for _, id := range all {
		if _, ok := players[id]; !ok {
			return nil, validationErr(ReasonMissingPlayer, fmt.Sprintf("Player %d does not exist", id))
		}
	}

	req := &models.MatchRequest{
		MatchName:       name,
		MatchFormat:     in.MatchFormat,
		WinnerSide:      in.WinnerSide,
		Points:          points,
		CreatedByUserID: creatorID,
		Status:          models.StatusPending,
	}
	for _, id := range in.TeamUserIDs {
		req.Participants = append(req.Participants, models.MatchParticipant{
			UserID:        id,
			Username:      players[id].Username,
			TeamSide:      models.SideTeam,
			ResponseState: models.ResponsePending,
		})
	}
	for _, id := range in.OpponentUserIDs {
		req.Participants = append(req.Participants, models.MatchParticipant{
			UserID:        id,
			Username:      players[id].Username,
			TeamSide:      models.SideOpponent,
			ResponseState: models.ResponsePending,
		})
	}
	return req, nil
}

// CreateRequest persists a resolved match request. The resolver's invariants
// are rechecked at write time; a violation here means a bug upstream and
// surfaces as ErrConflict.
func (s *MatchLogService) CreateRequest(req *models.MatchRequest) error {
	if err := checkStoredInvariants(req); err != nil {
		log.Printf("[matchlog] DEFECT: refusing to store invalid match request: %v", err)
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return s.DB.Create(req).Error
}

// checkStoredInvariants enforces the at-rest invariants of a match request.
func checkStoredInvariants(req *models.MatchRequest) error {
	if strings.TrimSpace(req.MatchName) == "" {
		return errors.New("empty match name")
	}
	if !models.ValidFormat(req.MatchFormat) {
		return fmt.Errorf("unknown match format %q", req.MatchFormat)
	}
	if !models.ValidSide(req.WinnerSide) {
		return fmt.Errorf("unknown winner side %q", req.WinnerSide)
	}

	perSide := models.PlayersPerSide(req.MatchFormat)
	if len(req.Participants) != perSide*2 {
		return fmt.Errorf("participant count %d, want %d", len(req.Participants), perSide*2)
	}
	sides := map[string]int{}
	seen := map[uint]bool{}
	creatorPresent := false
	for _, p := range req.Participants {
		if seen[p.UserID] {
			return fmt.Errorf("player %d appears twice", p.UserID)
		}
		seen[p.UserID] = true
		sides[p.TeamSide]++
		if p.UserID == req.CreatedByUserID {
			creatorPresent = true
		}
	}
	if sides[models.SideTeam] != perSide || sides[models.SideOpponent] != perSide {
		return fmt.Errorf("uneven sides %d/%d", sides[models.SideTeam], sides[models.SideOpponent])
	}
	if !creatorPresent {
		return errors.New("creator is not a participant")
	}
	if req.Points != nil {
		teamRaw, oppRaw := utils.SplitScore(req.Points)
		if _, err := utils.ParseScorePair(teamRaw, oppRaw); err != nil {
			return fmt.Errorf("malformed points %q", *req.Points)
		}
	}
	return nil
}

// loadRequest fetches a request and its participant rows inside tx, locking
// the request row so concurrent decisions on the same request serialize.
func loadRequest(tx *gorm.DB, id uint) (*models.MatchRequest, error) {
	var req models.MatchRequest
	if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.Where("match_request_id = ?", id).Order("id ASC").Find(&req.Participants).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// SubmitDecision applies one participant's ACCEPT/REJECT to a match request
// and re-derives its status. On the transition to ACCEPTED it also inserts
// the finalized-match outbox row in the same transaction, so the terminal
// flip and the downstream emission can never diverge.
//
// Observable effects per call: one participant mutation and zero or one
// outbox insert. Duplicate or late calls fail with ErrAlreadyDecided or
// ErrNotEligible without touching anything.
func (s *MatchLogService) SubmitDecision(requestID, userID uint, decision string) (*models.MatchRequest, error) {
	if decision != models.DecisionAccept && decision != models.DecisionReject {
		return nil, validationErr("", "decision must be ACCEPT or REJECT")
	}

	newState := models.ResponseAccepted
	if decision == models.DecisionReject {
		newState = models.ResponseRejected
	}

	var updated *models.MatchRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		req, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.StatusPending {
			return ErrAlreadyDecided
		}

		mine := req.ParticipantFor(userID)
		if mine == nil {
			return ErrNotEligible
		}
		if mine.ResponseState != models.ResponsePending {
			return ErrAlreadyDecided
		}
		if !EvaluateConsensus(req).CanRespond[userID] {
			return ErrNotEligible
		}

		// One-way flip, conditional on the row still being PENDING. A
		// concurrent loser of this race sees zero rows affected.
		flip := tx.Model(&models.MatchParticipant{}).
			Where("match_request_id = ? AND user_id = ? AND response_state = ?",
				requestID, userID, models.ResponsePending).
			Update("response_state", newState)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrAlreadyDecided
		}
		mine.ResponseState = newState

		after := EvaluateConsensus(req)
		if after.Status != models.StatusPending {
			// Compare-and-set: exactly one caller moves the request out of
			// PENDING, so at most one outbox row is ever written.
			cas := tx.Model(&models.MatchRequest{}).
				Where("id = ? AND status = ?", requestID, models.StatusPending).
				Update("status", after.Status)
			if cas.Error != nil {
				return cas.Error
			}
			if cas.RowsAffected == 0 {
				return ErrAlreadyDecided
			}
			req.Status = after.Status

			if after.Status == models.StatusAccepted {
				evt := models.FinalizedMatchEvent{
					ID:             uuid.NewString(),
					MatchRequestID: requestID,
				}
				if err := tx.Create(&evt).Error; err != nil {
					return err
				}
			}
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status == models.StatusAccepted {
		// Best-effort immediate delivery; the outbox sweep retries on
		// failure, and the sink dedups on the request id.
		if err := s.Ratings.DeliverEvent(updated.ID); err != nil {
			log.Printf("[matchlog] finalized match %d not yet delivered to rating sink: %v", updated.ID, err)
		}
	}
	return updated, nil
}

// ListInbox returns every request the user participates in, newest first.
// Each call is a fresh snapshot; there is no cursor state.
func (s *MatchLogService) ListInbox(userID uint) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	err := s.DB.
		Joins("JOIN match_participants mp ON mp.match_request_id = match_requests.id AND mp.user_id = ?", userID).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("match_requests.created_at DESC, match_requests.id DESC").
		Find(&reqs).Error
	return reqs, err
}

// ListHistory is ListInbox filtered to confirmed matches.
func (s *MatchLogService) ListHistory(userID uint) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	err := s.DB.
		Joins("JOIN match_participants mp ON mp.match_request_id = match_requests.id AND mp.user_id = ?", userID).
		Where("match_requests.status = ?", models.StatusAccepted).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("match_requests.created_at DESC, match_requests.id DESC").
		Find(&reqs).Error
	return reqs, err
}

/* ===================== HTTP handlers ===================== */

// ParticipantView is the wire shape of one participant row.
type ParticipantView struct {
	UserID        uint   `json:"userId"`
	Username      string `json:"username"`
	TeamSide      string `json:"teamSide"`
	ResponseState string `json:"responseState"`
}

// InboxRow is the viewer-relative projection of a match request.
type InboxRow struct {
	ID                uint              `json:"id"`
	MatchName         string            `json:"matchName"`
	MatchFormat       string            `json:"matchFormat"`
	WinnerSide        string            `json:"winnerSide"`
	Points            *string           `json:"points"`
	Status            string            `json:"status"`
	CreatedByUserID   uint              `json:"createdByUserId"`
	CreatedByUsername string            `json:"createdByUsername"`
	CreatedAt         time.Time         `json:"createdAt"`
	CanRespond        bool              `json:"canRespond"`
	Participants      []ParticipantView `json:"participants"`
}

func inboxRow(req *models.MatchRequest, viewerID uint) InboxRow {
	res := EvaluateConsensus(req)
	row := InboxRow{
		ID:              req.ID,
		MatchName:       req.MatchName,
		MatchFormat:     req.MatchFormat,
		WinnerSide:      req.WinnerSide,
		Points:          req.Points,
		Status:          res.Status,
		CreatedByUserID: req.CreatedByUserID,
		CreatedAt:       req.CreatedAt,
		CanRespond:      res.CanRespond[viewerID],
	}
	for _, p := range req.Participants {
		if p.UserID == req.CreatedByUserID {
			row.CreatedByUsername = p.Username
		}
		row.Participants = append(row.Participants, ParticipantView{
			UserID:        p.UserID,
			Username:      p.Username,
			TeamSide:      p.TeamSide,
			ResponseState: p.ResponseState,
		})
	}
	return row
}

// CreateMatchLog handles POST /api/match-logs.
func (s *MatchLogService) CreateMatchLog(c *fiber.Ctx) error {
	type Req struct {
		MatchName       string  `json:"matchName"`
		MatchFormat     string  `json:"matchFormat"`
		WinnerSide      string  `json:"winnerSide"`
		Points          *string `json:"points"`
		TeamPoints      string  `json:"teamPoints"`
		OpponentPoints  string  `json:"opponentPoints"`
		TeamUserIDs     []uint  `json:"teamUserIds"`
		OpponentUserIDs []uint  `json:"opponentUserIds"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if !models.ValidFormat(req.MatchFormat) {
		return c.Status(400).JSON(fiber.Map{"error": "matchFormat must be SINGLES or DOUBLES"})
	}
	if !models.ValidSide(req.WinnerSide) {
		return c.Status(400).JSON(fiber.Map{"error": "winnerSide must be TEAM or OPPONENT"})
	}

	teamPts, oppPts := req.TeamPoints, req.OpponentPoints
	if req.Points != nil && *req.Points != "" {
		// The web client sends the pair pre-joined as "team-opponent".
		teamPts, oppPts = utils.SplitScore(req.Points)
	}

	viewerID := middleware.UserID(c)
	built, err := s.BuildMatchRequest(viewerID, CreateMatchLogInput{
		MatchName:       req.MatchName,
		MatchFormat:     req.MatchFormat,
		WinnerSide:      req.WinnerSide,
		TeamPoints:      teamPts,
		OpponentPoints:  oppPts,
		TeamUserIDs:     req.TeamUserIDs,
		OpponentUserIDs: req.OpponentUserIDs,
	})
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			return c.Status(400).JSON(fiber.Map{"error": ve.Message, "reason": ve.Reason})
		}
		log.Printf("[matchlog] resolve failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to resolve participants"})
	}

	if err := s.CreateRequest(built); err != nil {
		if errors.Is(err, ErrConflict) {
			return c.Status(500).JSON(fiber.Map{"error": "match request rejected by storage invariants"})
		}
		log.Printf("[matchlog] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create match request"})
	}

	return c.Status(201).JSON(inboxRow(built, viewerID))
}

// GetInbox handles GET /api/match-logs/inbox.
func (s *MatchLogService) GetInbox(c *fiber.Ctx) error {
	viewerID := middleware.UserID(c)
	reqs, err := s.ListInbox(viewerID)
	if err != nil {
		log.Printf("[matchlog] inbox query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch match requests"})
	}

	rows := make([]InboxRow, len(reqs))
	for i := range reqs {
		rows[i] = inboxRow(&reqs[i], viewerID)
	}
	return c.JSON(rows)
}

// GetHistory handles GET /api/match-logs/history.
func (s *MatchLogService) GetHistory(c *fiber.Ctx) error {
	type HistoryRow struct {
		ID                uint      `json:"id"`
		MatchName         string    `json:"matchName"`
		MatchFormat       string    `json:"matchFormat"`
		WinnerSide        string    `json:"winnerSide"`
		Points            *string   `json:"points"`
		CreatedAt         time.Time `json:"createdAt"`
		UserTeamSide      string    `json:"userTeamSide"`
		TeamUsernames     []string  `json:"teamUsernames"`
		OpponentUsernames []string  `json:"opponentUsernames"`
		UserWon           bool      `json:"userWon"`
	}

	viewerID := middleware.UserID(c)
	reqs, err := s.ListHistory(viewerID)
	if err != nil {
		log.Printf("[matchlog] history query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch match history"})
	}

	rows := make([]HistoryRow, 0, len(reqs))
	for i := range reqs {
		req := &reqs[i]
		row := HistoryRow{
			ID:          req.ID,
			MatchName:   req.MatchName,
			MatchFormat: req.MatchFormat,
			WinnerSide:  req.WinnerSide,
			Points:      req.Points,
			CreatedAt:   req.CreatedAt,
		}
		for _, p := range req.Participants {
			if p.TeamSide == models.SideTeam {
				row.TeamUsernames = append(row.TeamUsernames, p.Username)
			} else {
				row.OpponentUsernames = append(row.OpponentUsernames, p.Username)
			}
			if p.UserID == viewerID {
				row.UserTeamSide = p.TeamSide
			}
		}
		row.UserWon = row.UserTeamSide == req.WinnerSide
		rows = append(rows, row)
	}
	return c.JSON(rows)
}

// SubmitDecisionHandler handles POST /api/match-logs/:id/decision.
func (s *MatchLogService) SubmitDecisionHandler(c *fiber.Ctx) error {
	requestID, err := c.ParamsInt("id")
	if err != nil || requestID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid match request id"})
	}

	type Req struct {
		Decision string `json:"decision"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	viewerID := middleware.UserID(c)
	updated, err := s.SubmitDecision(uint(requestID), viewerID, req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "match request not found"})
		case errors.Is(err, ErrAlreadyDecided):
			return c.Status(409).JSON(fiber.Map{"error": "decision already recorded"})
		case errors.Is(err, ErrNotEligible):
			return c.Status(403).JSON(fiber.Map{"error": "you cannot respond to this match request"})
		default:
			if ve, ok := AsValidationError(err); ok {
				return c.Status(400).JSON(fiber.Map{"error": ve.Message})
			}
			log.Printf("[matchlog] decision failed for request %d: %v", requestID, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to record decision"})
		}
	}

	return c.JSON(inboxRow(updated, viewerID))
}
