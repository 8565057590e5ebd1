package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"badminton-ranking-system/middleware"
	"badminton-ranking-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Rating parameters (tunable via config later).
const (
	StartingRating = 1200
	eloK           = 32.0
)

// Tier thresholds: rating required to hold a tier.
var tierThresholds = []struct {
	Name   string
	MinRat int
}{
	{"DIAMOND", 1800},
	{"PLATINUM", 1650},
	{"GOLD", 1500},
	{"SILVER", 1400},
	{"BRONZE", 0},
}

// TierFor maps a rating to its tier name.
func TierFor(rating int) string {
	for _, t := range tierThresholds {
		if rating >= t.MinRat {
			return t.Name
		}
	}
	return "BRONZE"
}

// eloDelta is the rating movement for a win, computed from team-average
// ratings. Winners gain the delta, losers lose it; never less than 1 so a
// confirmed match always moves ratings.
func eloDelta(winnerAvg, loserAvg int) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loserAvg-winnerAvg)/400.0))
	d := int(math.Round(eloK * (1.0 - expected)))
	if d < 1 {
		d = 1
	}
	return d
}

// RatingService is the history/rating sink: it consumes finalized-match
// events, writes immutable history rows, applies rating deltas and serves
// the leaderboard and dashboard stats. Application is idempotent on the
// match request id.
type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

// ensureRating fetches-or-creates the rating row for a player (idempotent).
func ensureRating(tx *gorm.DB, userID uint) (*models.PlayerRating, error) {
	var rt models.PlayerRating
	err := lockForUpdate(tx).Where("user_id = ?", userID).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rt = models.PlayerRating{UserID: userID, Rating: StartingRating}
		if err := tx.Create(&rt).Error; err != nil {
			return nil, err
		}
		return &rt, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// DeliverEvent delivers the finalized-match event for one request to the
// sink and marks it delivered. Safe to call repeatedly: an already
// delivered event is a no-op, and application itself dedups on the unique
// history row.
func (r *RatingService) DeliverEvent(matchRequestID uint) error {
	var evt models.FinalizedMatchEvent
	if err := r.DB.Where("match_request_id = ?", matchRequestID).First(&evt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if evt.DeliveredAt != nil {
		return nil
	}

	if err := r.applyFinalizedMatch(evt.MatchRequestID); err != nil {
		r.DB.Model(&evt).Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": err.Error(),
		})
		return err
	}

	now := time.Now()
	return r.DB.Model(&evt).Updates(map[string]interface{}{
		"attempts":     gorm.Expr("attempts + 1"),
		"last_error":   "",
		"delivered_at": &now,
	}).Error
}

// DeliverOutbox sweeps undelivered events, oldest first. This is the
// crash-recovery path: a request flipped to ACCEPTED whose delivery never
// happened is picked up here and applied exactly once.
func (r *RatingService) DeliverOutbox(limit int) {
	var events []models.FinalizedMatchEvent
	if err := r.DB.Where("delivered_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		log.Printf("[rating] outbox scan failed: %v", err)
		return
	}

	for _, evt := range events {
		if err := r.DeliverEvent(evt.MatchRequestID); err != nil {
			log.Printf("[rating] outbox delivery failed for request %d (attempt %d): %v",
				evt.MatchRequestID, evt.Attempts+1, err)
		}
	}
}

// applyFinalizedMatch writes the immutable history record and the rating
// deltas for one ACCEPTED request, in one transaction. The unique index on
// matches.match_request_id makes replays no-ops.
func (r *RatingService) applyFinalizedMatch(matchRequestID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Match
		err := tx.Where("match_request_id = ?", matchRequestID).First(&existing).Error
		if err == nil {
			return nil // already applied
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		req, err := loadRequest(tx, matchRequestID)
		if err != nil {
			return err
		}
		if req.Status != models.StatusAccepted {
			log.Printf("[rating] DEFECT: asked to apply request %d in status %s", matchRequestID, req.Status)
			return fmt.Errorf("%w: request %d is %s, not ACCEPTED", ErrConflict, matchRequestID, req.Status)
		}

		match := models.Match{
			MatchRequestID: req.ID,
			MatchName:      req.MatchName,
			MatchSlug:      slug.Make(req.MatchName),
			MatchFormat:    req.MatchFormat,
			WinnerSide:     req.WinnerSide,
			Points:         req.Points,
			PlayedAt:       req.CreatedAt,
		}
		for _, p := range req.Participants {
			match.Players = append(match.Players, models.MatchPlayer{
				UserID:   p.UserID,
				Username: p.Username,
				TeamSide: p.TeamSide,
				Won:      p.TeamSide == req.WinnerSide,
			})
		}
		if err := tx.Create(&match).Error; err != nil {
			return err
		}

		return applyRatingDeltas(tx, &match, req)
	})
}

func applyRatingDeltas(tx *gorm.DB, match *models.Match, req *models.MatchRequest) error {
	winnerIDs := req.SideUserIDs(req.WinnerSide)
	loserIDs := req.SideUserIDs(models.OtherSide(req.WinnerSide))

	ratings := make(map[uint]*models.PlayerRating, len(winnerIDs)+len(loserIDs))
	sum := func(ids []uint) (int, error) {
		total := 0
		for _, id := range ids {
			rt, err := ensureRating(tx, id)
			if err != nil {
				return 0, err
			}
			ratings[id] = rt
			total += rt.Rating
		}
		return total, nil
	}

	winTotal, err := sum(winnerIDs)
	if err != nil {
		return err
	}
	losTotal, err := sum(loserIDs)
	if err != nil {
		return err
	}

	delta := eloDelta(winTotal/len(winnerIDs), losTotal/len(loserIDs))

	record := func(id uint, change int, won bool) error {
		rt := ratings[id]
		before := rt.Rating
		rt.Rating += change
		rt.MatchesPlayed++
		if won {
			rt.MatchesWon++
		} else {
			rt.MatchesLost++
		}
		if err := tx.Save(rt).Error; err != nil {
			return err
		}
		return tx.Create(&models.RatingHistory{
			UserID:       id,
			MatchID:      match.ID,
			RatingBefore: before,
			RatingAfter:  rt.Rating,
			RatingChange: change,
		}).Error
	}

	for _, id := range winnerIDs {
		if err := record(id, delta, true); err != nil {
			return err
		}
	}
	for _, id := range loserIDs {
		if err := record(id, -delta, false); err != nil {
			return err
		}
	}
	return nil
}

/* ===================== HTTP handlers ===================== */

// LeaderboardRow is one ranked entry.
type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	WinRate  int    `json:"winRate"`
	Tier     string `json:"tier"`
}

// Leaderboard handles GET /api/leaderboard.
func (r *RatingService) Leaderboard(c *fiber.Ctx) error {
	type row struct {
		UserID        uint
		Username      string
		Rating        int
		MatchesWon    int
		MatchesLost   int
		MatchesPlayed int
	}
	var rows []row
	err := r.DB.Model(&models.PlayerRating{}).
		Select("player_ratings.user_id, players.username, player_ratings.rating, player_ratings.matches_won, player_ratings.matches_lost, player_ratings.matches_played").
		Joins("JOIN players ON players.id = player_ratings.user_id").
		Order("player_ratings.rating DESC, players.username ASC").
		Scan(&rows).Error
	if err != nil {
		log.Printf("[rating] leaderboard query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	board := make([]LeaderboardRow, len(rows))
	for i, row := range rows {
		board[i] = LeaderboardRow{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Rating:   row.Rating,
			Wins:     row.MatchesWon,
			Losses:   row.MatchesLost,
			WinRate:  winRate(row.MatchesWon, row.MatchesPlayed),
			Tier:     TierFor(row.Rating),
		}
	}
	return c.JSON(board)
}

// DashboardStats handles GET /api/dashboard/stats.
func (r *RatingService) DashboardStats(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var rt *models.PlayerRating
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var e error
		rt, e = ensureRating(tx, userID)
		return e
	})
	if err != nil {
		log.Printf("[rating] stats lookup failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch stats"})
	}

	var ahead int64
	if err := r.DB.Model(&models.PlayerRating{}).
		Where("rating > ?", rt.Rating).
		Count(&ahead).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute rank"})
	}

	return c.JSON(fiber.Map{
		"rank":          ahead + 1,
		"rating":        rt.Rating,
		"tier":          TierFor(rt.Rating),
		"matchesPlayed": rt.MatchesPlayed,
		"matchesWon":    rt.MatchesWon,
		"matchesLost":   rt.MatchesLost,
		"winRate":       winRate(rt.MatchesWon, rt.MatchesPlayed),
	})
}

func winRate(won, played int) int {
	if played == 0 {
		return 0
	}
	return int(math.Round(100 * float64(won) / float64(played)))
}
