package services

import (
	"badminton-ranking-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PlayerService is the player directory: the roster of valid player ids the
// match workflow resolves participants against.
type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

// FindByIDs loads players for the given ids, keyed by id. Missing ids are
// simply absent from the map; callers decide whether that is an error.
func (s *PlayerService) FindByIDs(ids []uint) (map[uint]models.Player, error) {
	found := make(map[uint]models.Player, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var players []models.Player
	if err := s.DB.Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	for _, p := range players {
		found[p.ID] = p
	}
	return found, nil
}

// ListPlayers returns the full directory for opponent/teammate pickers.
func (s *PlayerService) ListPlayers(c *fiber.Ctx) error {
	var players []models.Player
	if err := s.DB.Order("username ASC").Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch players"})
	}

	type PlayerSummary struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	res := make([]PlayerSummary, len(players))
	for i, p := range players {
		res[i] = PlayerSummary{ID: p.ID, Username: p.Username}
	}
	return c.JSON(res)
}
