package services

import (
	"fmt"
	"strings"
	"testing"

	"badminton-ranking-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database for one test. cache=shared
// keeps every connection in the pool on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.MatchRequest{},
		&models.MatchParticipant{},
		&models.Match{},
		&models.MatchPlayer{},
		&models.PlayerRating{},
		&models.RatingHistory{},
		&models.FinalizedMatchEvent{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedPlayers creates one player per username and returns them in order.
func seedPlayers(t *testing.T, db *gorm.DB, usernames ...string) []models.Player {
	t.Helper()

	players := make([]models.Player, len(usernames))
	for i, u := range usernames {
		players[i] = models.Player{
			Email:        u + "@example.com",
			Username:     u,
			PasswordHash: "not-a-real-hash",
		}
		if err := db.Create(&players[i]).Error; err != nil {
			t.Fatalf("seed player %s: %v", u, err)
		}
	}
	return players
}

// newMatchLogService wires the full service stack over one test database.
func newMatchLogService(db *gorm.DB) *MatchLogService {
	return NewMatchLogService(db, NewPlayerService(db), NewRatingService(db))
}
