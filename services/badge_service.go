package services

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devchallenge-api/models"
)

// BadgeService seeds the badge catalogue and awards badges when users cross
// win, rating or submission thresholds.
type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

func strPtr(s string) *string { return &s }

// Seed inserts the built-in badge catalogue. Idempotent on badge code.
func (s *BadgeService) Seed() error {
	catalogue := []models.BadgeType{
		{Code: models.BadgeFirstSubmission, Name: "First Steps", Rarity: "COMMON",
			Description: strPtr("Submitted to a challenge"), MinSubmissions: 1},
		{Code: models.BadgeFirstVictory, Name: "First Blood", Rarity: "COMMON",
			Description: strPtr("Won a match"), MinWins: 1},
		{Code: models.BadgeTenVictories, Name: "Veteran", Rarity: "RARE",
			Description: strPtr("Won ten matches"), MinWins: 10},
		{Code: models.BadgeRating1200, Name: "Contender", Rarity: "RARE",
			Description: strPtr("Reached 1200 rating"), MinRating: 1200},
		{Code: models.BadgeRating1500, Name: "Champion", Rarity: "EPIC",
			Description: strPtr("Reached 1500 rating"), MinRating: 1500},
	}
	for i := range catalogue {
		catalogue[i].ID = uuid.NewString()
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&catalogue[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// EvaluateForUser awards any badge whose thresholds the user now satisfies.
// Best-effort: failures are logged, never bubbled into the request path.
func (s *BadgeService) EvaluateForUser(userID string) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return
	}

	var wins, submissions int64
	if err := s.DB.Model(&models.MatchHistory{}).
		Where("winner_id = ?", userID).Count(&wins).Error; err != nil {
		log.Printf("❌ [BADGE] counting wins for %s: %v", userID, err)
		return
	}
	if err := s.DB.Model(&models.Submission{}).
		Where("user_id = ?", userID).Count(&submissions).Error; err != nil {
		log.Printf("❌ [BADGE] counting submissions for %s: %v", userID, err)
		return
	}

	var types []models.BadgeType
	if err := s.DB.Find(&types).Error; err != nil {
		log.Printf("❌ [BADGE] loading catalogue: %v", err)
		return
	}

	for _, bt := range types {
		if bt.MinWins > 0 && wins < int64(bt.MinWins) {
			continue
		}
		if bt.MinRating > 0 && user.EloRating < bt.MinRating {
			continue
		}
		if bt.MinSubmissions > 0 && submissions < int64(bt.MinSubmissions) {
			continue
		}
		award := models.UserBadge{
			ID:          uuid.NewString(),
			UserID:      userID,
			BadgeTypeID: bt.ID,
		}
		res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if res.Error != nil {
			log.Printf("❌ [BADGE] awarding %s to %s: %v", bt.Code, userID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			log.Printf("🏅 [BADGE] %s earned %s", userID, bt.Code)
		}
	}
}

// BadgesForUser returns the user's earned badges with catalogue details.
func (s *BadgeService) BadgesForUser(userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := s.DB.Preload("BadgeType").
		Where("user_id = ?", userID).Order("earned_at DESC").Find(&badges).Error
	return badges, err
}
