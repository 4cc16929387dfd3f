package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devchallenge-api/models"
)

// UserService serves user profiles and the upsert path used by the account
// sync worker.
type UserService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewUserService(db *gorm.DB, badges *BadgeService) *UserService {
	return &UserService{DB: db, Badges: badges}
}

// Upsert mirrors an account from the auth gateway. Competition state
// (rating, level, counters) is never overwritten on conflict.
func (s *UserService) Upsert(user *models.User) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "avatar_url", "bio"}),
	}).Create(user).Error
}

// GetHandler handles GET /api/users/:id.
func (s *UserService) GetHandler(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: user %s", ErrNotFound, c.Params("id")))
		}
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ProfileHandler handles GET /api/users/:id/profile: the user with their
// submissions, recent matches, computed win record and earned badges.
func (s *UserService) ProfileHandler(c *fiber.Ctx) error {
	userID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: user %s", ErrNotFound, userID))
		}
		return respondError(c, err)
	}

	var submissions []models.Submission
	if err := s.DB.Preload("Challenge").Where("user_id = ?", userID).
		Order("submitted_at DESC").Limit(20).Find(&submissions).Error; err != nil {
		return respondError(c, err)
	}

	var matches []models.MatchHistory
	if err := s.DB.Where("winner_id = ? OR loser_id = ?", userID, userID).
		Order("completed_at DESC").Limit(20).Find(&matches).Error; err != nil {
		return respondError(c, err)
	}

	var wins, losses int64
	if err := s.DB.Model(&models.MatchHistory{}).
		Where("winner_id = ?", userID).Count(&wins).Error; err != nil {
		return respondError(c, err)
	}
	if err := s.DB.Model(&models.MatchHistory{}).
		Where("loser_id = ?", userID).Count(&losses).Error; err != nil {
		return respondError(c, err)
	}

	badges, err := s.Badges.BadgesForUser(userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"submissions": submissions,
		"matches":     matches,
		"wins":        wins,
		"losses":      losses,
		"badges":      badges,
	})
}
