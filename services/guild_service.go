package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

// GuildService owns guilds, membership and the weekly points cycle.
type GuildService struct {
	DB *gorm.DB
}

func NewGuildService(db *gorm.DB) *GuildService {
	return &GuildService{DB: db}
}

// ByUserHandler handles GET /api/users/:id/guild: the user's guild with its
// members and recent matches won by them.
func (s *GuildService) ByUserHandler(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: user %s", ErrNotFound, c.Params("id")))
		}
		return respondError(c, err)
	}
	if user.GuildID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user has no guild"})
	}

	var guild models.Guild
	if err := s.DB.First(&guild, "id = ?", *user.GuildID).Error; err != nil {
		return respondError(c, err)
	}

	var members []models.User
	if err := s.DB.Where("guild_id = ?", guild.ID).
		Order("elo_rating DESC").Find(&members).Error; err != nil {
		return respondError(c, err)
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	var recent []models.MatchHistory
	if len(memberIDs) > 0 {
		if err := s.DB.Where("winner_id IN ? OR loser_id IN ?", memberIDs, memberIDs).
			Order("completed_at DESC").Limit(20).Find(&recent).Error; err != nil {
			return respondError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"guild":         guild,
		"members":       members,
		"recentMatches": recent,
	})
}

// TopHandler handles GET /api/guilds/top, ranked by weekly points.
func (s *GuildService) TopHandler(c *fiber.Ctx) error {
	var guilds []models.Guild
	if err := s.DB.Order("weekly_points DESC").Limit(10).Find(&guilds).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"guilds": guilds})
}

// CreateHandler handles POST /api/guilds. The creator joins automatically.
func (s *GuildService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		AvatarURL   *string `json:"avatarUrl"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	userID := middleware.UserID(c)
	guild := models.Guild{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		CreatedByID: &userID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&guild).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("guild_id", guild.ID).Error
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(guild)
}

// JoinHandler handles POST /api/guilds/:id/join.
func (s *GuildService) JoinHandler(c *fiber.Ctx) error {
	var n int64
	if err := s.DB.Model(&models.Guild{}).Where("id = ?", c.Params("id")).Count(&n).Error; err != nil {
		return respondError(c, err)
	}
	if n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "guild not found"})
	}

	if err := s.DB.Model(&models.User{}).Where("id = ?", middleware.UserID(c)).
		Update("guild_id", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"joined": true})
}

// ResetWeeklyPoints zeroes every guild's weekly points. Runs Monday 00:00 UTC.
func (s *GuildService) ResetWeeklyPoints() (int64, error) {
	res := s.DB.Model(&models.Guild{}).Where("weekly_points > 0").
		Update("weekly_points", 0)
	return res.RowsAffected, res.Error
}
