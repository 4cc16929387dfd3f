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

// TeamService owns teams and membership.
type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

// MineHandler handles GET /api/teams/mine.
func (s *TeamService) MineHandler(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var teams []models.Team
	err := s.DB.Preload("Members").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Find(&teams).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"teams": teams})
}

// CreateHandler handles POST /api/teams. The creator becomes leader and
// first member in the same transaction.
func (s *TeamService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		Name      string  `json:"name"`
		AvatarURL *string `json:"avatarUrl"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	userID := middleware.UserID(c)
	team := models.Team{
		ID:           uuid.NewString(),
		Name:         req.Name,
		AvatarURL:    req.AvatarURL,
		LeaderUserID: userID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{TeamID: team.ID, UserID: userID}).Error
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

// AddMemberHandler handles POST /api/teams/:id/members. Leader only.
func (s *TeamService) AddMemberHandler(c *fiber.Ctx) error {
	type Req struct {
		UserID string `json:"userId"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId is required"})
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: team %s", ErrNotFound, c.Params("id")))
		}
		return respondError(c, err)
	}
	if team.LeaderUserID != middleware.UserID(c) {
		return respondError(c, fmt.Errorf("%w: only the team leader can add members", ErrForbidden))
	}

	member := models.TeamMember{TeamID: team.ID, UserID: req.UserID}
	if err := s.DB.Create(&member).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}
