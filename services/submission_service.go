package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/middleware"
	"devchallenge-api/models"
	"devchallenge-api/utils"
)

// Broadcaster pushes live updates to challenge rooms. Implemented by ws.Hub;
// kept as an interface so services never import the ws package.
type Broadcaster interface {
	BroadcastChallengeStats(challengeID string, submissionCount int64)
}

// SubmissionService owns submission creation and artifact uploads.
type SubmissionService struct {
	DB     *gorm.DB
	Hub    Broadcaster
	Badges *BadgeService
}

func NewSubmissionService(db *gorm.DB, hub Broadcaster, badges *BadgeService) *SubmissionService {
	return &SubmissionService{DB: db, Hub: hub, Badges: badges}
}

// Create inserts a submission owned by the user, or by the team when teamID
// is non-empty (the user must be a member).
func (s *SubmissionService) Create(challengeID, userID, teamID, content string) (*models.Submission, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: challenge %s", ErrNotFound, challengeID)
		}
		return nil, err
	}
	if !challenge.IsActive {
		return nil, fmt.Errorf("%w: challenge is closed", ErrValidation)
	}
	if challenge.EndsAt != nil && time.Now().UTC().After(*challenge.EndsAt) {
		return nil, fmt.Errorf("%w: challenge has ended", ErrValidation)
	}

	sub := models.Submission{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		Content:     content,
	}
	if teamID != "" {
		var n int64
		if err := s.DB.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", teamID, userID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: not a member of team %s", ErrForbidden, teamID)
		}
		sub.TeamID = &teamID
	} else {
		sub.UserID = &userID
	}

	if err := s.DB.Create(&sub).Error; err != nil {
		return nil, err
	}

	if s.Hub != nil {
		var count int64
		if err := s.DB.Model(&models.Submission{}).
			Where("challenge_id = ?", challengeID).Count(&count).Error; err == nil {
			s.Hub.BroadcastChallengeStats(challengeID, count)
		}
	}

	// Submission-count badges unlock here, not only after a match win.
	if s.Badges != nil && sub.UserID != nil {
		s.Badges.EvaluateForUser(*sub.UserID)
	}
	return &sub, nil
}

// CreateHandler handles POST /api/submissions.
func (s *SubmissionService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		ChallengeID string `json:"challengeId"`
		TeamID      string `json:"teamId"`
		Content     string `json:"content"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ChallengeID == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "challengeId and content are required"})
	}

	sub, err := s.Create(req.ChallengeID, middleware.UserID(c), req.TeamID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// UploadHandler handles POST /api/submissions/upload: stores the multipart
// artifact in R2 and returns the public URL for a follow-up create call.
func (s *SubmissionService) UploadHandler(c *fiber.Ctx) error {
	challengeID := c.FormValue("challengeId")
	if challengeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "challengeId is required"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	url, err := utils.UploadArtifact(c.Context(), fileHeader, challengeID, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// ByChallengeHandler handles GET /api/challenges/:id/submissions.
func (s *SubmissionService) ByChallengeHandler(c *fiber.Ctx) error {
	var subs []models.Submission
	if err := s.DB.Preload("User").Preload("Team").
		Where("challenge_id = ?", c.Params("id")).
		Order("submitted_at DESC").Find(&subs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"submissions": subs})
}

// ByUserHandler handles GET /api/users/:id/submissions.
func (s *SubmissionService) ByUserHandler(c *fiber.Ctx) error {
	var subs []models.Submission
	if err := s.DB.Preload("Challenge").
		Where("user_id = ?", c.Params("id")).
		Order("submitted_at DESC").Find(&subs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"submissions": subs})
}
