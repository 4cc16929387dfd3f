package services

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

// CommentService owns submission comments and their like counters.
type CommentService struct {
	DB *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{DB: db}
}

// ListHandler handles GET /api/submissions/:id/comments.
func (s *CommentService) ListHandler(c *fiber.Ctx) error {
	var comments []models.Comment
	if err := s.DB.Preload("User").
		Where("submission_id = ?", c.Params("id")).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// CreateHandler handles POST /api/submissions/:id/comments.
func (s *CommentService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		Content string `json:"content"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required"})
	}

	var n int64
	if err := s.DB.Model(&models.Submission{}).
		Where("id = ?", c.Params("id")).Count(&n).Error; err != nil {
		return respondError(c, err)
	}
	if n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
	}

	comment := models.Comment{
		ID:           uuid.NewString(),
		SubmissionID: c.Params("id"),
		UserID:       middleware.UserID(c),
		Content:      req.Content,
	}
	if err := s.DB.Create(&comment).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// LikeHandler handles POST /api/comments/:id/like. The counter bumps with a
// single atomic expression, never read-modify-write.
func (s *CommentService) LikeHandler(c *fiber.Ctx) error {
	res := s.DB.Model(&models.Comment{}).Where("id = ?", c.Params("id")).
		Update("likes", gorm.Expr("likes + 1"))
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
	}

	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}
