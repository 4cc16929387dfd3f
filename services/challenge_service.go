package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

var validChallengeTypes = map[string]bool{
	models.ChallengeTypeCode:   true,
	models.ChallengeTypeDesign: true,
	models.ChallengeTypeVideo:  true,
	models.ChallengeTypeAudio:  true,
}

var validFormats = map[string]bool{
	models.FormatOneVsOne:     true,
	models.FormatTeamVsTeam:   true,
	models.FormatBattleRoyale: true,
}

// ChallengeService owns the challenge lifecycle: creation, listing, and
// closing expired challenges into match results.
type ChallengeService struct {
	DB     *gorm.DB
	Rating *RatingService
}

func NewChallengeService(db *gorm.DB, rating *RatingService) *ChallengeService {
	return &ChallengeService{DB: db, Rating: rating}
}

// ListHandler handles GET /api/challenges with optional type/format/active
// filters.
func (s *ChallengeService) ListHandler(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Challenge{})
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}
	if f := c.Query("format"); f != "" {
		q = q.Where("format = ?", f)
	}
	if a := c.Query("active"); a != "" {
		q = q.Where("is_active = ?", a == "true")
	}

	var challenges []models.Challenge
	if err := q.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"challenges": challenges})
}

// ActiveHandler handles GET /api/challenges/active.
func (s *ChallengeService) ActiveHandler(c *fiber.Ctx) error {
	var challenges []models.Challenge
	if err := s.DB.Where("is_active = ?", true).
		Order("created_at DESC").Find(&challenges).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"challenges": challenges})
}

// GetHandler handles GET /api/challenges/:id, accepting an id or a slug.
func (s *ChallengeService) GetHandler(c *fiber.Ctx) error {
	key := c.Params("id")

	var challenge models.Challenge
	err := s.DB.Where("id = ? OR slug = ?", key, key).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, fmt.Errorf("%w: challenge %s", ErrNotFound, key))
	}
	if err != nil {
		return respondError(c, err)
	}

	s.DB.Model(&models.Submission{}).Where("challenge_id = ?", challenge.ID).
		Count(&challenge.SubmissionsCount)
	return c.JSON(challenge)
}

// CreateHandler handles POST /api/challenges.
func (s *ChallengeService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		Format      string   `json:"format"`
		Duration    int      `json:"duration"`
		StartsAt    *string  `json:"startsAt"`
		Tags        []string `json:"tags"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" || req.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and description are required"})
	}
	if !validChallengeTypes[req.Type] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown challenge type"})
	}
	if !validFormats[req.Format] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown challenge format"})
	}
	if req.Duration <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration must be positive"})
	}

	startsAt := time.Now().UTC()
	if req.StartsAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startsAt must be RFC3339"})
		}
		startsAt = parsed
	}
	endsAt := startsAt.Add(time.Duration(req.Duration) * time.Minute)

	var tags datatypes.JSON
	if len(req.Tags) > 0 {
		raw, err := json.Marshal(req.Tags)
		if err != nil {
			return respondError(c, err)
		}
		tags = datatypes.JSON(raw)
	}

	userID := middleware.UserID(c)
	challenge := models.Challenge{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        s.uniqueSlug(req.Title),
		Description: req.Description,
		Type:        req.Type,
		Format:      req.Format,
		Duration:    req.Duration,
		StartsAt:    &startsAt,
		EndsAt:      &endsAt,
		CreatedByID: &userID,
		Tags:        tags,
		IsActive:    true,
	}
	if err := s.DB.Create(&challenge).Error; err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [CHALLENGE] created %s (%s, ends %s)", challenge.Slug, challenge.Format,
		endsAt.Format(time.RFC3339))
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// UpdateHandler handles PATCH /api/challenges/:id. Creator only.
func (s *ChallengeService) UpdateHandler(c *fiber.Ctx) error {
	type Req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"isActive"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: challenge %s", ErrNotFound, c.Params("id")))
		}
		return respondError(c, err)
	}
	if challenge.CreatedByID == nil || *challenge.CreatedByID != middleware.UserID(c) {
		return respondError(c, fmt.Errorf("%w: only the creator can update a challenge", ErrForbidden))
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&challenge).Updates(updates).Error; err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(challenge)
}

// ClosedChallenge pairs a deactivated challenge with the match result it
// produced, when one could be settled.
type ClosedChallenge struct {
	Challenge models.Challenge
	Match     *models.MatchHistory
}

// CloseExpired deactivates challenges past their end time. ONE_VS_ONE
// challenges with at least two voted submissions settle into a match: the two
// top submissions by weighted vote tally (DOUBLE counts 2, SPECIAL counts 3)
// go through the rating engine.
func (s *ChallengeService) CloseExpired(now time.Time) ([]ClosedChallenge, error) {
	var expired []models.Challenge
	if err := s.DB.Where("is_active = ? AND ends_at IS NOT NULL AND ends_at <= ?", true, now).
		Find(&expired).Error; err != nil {
		return nil, err
	}

	closed := make([]ClosedChallenge, 0, len(expired))
	for _, ch := range expired {
		if err := s.DB.Model(&models.Challenge{}).Where("id = ?", ch.ID).
			Update("is_active", false).Error; err != nil {
			return closed, err
		}
		ch.IsActive = false

		result := ClosedChallenge{Challenge: ch}
		if ch.Format == models.FormatOneVsOne {
			match, err := s.settleOneVsOne(ch.ID)
			if err != nil {
				log.Printf("❌ [CLOSER] settling challenge %s: %v", ch.Slug, err)
			} else {
				result.Match = match
			}
		}
		closed = append(closed, result)
		log.Printf("🔁 [CLOSER] closed challenge %s", ch.Slug)
	}
	return closed, nil
}

func (s *ChallengeService) settleOneVsOne(challengeID string) (*models.MatchHistory, error) {
	type tally struct {
		SubmissionID string
		Score        int64
	}
	weighted := fmt.Sprintf(
		"SUM(CASE votes.vote_type WHEN '%s' THEN %d WHEN '%s' THEN %d ELSE %d END) AS score",
		models.VoteDouble, models.VoteWeights[models.VoteDouble],
		models.VoteSpecial, models.VoteWeights[models.VoteSpecial],
		models.VoteWeights[models.VoteStandard])

	var top []tally
	err := s.DB.Model(&models.Vote{}).
		Select("votes.submission_id, " + weighted).
		Joins("JOIN submissions ON submissions.id = votes.submission_id").
		Where("submissions.challenge_id = ?", challengeID).
		Group("votes.submission_id").
		Order("score DESC").Limit(2).Scan(&top).Error
	if err != nil {
		return nil, err
	}
	if len(top) < 2 {
		return nil, fmt.Errorf("%w: need two voted submissions", ErrInsufficientSubmissions)
	}

	winner, err := s.submissionOwner(top[0].SubmissionID)
	if err != nil {
		return nil, err
	}
	loser, err := s.submissionOwner(top[1].SubmissionID)
	if err != nil {
		return nil, err
	}
	return s.Rating.ApplyMatchResult(challengeID, winner, loser)
}

func (s *ChallengeService) submissionOwner(submissionID string) (models.Owner, error) {
	var sub models.Submission
	if err := s.DB.First(&sub, "id = ?", submissionID).Error; err != nil {
		return models.Owner{}, err
	}
	return sub.Owner()
}

func (s *ChallengeService) uniqueSlug(title string) string {
	base := slug.Make(title)
	var n int64
	s.DB.Model(&models.Challenge{}).Where("slug = ?", base).Count(&n)
	if n == 0 {
		return base
	}
	return base + "-" + uuid.NewString()[:8]
}
