package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"devchallenge-api/metrics"
	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

// MatchService pairs submissions for head-to-head voting.
type MatchService struct {
	DB *gorm.DB
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

// PickPair returns two submissions from the challenge for the viewer to vote
// on. Selection prefers the least-exposed submissions (random tiebreak) and
// skips submissions the viewer already voted on; when that exclusion leaves
// fewer than two candidates it falls back to the full pool. Exposure counters
// for the returned pair are bumped in the same transaction.
func (s *MatchService) PickPair(challengeID, viewerID string) ([]models.Submission, error) {
	var pair []models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.Select("id").First(&challenge, "id = ?", challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: challenge %s", ErrNotFound, challengeID)
			}
			return err
		}

		candidates, err := leastExposed(tx, challengeID, viewerID)
		if err != nil {
			return err
		}
		if len(candidates) < 2 && viewerID != "" {
			candidates, err = leastExposed(tx, challengeID, "")
			if err != nil {
				return err
			}
		}
		if len(candidates) < 2 {
			return fmt.Errorf("%w: challenge %s", ErrInsufficientSubmissions, challengeID)
		}

		pair = candidates[:2]
		ids := []string{pair[0].ID, pair[1].ID}
		return tx.Model(&models.Submission{}).Where("id IN ?", ids).
			Update("exposure_count", gorm.Expr("exposure_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.PairsServed.Inc()
	return pair, nil
}

func leastExposed(tx *gorm.DB, challengeID, excludeVoterID string) ([]models.Submission, error) {
	q := tx.Where("challenge_id = ?", challengeID)
	if excludeVoterID != "" {
		q = q.Where("id NOT IN (?)",
			tx.Model(&models.Vote{}).Select("submission_id").Where("voter_id = ?", excludeVoterID))
	}

	var subs []models.Submission
	err := q.Order("exposure_count ASC, RANDOM()").Limit(2).Find(&subs).Error
	return subs, err
}

// VotingPairHandler handles GET /api/challenges/:id/voting-pair.
func (s *MatchService) VotingPairHandler(c *fiber.Ctx) error {
	pair, err := s.PickPair(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"pair": pair})
}

// VotingFeedHandler handles GET /api/voting/feed: one pair per active
// challenge, skipping challenges without enough submissions.
func (s *MatchService) VotingFeedHandler(c *fiber.Ctx) error {
	viewerID := middleware.UserID(c)

	var challenges []models.Challenge
	if err := s.DB.Where("is_active = ?", true).
		Order("created_at DESC").Find(&challenges).Error; err != nil {
		return respondError(c, err)
	}

	feed := make([]fiber.Map, 0, len(challenges))
	for _, ch := range challenges {
		pair, err := s.PickPair(ch.ID, viewerID)
		if err != nil {
			if errors.Is(err, ErrInsufficientSubmissions) {
				continue
			}
			return respondError(c, err)
		}
		feed = append(feed, fiber.Map{
			"challenge": ch,
			"pair":      pair,
		})
	}
	return c.JSON(fiber.Map{"feed": feed})
}
