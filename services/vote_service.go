package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/metrics"
	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

// VoteService owns the vote ledger and the daily quota counters.
type VoteService struct {
	DB *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{DB: db}
}

// quotaColumn maps a vote tier onto the user counter it consumes.
func quotaColumn(tier string) string {
	switch tier {
	case models.VoteDouble:
		return "daily_double_votes_used"
	case models.VoteSpecial:
		return "daily_special_votes_used"
	default:
		return "daily_votes_used"
	}
}

// RecordVote appends a ledger entry for voterID on submissionID at the given
// tier and returns the vote plus the voter's remaining quota for that tier.
//
// Quota reservation is a single conditional UPDATE (used < cap) whose
// rows-affected result decides acceptance, so two concurrent votes can never
// both land on the last remaining slot. The reservation, the vote row and the
// submission counter bump share one transaction.
func (s *VoteService) RecordVote(submissionID, voterID, tier string) (*models.Vote, int, error) {
	limit, ok := models.DailyVoteCaps[tier]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown vote type %q", ErrValidation, tier)
	}

	var vote models.Vote
	var remaining int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Select("id").First(&sub, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: submission %s", ErrNotFound, submissionID)
			}
			return err
		}

		col := quotaColumn(tier)
		res := tx.Model(&models.User{}).
			Where("id = ? AND "+col+" < ?", voterID, limit).
			Update(col, gorm.Expr(col+" + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", voterID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: user %s", ErrNotFound, voterID)
			}
			return fmt.Errorf("%w: %s cap is %d per day", ErrQuotaExceeded, tier, limit)
		}

		var used int
		if err := tx.Model(&models.User{}).Where("id = ?", voterID).
			Select(col).Scan(&used).Error; err != nil {
			return err
		}
		remaining = limit - used

		vote = models.Vote{
			ID:           uuid.NewString(),
			SubmissionID: submissionID,
			VoterID:      voterID,
			VoteType:     tier,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		return tx.Model(&models.Submission{}).Where("id = ?", submissionID).
			Update("votes_count", gorm.Expr("votes_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			metrics.QuotaRejections.WithLabelValues(tier).Inc()
		}
		return nil, 0, err
	}

	metrics.VotesRecorded.WithLabelValues(tier).Inc()
	return &vote, remaining, nil
}

// CountVotes returns the exact number of ledger entries for a submission.
func (s *VoteService) CountVotes(submissionID string) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Vote{}).Where("submission_id = ?", submissionID).Count(&n).Error
	return n, err
}

// RemainingQuota reports the voter's remaining votes per tier.
func (s *VoteService) RemainingQuota(userID string) (map[string]int, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return map[string]int{
		models.VoteStandard: models.DailyVoteCaps[models.VoteStandard] - user.DailyVotesUsed,
		models.VoteDouble:   models.DailyVoteCaps[models.VoteDouble] - user.DailyDoubleVotesUsed,
		models.VoteSpecial:  models.DailyVoteCaps[models.VoteSpecial] - user.DailySpecialVotesUsed,
	}, nil
}

// ResetDailyQuotas zeroes all counters. Runs at 00:00 UTC from the scheduler.
func (s *VoteService) ResetDailyQuotas() (int64, error) {
	res := s.DB.Model(&models.User{}).
		Where("daily_votes_used > 0 OR daily_double_votes_used > 0 OR daily_special_votes_used > 0").
		Updates(map[string]interface{}{
			"daily_votes_used":         0,
			"daily_double_votes_used":  0,
			"daily_special_votes_used": 0,
		})
	return res.RowsAffected, res.Error
}

// CastVoteHandler handles POST /api/votes.
func (s *VoteService) CastVoteHandler(c *fiber.Ctx) error {
	type Req struct {
		SubmissionID string `json:"submissionId"`
		VoteType     string `json:"voteType"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SubmissionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submissionId is required"})
	}
	if req.VoteType == "" {
		req.VoteType = models.VoteStandard
	}

	vote, remaining, err := s.RecordVote(req.SubmissionID, middleware.UserID(c), req.VoteType)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"vote":      vote,
		"remaining": remaining,
	})
}

// SubmissionVotesHandler handles GET /api/submissions/:id/votes.
func (s *VoteService) SubmissionVotesHandler(c *fiber.Ctx) error {
	submissionID := c.Params("id")

	var votes []models.Vote
	if err := s.DB.Where("submission_id = ?", submissionID).
		Order("voted_at DESC").Find(&votes).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"votes": votes,
		"count": len(votes),
	})
}

// QuotaHandler handles GET /api/votes/quota for the authenticated user.
func (s *VoteService) QuotaHandler(c *fiber.Ctx) error {
	remaining, err := s.RemainingQuota(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"remaining": remaining})
}
