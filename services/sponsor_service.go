package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/middleware"
	"devchallenge-api/models"
)

// SponsorService owns sponsor accounts, their verification state machine and
// sponsored challenge payouts.
type SponsorService struct {
	DB     *gorm.DB
	Rating *RatingService
}

func NewSponsorService(db *gorm.DB, rating *RatingService) *SponsorService {
	return &SponsorService{DB: db, Rating: rating}
}

// CreateHandler handles POST /api/sponsors. One sponsor account per user.
func (s *SponsorService) CreateHandler(c *fiber.Ctx) error {
	type Req struct {
		CompanyName  string  `json:"companyName"`
		Website      *string `json:"website"`
		ContactEmail string  `json:"contactEmail"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.CompanyName == "" || req.ContactEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "companyName and contactEmail are required"})
	}

	sponsor := models.Sponsor{
		ID:                 uuid.NewString(),
		UserID:             middleware.UserID(c),
		CompanyName:        req.CompanyName,
		Website:            req.Website,
		ContactEmail:       req.ContactEmail,
		VerificationStatus: models.SponsorPending,
	}
	if err := s.DB.Create(&sponsor).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sponsor)
}

// ListHandler handles GET /api/sponsors.
func (s *SponsorService) ListHandler(c *fiber.Ctx) error {
	var sponsors []models.Sponsor
	if err := s.DB.Order("created_at DESC").Find(&sponsors).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"sponsors": sponsors})
}

// GetHandler handles GET /api/sponsors/:id.
func (s *SponsorService) GetHandler(c *fiber.Ctx) error {
	var sponsor models.Sponsor
	err := s.DB.First(&sponsor, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, fmt.Errorf("%w: sponsor %s", ErrNotFound, c.Params("id")))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sponsor)
}

// UpdateHandler handles PUT /api/sponsors/:id. Owners can edit their company
// profile; verification state only moves through VerifyHandler.
func (s *SponsorService) UpdateHandler(c *fiber.Ctx) error {
	type Req struct {
		CompanyName  *string `json:"companyName"`
		Website      *string `json:"website"`
		ContactEmail *string `json:"contactEmail"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var sponsor models.Sponsor
	err := s.DB.First(&sponsor, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, fmt.Errorf("%w: sponsor %s", ErrNotFound, c.Params("id")))
	}
	if err != nil {
		return respondError(c, err)
	}
	if sponsor.UserID != middleware.UserID(c) {
		return respondError(c, fmt.Errorf("%w: not your sponsor account", ErrForbidden))
	}

	updates := map[string]interface{}{}
	if req.CompanyName != nil {
		if *req.CompanyName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "companyName cannot be empty"})
		}
		updates["company_name"] = *req.CompanyName
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.ContactEmail != nil {
		if *req.ContactEmail == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "contactEmail cannot be empty"})
		}
		updates["contact_email"] = *req.ContactEmail
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&sponsor).Updates(updates).Error; err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(sponsor)
}

// MineHandler handles GET /api/sponsors/mine.
func (s *SponsorService) MineHandler(c *fiber.Ctx) error {
	var sponsor models.Sponsor
	err := s.DB.First(&sponsor, "user_id = ?", middleware.UserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no sponsor account"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sponsor)
}

// VerifyHandler handles PATCH /api/sponsors/:id/verify. Only PENDING sponsors
// can move, and only to VERIFIED or REJECTED.
func (s *SponsorService) VerifyHandler(c *fiber.Ctx) error {
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Status != models.SponsorVerified && req.Status != models.SponsorRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be VERIFIED or REJECTED"})
	}

	res := s.DB.Model(&models.Sponsor{}).
		Where("id = ? AND verification_status = ?", c.Params("id"), models.SponsorPending).
		Update("verification_status", req.Status)
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sponsor not found or already decided"})
	}

	log.Printf("✅ [SPONSOR] %s -> %s", c.Params("id"), req.Status)
	return c.JSON(fiber.Map{"status": req.Status})
}

// CreateSponsoredHandler handles POST /api/sponsored-challenges. Verified
// sponsors only; one sponsorship per challenge.
func (s *SponsorService) CreateSponsoredHandler(c *fiber.Ctx) error {
	type Req struct {
		ChallengeID      string  `json:"challengeId"`
		PrizeAmount      float64 `json:"prizeAmount"`
		PrizeDescription *string `json:"prizeDescription"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ChallengeID == "" || req.PrizeAmount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "challengeId and a positive prizeAmount are required"})
	}

	sponsor, err := s.verifiedSponsorOf(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	var n int64
	if err := s.DB.Model(&models.Challenge{}).Where("id = ?", req.ChallengeID).Count(&n).Error; err != nil {
		return respondError(c, err)
	}
	if n == 0 {
		return respondError(c, fmt.Errorf("%w: challenge %s", ErrNotFound, req.ChallengeID))
	}

	sc := models.SponsoredChallenge{
		ID:               uuid.NewString(),
		SponsorID:        sponsor.ID,
		ChallengeID:      req.ChallengeID,
		PrizeAmount:      req.PrizeAmount,
		PrizeDescription: req.PrizeDescription,
		PaymentStatus:    models.PaymentPending,
	}
	if err := s.DB.Create(&sc).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sc)
}

// ListSponsoredHandler handles GET /api/sponsored-challenges.
func (s *SponsorService) ListSponsoredHandler(c *fiber.Ctx) error {
	var scs []models.SponsoredChallenge
	if err := s.DB.Preload("Sponsor").Preload("Challenge").
		Order("created_at DESC").Find(&scs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"sponsoredChallenges": scs})
}

// GetSponsoredHandler handles GET /api/sponsored-challenges/:id.
func (s *SponsorService) GetSponsoredHandler(c *fiber.Ctx) error {
	var sc models.SponsoredChallenge
	err := s.DB.Preload("Sponsor").Preload("Challenge").
		First(&sc, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, fmt.Errorf("%w: sponsored challenge %s", ErrNotFound, c.Params("id")))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sc)
}

// UpdateSponsoredHandler handles PUT /api/sponsored-challenges/:id. The owning
// sponsor can adjust the prize until a winner has been selected.
func (s *SponsorService) UpdateSponsoredHandler(c *fiber.Ctx) error {
	type Req struct {
		PrizeAmount      *float64 `json:"prizeAmount"`
		PrizeDescription *string  `json:"prizeDescription"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var sc models.SponsoredChallenge
	err := s.DB.First(&sc, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, fmt.Errorf("%w: sponsored challenge %s", ErrNotFound, c.Params("id")))
	}
	if err != nil {
		return respondError(c, err)
	}

	sponsor, err := s.verifiedSponsorOf(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if sc.SponsorID != sponsor.ID {
		return respondError(c, fmt.Errorf("%w: not your sponsorship", ErrForbidden))
	}
	if sc.WinnerSelectedAt != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "winner already selected"})
	}

	updates := map[string]interface{}{}
	if req.PrizeAmount != nil {
		if *req.PrizeAmount <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prizeAmount must be positive"})
		}
		updates["prize_amount"] = *req.PrizeAmount
	}
	if req.PrizeDescription != nil {
		updates["prize_description"] = *req.PrizeDescription
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&sc).Updates(updates).Error; err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(sc)
}

var errWinnerAlreadySelected = errors.New("winner already selected")

// SelectWinnerHandler handles POST /api/sponsored-challenges/:id/winner.
// One-shot: the winner_selected_at slot is claimed first, inside the same
// transaction that settles the match, so two concurrent calls cannot both
// move ratings — the loser of the claim rolls back with nothing persisted.
// The winner and the top-voted other submission settle through the rating
// engine.
func (s *SponsorService) SelectWinnerHandler(c *fiber.Ctx) error {
	type Req struct {
		SubmissionID string `json:"submissionId"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SubmissionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submissionId is required"})
	}

	var sc models.SponsoredChallenge
	if err := s.DB.First(&sc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: sponsored challenge %s", ErrNotFound, c.Params("id")))
		}
		return respondError(c, err)
	}

	sponsor, err := s.verifiedSponsorOf(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if sc.SponsorID != sponsor.ID {
		return respondError(c, fmt.Errorf("%w: not your sponsorship", ErrForbidden))
	}
	if sc.WinnerSelectedAt != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "winner already selected"})
	}

	var winner models.Submission
	if err := s.DB.First(&winner, "id = ? AND challenge_id = ?", req.SubmissionID, sc.ChallengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fmt.Errorf("%w: submission is not part of this challenge", ErrNotFound))
		}
		return respondError(c, err)
	}

	var match *models.MatchHistory
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Claim the one-shot slot before touching any rating. The guarded
		// update takes the row lock, so a concurrent claim waits here and
		// then sees zero rows.
		res := tx.Model(&models.SponsoredChallenge{}).
			Where("id = ? AND winner_selected_at IS NULL", sc.ID).
			Updates(map[string]interface{}{
				"winner_submission_id": winner.ID,
				"winner_selected_at":   time.Now().UTC(),
				"payment_status":       models.PaymentCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errWinnerAlreadySelected
		}

		// Runner-up: the highest-voted other submission, when one exists.
		var runnerUp models.Submission
		err := tx.Where("challenge_id = ? AND id <> ?", sc.ChallengeID, winner.ID).
			Order("votes_count DESC").First(&runnerUp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		winOwner, oerr := winner.Owner()
		if oerr != nil {
			return oerr
		}
		loseOwner, oerr := runnerUp.Owner()
		if oerr != nil {
			return oerr
		}
		if winOwner.Kind != loseOwner.Kind || winOwner.ID == loseOwner.ID {
			return nil
		}

		h, err := s.Rating.ApplyMatchResultTx(tx, sc.ChallengeID, winOwner, loseOwner)
		if err != nil {
			return err
		}
		match = &h
		return nil
	})
	if errors.Is(err, errWinnerAlreadySelected) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "winner already selected"})
	}
	if err != nil {
		return respondError(c, err)
	}
	if match != nil {
		s.Rating.AfterSettle(match)
	}

	log.Printf("🏆 [SPONSOR] winner %s selected for challenge %s", winner.ID, sc.ChallengeID)
	return c.JSON(fiber.Map{
		"winnerSubmissionId": winner.ID,
		"match":              match,
	})
}

func (s *SponsorService) verifiedSponsorOf(userID string) (*models.Sponsor, error) {
	var sponsor models.Sponsor
	err := s.DB.First(&sponsor, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no sponsor account", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if sponsor.VerificationStatus != models.SponsorVerified {
		return nil, fmt.Errorf("%w: sponsor is not verified", ErrForbidden)
	}
	return &sponsor, nil
}
